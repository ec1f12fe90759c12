package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/shopbot/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// A nil verifier leaves the model endpoints unauthenticated.
func NewRouter(cfg *config.Config, handler *Handler, verifier TokenVerifier) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	models := router.Group("/")
	if verifier != nil {
		models.Use(authMiddleware(verifier))
	}
	{
		models.POST("/embed", handler.Embed)
		models.POST("/generate", handler.Generate)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
