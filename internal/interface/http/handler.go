package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/shopbot/internal/domain/inference"
	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

// Handler exposes the model server endpoints.
type Handler struct {
	svc    inference.Service
	logger *slog.Logger
}

// NewHandler constructs the model server handler.
func NewHandler(svc inference.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "http.handler"),
	}
}

// Embed returns the embedding for a single text.
func (h *Handler) Embed(c *gin.Context) {
	var req inference.EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, errMessage(err), err))
		return
	}

	resp, err := h.svc.Embed(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Generate completes a prompt with the loaded generation backend.
func (h *Handler) Generate(c *gin.Context) {
	var req inference.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, errMessage(err), err))
		return
	}

	resp, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports the loaded models.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health(c.Request.Context()))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
