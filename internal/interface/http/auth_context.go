package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/shopbot/internal/domain/servicetoken"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims servicetoken.Claims) {
	c.Set(authClaimsKey, claims)
}

func callerFromContext(c *gin.Context) string {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return ""
	}
	claims, ok := value.(servicetoken.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
