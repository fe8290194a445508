package handlers

import (
	"net/http"
	"strings"

	"passgate/internal/service"

	"github.com/gin-gonic/gin"
)

const ctxTokenIdentityKey = "auth.token_identity"

func (h *Handler) bearerMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(ctxTokenIdentityKey, id)
	c.Next()
}

// tokenIdentity returns the identity bearerMiddleware stored, if any.
func tokenIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(ctxTokenIdentityKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := v.(service.Identity)
	return id, ok
}
