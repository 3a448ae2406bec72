package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/leave-calendar-api/internal/middleware"
	"github.com/noah-isme/leave-calendar-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
