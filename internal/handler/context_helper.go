package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/middleware"
	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) service.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{IP: c.ClientIP()}
	}
	return service.Actor{
		ID:       claims.PrincipalID,
		FullName: claims.FullName,
		Role:     claims.Role,
		IP:       c.ClientIP(),
	}
}
