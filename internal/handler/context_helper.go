package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/middleware"
	"github.com/gearguard/gearguard-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the verified caller identity. The JWT middleware
// guarantees claims exist on protected routes; the zero actor on public ones
// carries no role and is denied by every policy check.
func actorFromContext(c *gin.Context) authz.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return authz.Actor{}
	}
	return authz.ActorFromClaims(claims)
}
