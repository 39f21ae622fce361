package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
)

func userClaimsFromContext(c *gin.Context) *models.UserClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

func studentClaimsFromContext(c *gin.Context) *models.StudentClaims {
	value, exists := c.Get(middleware.ContextStudentKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.StudentClaims)
	if !ok {
		return nil
	}
	return claims
}
