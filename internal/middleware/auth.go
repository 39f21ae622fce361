package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// Context keys storing verified JWT claims.
const (
	ContextUserKey    = "currentUser"
	ContextStudentKey = "currentStudent"
)

// Cookie names for the two token surfaces. Staff and student cookies
// are disjoint, so one browser can hold both sessions at once.
const (
	UserAccessCookie     = "accessToken"
	UserRefreshCookie    = "refreshToken"
	StudentAccessCookie  = "studentAccessToken"
	StudentRefreshCookie = "studentRefreshToken"
)

// UserJWT protects staff routes. The token is read from the access
// cookie first, then from a bearer header.
func UserJWT(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c, UserAccessCookie)
		if raw == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, err := tokens.VerifyUserToken(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// StudentJWT protects student routes. A staff token is not accepted
// here; the two surfaces verify against different secrets.
func StudentJWT(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c, StudentAccessCookie)
		if raw == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, err := tokens.VerifyStudentToken(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextStudentKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
