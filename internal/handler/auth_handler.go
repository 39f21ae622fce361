package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// AuthHandler handles staff authentication endpoints. Tokens are set as
// cookies and echoed in the body so non-browser clients can use bearer
// headers instead.
type AuthHandler struct {
	service *service.AuthService
	jwt     config.JWTConfig
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService, jwt config.JWTConfig) *AuthHandler {
	return &AuthHandler{service: svc, jwt: jwt}
}

// Register godoc
// @Summary Register a staff user
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.RegisterUserRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, pair, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookies(c, pair)
	response.Created(c, gin.H{"user": user, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken}, "registered")
}

// Login godoc
// @Summary Staff login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookies(c, pair)
	response.JSON(c, http.StatusOK, gin.H{"user": user, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken}, "logged in")
}

// Refresh godoc
// @Summary Rotate staff tokens
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw := refreshTokenFromRequest(c, middleware.UserRefreshCookie)
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token missing"))
		return
	}
	user, pair, err := h.service.Refresh(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookies(c, pair)
	response.JSON(c, http.StatusOK, gin.H{"user": user, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken}, "tokens refreshed")
}

// Logout godoc
// @Summary Staff logout
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := userClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.ClearAuthCookie(c, middleware.UserAccessCookie)
	response.ClearAuthCookie(c, middleware.UserRefreshCookie)
	response.JSON(c, http.StatusOK, nil, "logged out")
}

// Me godoc
// @Summary Current staff user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := userClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, "")
}

func (h *AuthHandler) setCookies(c *gin.Context, pair *service.TokenPair) {
	response.SetAuthCookie(c, middleware.UserAccessCookie, pair.AccessToken, int(h.jwt.Expiration.Seconds()))
	response.SetAuthCookie(c, middleware.UserRefreshCookie, pair.RefreshToken, int(h.jwt.RefreshExpiration.Seconds()))
}

func refreshTokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}
