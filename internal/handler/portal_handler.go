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

// PortalHandler is the student-facing surface. Its cookies are disjoint
// from the staff ones, so both sessions can coexist in one browser.
type PortalHandler struct {
	auth       *service.StudentAuthService
	portal     *service.PortalService
	attendance *service.AttendanceService
	jwt        config.JWTConfig
}

// NewPortalHandler constructs a portal handler.
func NewPortalHandler(auth *service.StudentAuthService, portal *service.PortalService, attendance *service.AttendanceService, jwt config.JWTConfig) *PortalHandler {
	return &PortalHandler{auth: auth, portal: portal, attendance: attendance, jwt: jwt}
}

// Login godoc
// @Summary Student login
// @Tags Portal
// @Accept json
// @Produce json
// @Param payload body service.StudentLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /portal/login [post]
func (h *PortalHandler) Login(c *gin.Context) {
	var req service.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, pair, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookies(c, pair)
	response.JSON(c, http.StatusOK, gin.H{"student": student, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken}, "logged in")
}

// Refresh godoc
// @Summary Rotate student tokens
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /portal/refresh [post]
func (h *PortalHandler) Refresh(c *gin.Context) {
	raw := refreshTokenFromRequest(c, middleware.StudentRefreshCookie)
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token missing"))
		return
	}
	student, pair, err := h.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookies(c, pair)
	response.JSON(c, http.StatusOK, gin.H{"student": student, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken}, "tokens refreshed")
}

// Logout godoc
// @Summary Student logout
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/logout [post]
func (h *PortalHandler) Logout(c *gin.Context) {
	// Student refresh tokens are stateless, so logout only clears the
	// cookies.
	response.ClearAuthCookie(c, middleware.StudentAccessCookie)
	response.ClearAuthCookie(c, middleware.StudentRefreshCookie)
	response.JSON(c, http.StatusOK, nil, "logged out")
}

// Profile godoc
// @Summary Current student profile
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/me [get]
func (h *PortalHandler) Profile(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.portal.Profile(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, "")
}

// Batch godoc
// @Summary Student's own batch
// @Tags Portal
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/batches/{id} [get]
func (h *PortalHandler) Batch(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	batch, err := h.portal.Batch(c.Request.Context(), claims.BatchID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, "")
}

// Subjects godoc
// @Summary Student's enrolled subjects
// @Tags Portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/subjects [get]
func (h *PortalHandler) Subjects(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subjects, err := h.portal.Subjects(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, "")
}

// SubjectUnits godoc
// @Summary Units of an enrolled subject
// @Tags Portal
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/subjects/{id}/units [get]
func (h *PortalHandler) SubjectUnits(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	units, err := h.portal.SubjectUnits(c.Request.Context(), claims.StudentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, units, "")
}

// UnitMaterials godoc
// @Summary Materials of a unit in an enrolled subject
// @Tags Portal
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/units/{id}/materials [get]
func (h *PortalHandler) UnitMaterials(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	materials, err := h.portal.UnitMaterials(c.Request.Context(), claims.StudentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, "")
}

// AttendanceHistory godoc
// @Summary Student's attendance history and statistics
// @Tags Portal
// @Produce json
// @Param subject_id query string false "Restrict to one enrolled subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /portal/attendance [get]
func (h *PortalHandler) AttendanceHistory(c *gin.Context) {
	claims := studentClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	history, err := h.attendance.StudentHistory(c.Request.Context(), claims.StudentID, c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, "")
}

func (h *PortalHandler) setCookies(c *gin.Context, pair *service.TokenPair) {
	response.SetAuthCookie(c, middleware.StudentAccessCookie, pair.AccessToken, int(h.jwt.Expiration.Seconds()))
	response.SetAuthCookie(c, middleware.StudentRefreshCookie, pair.RefreshToken, int(h.jwt.RefreshExpiration.Seconds()))
}
