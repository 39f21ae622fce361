package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// WhatsAppLogHandler handles delivery-audit endpoints.
type WhatsAppLogHandler struct {
	service *service.WhatsAppLogService
}

// NewWhatsAppLogHandler constructs a log handler.
func NewWhatsAppLogHandler(svc *service.WhatsAppLogService) *WhatsAppLogHandler {
	return &WhatsAppLogHandler{service: svc}
}

// Record godoc
// @Summary Record a delivery outcome
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.RecordDeliveryRequest true "Delivery payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/whatsapp [post]
func (h *WhatsAppLogHandler) Record(c *gin.Context) {
	var req service.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry, "delivery recorded")
}

// List godoc
// @Summary List delivery outcomes
// @Tags Notifications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/whatsapp [get]
func (h *WhatsAppLogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, pagination, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, logs, pagination, "")
}

// ListByAttendance godoc
// @Summary Delivery outcomes for one session
// @Tags Notifications
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/{id}/notifications [get]
func (h *WhatsAppLogHandler) ListByAttendance(c *gin.Context) {
	logs, err := h.service.ListByAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, "")
}
