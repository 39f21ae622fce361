package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// UnitHandler handles unit and material endpoints.
type UnitHandler struct {
	service   *service.UnitService
	materials *service.MaterialService
}

// NewUnitHandler constructs a unit handler.
func NewUnitHandler(svc *service.UnitService, materials *service.MaterialService) *UnitHandler {
	return &UnitHandler{service: svc, materials: materials}
}

// Get godoc
// @Summary Get unit by id
// @Tags Units
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id} [get]
func (h *UnitHandler) Get(c *gin.Context) {
	unit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, "")
}

// Rename godoc
// @Summary Rename unit
// @Tags Units
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body service.UnitRequest true "Unit payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id} [put]
func (h *UnitHandler) Rename(c *gin.Context) {
	var req service.UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	unit, err := h.service.Rename(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, "unit renamed")
}

// Delete godoc
// @Summary Delete unit
// @Tags Units
// @Produce json
// @Param id path string true "Unit ID"
// @Success 204
// @Security BearerAuth
// @Router /units/{id} [delete]
func (h *UnitHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMaterials godoc
// @Summary List materials of a unit
// @Tags Units
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/materials [get]
func (h *UnitHandler) ListMaterials(c *gin.Context) {
	materials, err := h.materials.ListByUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, "")
}

// AddMaterial godoc
// @Summary Attach a material to a unit
// @Tags Units
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body service.AddMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /units/{id}/materials [post]
func (h *UnitHandler) AddMaterial(c *gin.Context) {
	var req service.AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := userClaimsFromContext(c); claims != nil {
		req.UploadedBy = claims.UserID
	}
	material, err := h.materials.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material, "material added")
}

// DeleteMaterial godoc
// @Summary Delete a material
// @Tags Units
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Security BearerAuth
// @Router /materials/{id} [delete]
func (h *UnitHandler) DeleteMaterial(c *gin.Context) {
	if err := h.materials.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
