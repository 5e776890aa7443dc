package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taxirank/rank-api/internal/middleware"
	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/service"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
	"github.com/taxirank/rank-api/pkg/response"
)

// BindingHandler serves the binding registry API for super admins.
type BindingHandler struct {
	bindings *service.BindingService
}

// NewBindingHandler creates a new handler.
func NewBindingHandler(bindings *service.BindingService) *BindingHandler {
	return &BindingHandler{bindings: bindings}
}

// Assign godoc
// @Summary Bind an admin to a rank
// @Description Creates a binding for the rank referenced by code
// @Tags Bindings
// @Accept json
// @Produce json
// @Param payload body service.AssignBindingRequest true "Binding payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bindings [post]
func (h *BindingHandler) Assign(c *gin.Context) {
	var req service.AssignBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid binding payload"))
		return
	}

	binding, err := h.bindings.Assign(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, binding)
}

// ListForUser godoc
// @Summary List an admin's bindings
// @Tags Bindings
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/bindings [get]
func (h *BindingHandler) ListForUser(c *gin.Context) {
	bindings, err := h.bindings.BindingsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bindings, nil)
}

// UpdatePermissions godoc
// @Summary Update binding permissions
// @Description Merges the provided flags into the stored binding
// @Tags Bindings
// @Accept json
// @Produce json
// @Param user_id path string true "User id"
// @Param rank_id path string true "Rank id"
// @Param payload body models.PermissionUpdate true "Permission update"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bindings/{user_id}/{rank_id} [patch]
func (h *BindingHandler) UpdatePermissions(c *gin.Context) {
	var update models.PermissionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}

	binding, err := h.bindings.UpdatePermissions(c.Request.Context(), c.Param("user_id"), c.Param("rank_id"), update, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, binding, nil)
}

// Remove godoc
// @Summary Remove a binding
// @Tags Bindings
// @Produce json
// @Param user_id path string true "User id"
// @Param rank_id path string true "Rank id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bindings/{user_id}/{rank_id} [delete]
func (h *BindingHandler) Remove(c *gin.Context) {
	if err := h.bindings.Remove(c.Request.Context(), c.Param("user_id"), c.Param("rank_id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary Full binding roster
// @Tags Bindings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bindings [get]
func (h *BindingHandler) Roster(c *gin.Context) {
	roster, err := h.bindings.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

func actorID(c *gin.Context) string {
	if claims, ok := middleware.CurrentClaims(c); ok {
		return claims.UserID
	}
	return ""
}
