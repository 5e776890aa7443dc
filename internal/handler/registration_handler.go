package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/service"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
	"github.com/taxirank/rank-api/pkg/response"
)

type registrationWorkflow interface {
	Submit(ctx context.Context, req service.SubmitRegistrationRequest) (*models.RegistrationRequest, error)
	GetByStatus(ctx context.Context, status models.RequestStatus) ([]models.RegistrationRequest, error)
	GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error)
	Review(ctx context.Context, id string, req service.ReviewRegistrationRequest, reviewerID string) (*models.RegistrationRequest, error)
}

// RegistrationHandler serves the self-service admin registration workflow.
type RegistrationHandler struct {
	registrations registrationWorkflow
	metrics       *service.MetricsService
	enabled       bool
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(registrations registrationWorkflow, metrics *service.MetricsService, enabled bool) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, metrics: metrics, enabled: enabled}
}

// Submit godoc
// @Summary Submit an admin registration request
// @Description Queues a PENDING application for super admin review
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.SubmitRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "registrations are currently closed"))
		return
	}

	var req service.SubmitRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	request, err := h.registrations.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List registration requests by status
// @Tags Registrations
// @Produce json
// @Param status query string false "Request status (default PENDING)"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	status := models.RequestStatus(c.DefaultQuery("status", string(models.RequestPending)))
	requests, err := h.registrations.GetByStatus(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a registration request
// @Tags Registrations
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	request, err := h.registrations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Review godoc
// @Summary Review a registration request
// @Description Approve or reject a PENDING request; approval creates the admin account and its bindings
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body service.ReviewRegistrationRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/review [post]
func (h *RegistrationHandler) Review(c *gin.Context) {
	var req service.ReviewRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	request, err := h.registrations.Review(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrRankAlreadyAssigned.Code {
			h.metrics.ObserveBindingConflict()
			h.metrics.ObserveReview("registration", string(models.RequestRejected))
		}
		response.Error(c, err)
		return
	}

	h.metrics.ObserveReview("registration", string(request.Status))
	response.JSON(c, http.StatusOK, request, nil)
}
