package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/service"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
	"github.com/taxirank/rank-api/pkg/response"
)

// AssignmentHandler serves the additional-rank request workflow.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	metrics     *service.MetricsService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(assignments *service.AssignmentService, metrics *service.MetricsService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, metrics: metrics}
}

// Submit godoc
// @Summary Request an additional rank
// @Description Files a PENDING request for the rank referenced by code
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.SubmitAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	var req service.SubmitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	request, err := h.assignments.Submit(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List assignment requests
// @Tags Assignments
// @Produce json
// @Param status query string false "Filter by status"
// @Param rank_id query string false "Filter by target rank"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentRequestFilter{RankID: c.Query("rank_id")}
	if status := c.Query("status"); status != "" {
		filter.Status = []models.RequestStatus{models.RequestStatus(status)}
	}

	requests, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Mine godoc
// @Summary List the caller's own assignment requests
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments/mine [get]
func (h *AssignmentHandler) Mine(c *gin.Context) {
	requests, err := h.assignments.ListForAdmin(c.Request.Context(), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get an assignment request
// @Tags Assignments
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	request, err := h.assignments.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Review godoc
// @Summary Review an assignment request
// @Description Approve or reject a PENDING request; approval binds the requester to the rank
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body service.ReviewAssignmentRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/review [post]
func (h *AssignmentHandler) Review(c *gin.Context) {
	var req service.ReviewAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	request, err := h.assignments.Review(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrRankAlreadyAssigned.Code {
			h.metrics.ObserveBindingConflict()
			h.metrics.ObserveReview("assignment", string(models.RequestRejected))
		}
		response.Error(c, err)
		return
	}

	h.metrics.ObserveReview("assignment", string(request.Status))
	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel an assignment request
// @Description Withdraws the caller's own PENDING request
// @Tags Assignments
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/cancel [post]
func (h *AssignmentHandler) Cancel(c *gin.Context) {
	request, err := h.assignments.Cancel(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
