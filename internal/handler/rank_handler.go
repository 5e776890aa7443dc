package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taxirank/rank-api/internal/service"
	"github.com/taxirank/rank-api/pkg/response"
)

// RankHandler serves the rank read API.
type RankHandler struct {
	ranks    *service.RankService
	bindings *service.BindingService
}

// NewRankHandler creates a new handler.
func NewRankHandler(ranks *service.RankService, bindings *service.BindingService) *RankHandler {
	return &RankHandler{ranks: ranks, bindings: bindings}
}

// List godoc
// @Summary List active ranks
// @Tags Ranks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ranks [get]
func (h *RankHandler) List(c *gin.Context) {
	ranks, err := h.ranks.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranks, nil)
}

// Get godoc
// @Summary Get rank by id
// @Tags Ranks
// @Produce json
// @Param id path string true "Rank id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ranks/{id} [get]
func (h *RankHandler) Get(c *gin.Context) {
	rank, err := h.ranks.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rank, nil)
}

// GetByCode godoc
// @Summary Get rank by public code
// @Tags Ranks
// @Produce json
// @Param code path string true "Rank code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ranks/code/{code} [get]
func (h *RankHandler) GetByCode(c *gin.Context) {
	rank, err := h.ranks.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rank, nil)
}

// EvictCache godoc
// @Summary Evict cached rank entries
// @Description Drops cached rank lookups after out-of-band changes to the rank table.
// @Tags Ranks
// @Produce json
// @Param codes query string false "Comma-separated rank codes; the list cache is always dropped"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks/cache [delete]
func (h *RankHandler) EvictCache(c *gin.Context) {
	var codes []string
	if raw := c.Query("codes"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}
	h.ranks.Evict(c.Request.Context(), codes...)
	response.JSON(c, http.StatusOK, gin.H{"evicted": true}, nil)
}

// Admins godoc
// @Summary List admins bound to a rank
// @Tags Ranks
// @Produce json
// @Param id path string true "Rank id"
// @Success 200 {object} response.Envelope
// @Router /ranks/{id}/admins [get]
func (h *RankHandler) Admins(c *gin.Context) {
	admins, err := h.bindings.AdminsForRank(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil)
}
