package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taxirank/rank-api/internal/service"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
	"github.com/taxirank/rank-api/pkg/response"
)

// ExportHandler serves roster downloads.
type ExportHandler struct {
	exports *service.ExportService
	enabled bool
}

// NewExportHandler creates a new handler.
func NewExportHandler(exports *service.ExportService, enabled bool) *ExportHandler {
	return &ExportHandler{exports: exports, enabled: enabled}
}

// Roster godoc
// @Summary Download the binding roster
// @Description Exports the current admin roster as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/roster [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	filename := "rank-admin-roster-" + time.Now().UTC().Format("20060102")
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.exports.RosterCSV(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.exports.RosterPDF(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
