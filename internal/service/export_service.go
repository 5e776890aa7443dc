package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/taxirank/rank-api/internal/models"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
	"github.com/taxirank/rank-api/pkg/export"
)

type rosterSource interface {
	Roster(ctx context.Context) ([]models.BindingDetail, error)
}

var rosterHeaders = []string{"Rank", "Code", "City", "Administrator", "Email", "Designation", "Assigned At"}

// ExportService renders the admin binding roster as CSV or PDF for
// reporting.
type ExportService struct {
	bindings rosterSource
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(bindings rosterSource, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{bindings: bindings, csv: csv, pdf: pdf, logger: logger}
}

// RosterCSV renders the current binding roster as CSV bytes.
func (s *ExportService) RosterCSV(ctx context.Context) ([]byte, error) {
	dataset, err := s.rosterDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}
	return payload, nil
}

// RosterPDF renders the current binding roster as a tabular PDF.
func (s *ExportService) RosterPDF(ctx context.Context) ([]byte, error) {
	dataset, err := s.rosterDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, "Rank Administrator Roster")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
	}
	return payload, nil
}

func (s *ExportService) rosterDataset(ctx context.Context) (export.Dataset, error) {
	roster, err := s.bindings.Roster(ctx)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([]map[string]string, 0, len(roster))
	for _, entry := range roster {
		designation := ""
		if entry.Designation != nil {
			designation = *entry.Designation
		}
		rows = append(rows, map[string]string{
			"Rank":          entry.RankName,
			"Code":          entry.RankCode,
			"City":          entry.RankCity,
			"Administrator": entry.AdminName,
			"Email":         entry.AdminEmail,
			"Designation":   designation,
			"Assigned At":   entry.AssignedAt.Format("2006-01-02"),
		})
	}
	s.logger.Debug("rendered roster dataset", zap.Int("rows", len(rows)))
	return export.Dataset{Headers: rosterHeaders, Rows: rows}, nil
}
