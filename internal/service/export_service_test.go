package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/pkg/export"
)

type rosterStub struct {
	roster []models.BindingDetail
}

func (r *rosterStub) Roster(ctx context.Context) ([]models.BindingDetail, error) {
	return r.roster, nil
}

func sampleRoster() []models.BindingDetail {
	designation := "Queue Marshal"
	return []models.BindingDetail{
		{
			Binding: models.Binding{
				ID:          "binding-1",
				UserID:      "user-1",
				RankID:      "rank-1",
				Designation: &designation,
				AssignedAt:  time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			},
			RankName:   "Bree Street Rank",
			RankCode:   "BREE",
			RankCity:   "Johannesburg",
			AdminName:  "Thabo Nkosi",
			AdminEmail: "thabo@example.com",
		},
	}
}

func TestExportRosterCSV(t *testing.T) {
	svc := NewExportService(&rosterStub{roster: sampleRoster()}, export.NewCSVExporter(), export.NewPDFExporter(), nil)

	payload, err := svc.RosterCSV(context.Background())
	require.NoError(t, err)

	content := string(payload)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Rank,Code,City,Administrator,Email,Designation,Assigned At", lines[0])
	require.Contains(t, lines[1], "Bree Street Rank")
	require.Contains(t, lines[1], "thabo@example.com")
	require.Contains(t, lines[1], "2026-03-12")
}

func TestExportRosterPDF(t *testing.T) {
	svc := NewExportService(&rosterStub{roster: sampleRoster()}, export.NewCSVExporter(), export.NewPDFExporter(), nil)

	payload, err := svc.RosterPDF(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRosterEmpty(t *testing.T) {
	svc := NewExportService(&rosterStub{}, export.NewCSVExporter(), export.NewPDFExporter(), nil)

	payload, err := svc.RosterCSV(context.Background())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 1)
}
