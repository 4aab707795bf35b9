package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/inscriptions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentage(tt.part, tt.total), "%d/%d", tt.part, tt.total)
	}
}

func TestAdminService_Stats(t *testing.T) {
	repo := &MockRegistrationRepository{
		StatsFunc: func(ctx context.Context) (*models.RegistrationStats, error) {
			return &models.RegistrationStats{Total: 3, WithSnack: 2, Students: 1, AddedToGroup: 1}, nil
		},
	}

	stats, err := NewAdminService(repo, discardLogger()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.RegistrationStats{Total: 3, WithSnack: 2, Students: 1, AddedToGroup: 1, SnackPercentage: 67}, stats)
}

func TestAdminService_Stats_Error(t *testing.T) {
	repo := &MockRegistrationRepository{
		StatsFunc: func(ctx context.Context) (*models.RegistrationStats, error) {
			return nil, errors.New("timeout")
		},
	}

	_, err := NewAdminService(repo, discardLogger()).Stats(context.Background())
	assert.Equal(t, models.ErrInternalServer, err)
}

func TestAdminService_ExportCSV(t *testing.T) {
	created := time.Date(2026, 4, 2, 18, 30, 0, 0, time.Local)
	repo := &MockRegistrationRepository{
		ListFunc: func(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
			assert.Equal(t, models.OrderByName, order)
			return []*models.Registration{
				{
					ID: 2, FirstName: "Anne", LastName: "Bernard", Age: 19, Phone: "0611",
					IsStudent: models.Yes, StudentLevel: strptr("Licence"), StudentLocation: strptr("Lyon, campus \"Est\""),
					Church: "Saint-Jean", HasSnack: models.No, AddedToGroup: true, CreatedAt: created,
				},
				{
					ID: 1, FirstName: "Luc", LastName: "Martin", Age: 30, Phone: "0622",
					IsStudent: models.No, Church: "", HasSnack: models.Yes, SnackDetail: strptr("Gâteau"),
					CreatedAt: created,
				},
			}, nil
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewAdminService(repo, discardLogger()).ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		"2", "Anne", "Bernard", "19", "0611", "oui", "Licence", "Lyon, campus \"Est\"", "Saint-Jean",
		"non", "", "Oui", "02/04/2026 18:30:00",
	}, records[1])
	assert.Equal(t, "Gâteau", records[2][10])
	assert.Equal(t, "Non", records[2][11])
}

func TestAdminService_ExportCSV_ListError(t *testing.T) {
	repo := &MockRegistrationRepository{
		ListFunc: func(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
			return nil, errors.New("boom")
		},
	}

	var buf bytes.Buffer
	err := NewAdminService(repo, discardLogger()).ExportCSV(context.Background(), &buf)
	assert.Equal(t, models.ErrInternalServer, err)
	assert.Zero(t, buf.Len())
}

func TestCell(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Marie", "Marie"},
		{"", ""},
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"+33 6 00 00 00 00", "'+33 6 00 00 00 00"},
		{"-1", "'-1"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tcmd", "'\tcmd"},
		{"Jean-Luc", "Jean-Luc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cell(tt.in), tt.in)
	}
}

func TestAdminService_ExportCSV_QuotesFormulas(t *testing.T) {
	repo := &MockRegistrationRepository{
		ListFunc: func(ctx context.Context, order models.RegistrationOrder) ([]*models.Registration, error) {
			return []*models.Registration{{
				ID: 3, FirstName: "=1+1", LastName: "@Nom", Age: 20, Phone: "0600",
				IsStudent: models.No, Church: "-x", HasSnack: models.Yes, SnackDetail: strptr("+cake"),
			}}, nil
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewAdminService(repo, discardLogger()).ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "'=1+1", records[1][1])
	assert.Equal(t, "'@Nom", records[1][2])
	assert.Equal(t, "'-x", records[1][8])
	assert.Equal(t, "'+cake", records[1][10])
}
