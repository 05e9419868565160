//go:build integration

package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"paperflow/internal/paperwork/history"
	"paperflow/internal/paperwork/models"
	"paperflow/pkg/testutil/containers"
)

type PostgresHistorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *history.Postgres
}

func TestPostgresHistorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresHistorySuite))
}

func (s *PostgresHistorySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = history.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresHistorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "status_history"))
}

func (s *PostgresHistorySuite) TestRecordAndListNewestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	transitions := []struct {
		prev, next models.Status
	}{
		{models.StatusCreated, models.StatusInitiated},
		{models.StatusInitiated, models.StatusStarted},
	}
	for i, tr := range transitions {
		change := &models.StatusChange{
			PaperworkID:    42,
			PreviousStatus: tr.prev,
			NewStatus:      tr.next,
			ChangedBy:      "admin@example.com",
			ChangedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		s.Require().NoError(s.store.Record(ctx, change))
		s.NotZero(change.ID)
	}

	got, err := s.store.ListByPaperwork(ctx, 42)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(models.StatusStarted, got[0].NewStatus)
	s.Equal(models.StatusInitiated, got[1].NewStatus)

	other, err := s.store.ListByPaperwork(ctx, 7)
	s.Require().NoError(err)
	s.Empty(other)
}
