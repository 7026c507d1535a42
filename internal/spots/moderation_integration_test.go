package spots_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"builder-maps/internal/domain"
	"builder-maps/internal/infrastructure/repository"
	"builder-maps/internal/models"
	"builder-maps/internal/spots"
	testutil "builder-maps/internal/testing"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/geo"
	"builder-maps/pkg/logging"
)

func TestModeration_ParallelDecisionsOnMySQL(t *testing.T) {
	dbt := testutil.NewDBTest(t)
	dbt.Truncate()
	db := dbt.DB
	ctx := context.Background()

	svc := spots.NewService(spots.Deps{
		Repo:   repository.NewSQLRepository(db),
		UoW:    repository.NewSQLUnitOfWorkFactory(db),
		Logger: logging.NewWriterLogger(io.Discard, logging.DefaultLogConfig()),
	})

	spot := &models.Spot{
		Name:        "Capital Factory",
		CityID:      "austin",
		Category:    models.CategoryCoworking,
		Coordinates: geo.Coordinate{Lng: -97.7404, Lat: 30.2703},
	}
	require.NoError(t, db.CreateSpotCtx(ctx, spot))

	for round := 0; round < 5; round++ {
		if round > 0 {
			spot.ID = 0
			require.NoError(t, db.CreateSpotCtx(ctx, spot))
		}
		results := moderateInParallel(ctx, svc, spot.ID)

		var wins, conflicts int
		for _, err := range results {
			switch {
			case err == nil:
				wins++
			case errs.Is(err, errs.ErrBiz):
				conflicts++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		assert.Equal(t, 1, wins, "round %d", round)
		assert.Equal(t, 1, conflicts, "round %d", round)

		logs, err := db.GetAuditLogsBySpotIDCtx(ctx, spot.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1, "round %d", round)
		assert.Contains(t, []domain.AuditAction{domain.ActionApproved, domain.ActionRejected}, logs[0].Action)
	}
}

// moderateInParallel approves and rejects the same spot at once.
func moderateInParallel(ctx context.Context, svc *spots.Service, id int64) []error {
	results := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, results[0] = svc.Approve(ctx, id, 1, "")
	}()
	go func() {
		defer wg.Done()
		<-start
		_, results[1] = svc.Reject(ctx, id, 2, "not a builder spot")
	}()
	close(start)
	wg.Wait()
	return results
}
