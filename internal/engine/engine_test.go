package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"land-scout/internal/models"
	"land-scout/internal/scoring"
)

type fakeRepo struct {
	active []models.Property

	loadErr   error
	commitErr error

	committedRun     *models.RunLog
	committedBatch   []models.Property
	committedChanges models.ChangeSet
	commitCalls      int
}

func (f *fakeRepo) LoadActive() ([]models.Property, error) {
	return f.active, f.loadErr
}

func (f *fakeRepo) Commit(run *models.RunLog, batch []models.Property, changes models.ChangeSet) error {
	f.commitCalls++
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committedRun = run
	f.committedBatch = batch
	f.committedChanges = changes
	return nil
}

func newTestEngine(t *testing.T, repo Repository) *Engine {
	t.Helper()
	scorer, err := scoring.NewScorer(scoring.DefaultScoringConfig())
	require.NoError(t, err)
	return New(scorer, repo)
}

func scoredListing(id string, price int, tsubo float64) models.Listing {
	return models.Listing{
		PropertyID:    id,
		PriceNumeric:  price,
		Address:       "大分市",
		LandAreaTsubo: &tsubo,
		ObservedAt:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestEngine_Run(t *testing.T) {
	t.Run("full cycle classifies, commits and forwards scores", func(t *testing.T) {
		repo := &fakeRepo{active: []models.Property{
			property("P1", 1500),
			property("P2", 3000),
			property("P3", 2200),
		}}
		engine := newTestEngine(t, repo)

		batch := []models.Listing{
			scoredListing("P1", 1400, 100), // repriced
			scoredListing("P2", 3000, 80),  // unchanged
			scoredListing("P4", 980, 45),   // new
		}

		result, err := engine.Run(batch)
		require.NoError(t, err)

		assert.Equal(t, []string{"P4"}, result.Changes.New)
		assert.Contains(t, result.Changes.PriceChanged, "P1")
		assert.Equal(t, []string{"P2"}, result.Changes.Unchanged)
		assert.Equal(t, []string{"P3"}, result.Changes.Removed)

		// Scores are forwarded for new and repriced ids only.
		assert.Len(t, result.Scores, 2)
		assert.Contains(t, result.Scores, "P1")
		assert.Contains(t, result.Scores, "P4")
		assert.NotContains(t, result.Scores, "P2")

		require.NotNil(t, repo.committedRun)
		assert.Equal(t, result.RunID, repo.committedRun.RunID)
		assert.Len(t, repo.committedBatch, 3)
	})

	t.Run("insufficient listings are skipped and counted", func(t *testing.T) {
		repo := &fakeRepo{}
		engine := newTestEngine(t, repo)

		batch := []models.Listing{
			scoredListing("P1", 1500, 100),
			{PropertyID: "P2", PriceNumeric: 0}, // no price
			{PropertyID: "P3", PriceNumeric: 800}, // no land area
		}

		result, err := engine.Run(batch)
		require.NoError(t, err)

		require.Len(t, result.Skipped, 2)
		assert.Equal(t, "P2", result.Skipped[0].PropertyID)
		assert.Equal(t, "P3", result.Skipped[1].PropertyID)
		assert.Equal(t, 2, result.RunLog.SkippedCount)
		assert.Equal(t, 1, result.RunLog.TotalListings)
		assert.Equal(t, []string{"P1"}, result.Changes.New)
	})

	t.Run("duplicate ids are collapsed before classification", func(t *testing.T) {
		repo := &fakeRepo{}
		engine := newTestEngine(t, repo)

		batch := []models.Listing{
			scoredListing("P1", 1500, 100),
			scoredListing("P1", 1400, 100),
		}

		result, err := engine.Run(batch)
		require.NoError(t, err)

		require.Len(t, repo.committedBatch, 1)
		assert.Equal(t, 1400, repo.committedBatch[0].PriceNumeric)
		assert.Equal(t, []string{"P1"}, result.Changes.New)
	})

	t.Run("run log counts mirror the change set", func(t *testing.T) {
		repo := &fakeRepo{active: []models.Property{property("P1", 1500)}}
		engine := newTestEngine(t, repo)

		result, err := engine.Run([]models.Listing{scoredListing("P2", 900, 60)})
		require.NoError(t, err)

		rl := result.RunLog
		assert.Equal(t, models.RunStatusCompleted, rl.Status)
		assert.Equal(t, 1, rl.TotalListings)
		assert.Equal(t, 1, rl.NewCount)
		assert.Equal(t, 0, rl.PriceChangedCount)
		assert.Equal(t, 1, rl.RemovedCount)
		assert.Equal(t, 0, rl.UnchangedCount)
		assert.False(t, rl.FinishedAt.Before(rl.StartedAt))
	})

	t.Run("load error aborts before commit", func(t *testing.T) {
		repo := &fakeRepo{loadErr: errors.New("connection refused")}
		engine := newTestEngine(t, repo)

		_, err := engine.Run([]models.Listing{scoredListing("P1", 1500, 100)})
		require.Error(t, err)
		assert.Zero(t, repo.commitCalls)
	})

	t.Run("commit error propagates", func(t *testing.T) {
		repo := &fakeRepo{commitErr: errors.New("disk full")}
		engine := newTestEngine(t, repo)

		_, err := engine.Run([]models.Listing{scoredListing("P1", 1500, 100)})
		require.Error(t, err)
		assert.Equal(t, 1, repo.commitCalls)
	})

	t.Run("run ids are unique per invocation", func(t *testing.T) {
		repo := &fakeRepo{}
		engine := newTestEngine(t, repo)

		first, err := engine.Run(nil)
		require.NoError(t, err)
		second, err := engine.Run(nil)
		require.NoError(t, err)
		assert.NotEqual(t, first.RunID, second.RunID)
	})
}
