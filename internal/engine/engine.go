package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"land-scout/internal/models"
	"land-scout/internal/scoring"
)

// Repository is the durable store the engine reconciles against. Both
// calls of one run must observe the same snapshot; Commit is atomic
// per run and idempotent with respect to price history.
type Repository interface {
	// LoadActive returns exactly the properties with is_active=true.
	LoadActive() ([]models.Property, error)

	// Commit applies one run's outcome: upsert current fields for the
	// batch, append price points for new and repriced ids, deactivate
	// removed ids, and record the run log — all or nothing.
	Commit(run *models.RunLog, batch []models.Property, changes models.ChangeSet) error
}

// SkippedListing names a batch record the engine refused to score.
type SkippedListing struct {
	PropertyID string `json:"property_id"`
	Reason     string `json:"reason"`
}

// Result is the outcome of one run, handed to the exporter/notifier
// layer. Scores carries the evaluation for every new and repriced
// property; filtering by grade is the consumer's business.
type Result struct {
	RunID   string
	Changes models.ChangeSet
	Scores  map[string]scoring.Score
	Skipped []SkippedListing
	RunLog  models.RunLog
}

// Engine runs one scoring and reconciliation cycle per invocation. It
// is a single-threaded batch step: the caller schedules it and owns
// any retry policy.
type Engine struct {
	scorer *scoring.Scorer
	repo   Repository
}

// New builds an Engine from a validated scorer and a repository.
func New(scorer *scoring.Scorer, repo Repository) *Engine {
	return &Engine{scorer: scorer, repo: repo}
}

// Run scores a batch of normalized listings, diffs it against the
// previously active properties and commits the result. Listings that
// cannot be scored for lack of required data are skipped and counted,
// never silently defaulted.
func (e *Engine) Run(batch []models.Listing) (*Result, error) {
	startedAt := time.Now()
	runID := uuid.NewString()

	// Intra-batch duplicates must be resolved before scoring so the
	// classification sees one record per id.
	deduped := Dedupe(batch)

	scored := make([]models.Property, 0, len(deduped))
	scores := make(map[string]scoring.Score, len(deduped))
	var skipped []SkippedListing

	for _, l := range deduped {
		sc, err := e.scorer.Score(l)
		if err != nil {
			var insufficient *scoring.InsufficientDataError
			if errors.As(err, &insufficient) {
				log.Printf("Engine: skipping %s: %v", l.PropertyID, err)
				skipped = append(skipped, SkippedListing{PropertyID: l.PropertyID, Reason: err.Error()})
				continue
			}
			return nil, fmt.Errorf("score %s: %w", l.PropertyID, err)
		}
		scored = append(scored, buildProperty(l, sc))
		scores[l.PropertyID] = sc
	}

	priorActive, err := e.repo.LoadActive()
	if err != nil {
		return nil, err
	}

	changes := Detect(scored, priorActive)

	finishedAt := time.Now()
	runLog := models.RunLog{
		RunID:             runID,
		StartedAt:         startedAt,
		FinishedAt:        finishedAt,
		TotalListings:     len(scored),
		NewCount:          len(changes.New),
		PriceChangedCount: len(changes.PriceChanged),
		RemovedCount:      len(changes.Removed),
		UnchangedCount:    len(changes.Unchanged),
		SkippedCount:      len(skipped),
		Status:            models.RunStatusCompleted,
		Message:           fmt.Sprintf("%d listings processed", len(scored)),
		DurationSeconds:   finishedAt.Sub(startedAt).Seconds(),
	}

	if err := e.repo.Commit(&runLog, scored, changes); err != nil {
		return nil, err
	}

	// Only the scores the exporter can act on: new and repriced ids.
	forwarded := make(map[string]scoring.Score, len(changes.New)+len(changes.PriceChanged))
	for _, id := range changes.New {
		forwarded[id] = scores[id]
	}
	for id := range changes.PriceChanged {
		forwarded[id] = scores[id]
	}

	return &Result{
		RunID:   runID,
		Changes: changes,
		Scores:  forwarded,
		Skipped: skipped,
		RunLog:  runLog,
	}, nil
}

// buildProperty folds one observation and its score into the current
// persisted shape. FirstSeenAt is provisional; the repository keeps
// the stored value when the row already exists.
func buildProperty(l models.Listing, sc scoring.Score) models.Property {
	return models.Property{
		PropertyID:         l.PropertyID,
		URL:                l.URL,
		Title:              l.Title,
		PriceNumeric:       l.PriceNumeric,
		Address:            l.Address,
		LandAreaTsubo:      l.LandAreaTsubo,
		BuildingCoverage:   l.BuildingCoverage,
		FloorAreaRatio:     l.FloorAreaRatio,
		ZoneType:           l.ZoneType,
		StationWalkMinutes: l.StationWalkMinutes,

		PriceScore:      sc.PriceScore,
		LocationScore:   sc.LocationScore,
		AreaScore:       sc.AreaScore,
		InvestmentScore: sc.InvestmentScore,
		TotalScore:      sc.TotalScore,
		Grade:           string(sc.Grade),

		IsActive:    true,
		FirstSeenAt: l.ObservedAt,
		LastSeenAt:  l.ObservedAt,
	}
}
