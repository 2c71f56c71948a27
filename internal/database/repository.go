package database

import (
	"errors"
	"fmt"

	"land-scout/internal/models"
)

// PersistenceError wraps a storage failure surfaced to the caller. The
// engine never retries; retry policy belongs to the orchestrator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrNotFound reports a missing property.
var ErrNotFound = errors.New("property not found")

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Statistics summarizes the current store, mirroring what the status
// report and the reporting API expose.
type Statistics struct {
	ActiveTotal int64              `json:"active_total"`
	ByGrade     map[string]int64   `json:"by_grade"`
	TopRanked   []models.Property  `json:"top_ranked"`
	LastRun     *models.RunLog     `json:"last_run,omitempty"`
}

// Store is the full surface a repository backend provides: the
// engine's load/commit pair plus the read side used by the CLI status
// command and the reporting API.
type Store interface {
	LoadActive() ([]models.Property, error)
	Commit(run *models.RunLog, batch []models.Property, changes models.ChangeSet) error

	ActiveProperties(grade string, limit int) ([]models.Property, error)
	GetProperty(id string) (*models.Property, error)
	PriceHistory(propertyID string, limit int) ([]models.PricePoint, error)
	RecentRuns(limit int) ([]models.RunLog, error)
	GetStatistics(topN int) (*Statistics, error)

	Close() error
}
