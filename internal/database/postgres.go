package database

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"land-scout/internal/models"
)

// PostgresRepository persists engine state through database/sql and
// lib/pq, for deployments that already run Postgres.
type PostgresRepository struct {
	conn *sql.DB
	sb   sq.StatementBuilderType
}

var _ Store = (*PostgresRepository)(nil)

var propertyColumns = []string{
	"property_id", "url", "title",
	"price_numeric", "address", "land_area_tsubo",
	"building_coverage", "floor_area_ratio", "zone_type", "station_walk_minutes",
	"price_score", "location_score", "area_score", "investment_score", "total_score", "grade",
	"is_active", "delisted_at", "first_seen_at", "last_seen_at",
}

// NewPostgres connects to PostgreSQL and initializes the schema.
func NewPostgres(host, port, user, password, dbname, sslmode string) (*PostgresRepository, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, wrap("open postgres", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, wrap("ping postgres", err)
	}

	repo := &PostgresRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := repo.InitSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) Close() error {
	return wrap("close", r.conn.Close())
}

// InitSchema creates the tables if they don't exist.
func (r *PostgresRepository) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		property_id VARCHAR(64) PRIMARY KEY,
		url VARCHAR(500) NOT NULL,
		title TEXT NOT NULL,

		price_numeric INTEGER NOT NULL,
		address TEXT,
		land_area_tsubo DECIMAL(10, 2),
		building_coverage DECIMAL(5, 1),
		floor_area_ratio DECIMAL(6, 1),
		zone_type VARCHAR(100),
		station_walk_minutes INTEGER,

		price_score DECIMAL(5, 2),
		location_score DECIMAL(5, 2),
		area_score DECIMAL(5, 2),
		investment_score DECIMAL(5, 2),
		total_score DECIMAL(5, 2),
		grade VARCHAR(1),

		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		delisted_at TIMESTAMP,
		first_seen_at TIMESTAMP NOT NULL,
		last_seen_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_is_active ON properties(is_active);
	CREATE INDEX IF NOT EXISTS idx_properties_grade ON properties(grade);
	CREATE INDEX IF NOT EXISTS idx_properties_total_score ON properties(total_score DESC);

	CREATE TABLE IF NOT EXISTS price_points (
		id BIGSERIAL PRIMARY KEY,
		property_id VARCHAR(64) NOT NULL,
		price INTEGER NOT NULL,
		observed_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (property_id, observed_at)
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL UNIQUE,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		total_listings INTEGER NOT NULL DEFAULT 0,
		new_count INTEGER NOT NULL DEFAULT 0,
		price_changed_count INTEGER NOT NULL DEFAULT 0,
		removed_count INTEGER NOT NULL DEFAULT 0,
		unchanged_count INTEGER NOT NULL DEFAULT 0,
		skipped_count INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL,
		message TEXT,
		duration_seconds DECIMAL(10, 3)
	);

	CREATE INDEX IF NOT EXISTS idx_run_logs_finished_at ON run_logs(finished_at DESC);
	`
	_, err := r.conn.Exec(query)
	return wrap("init schema", err)
}

// LoadActive returns exactly the active properties, ordered by id.
func (r *PostgresRepository) LoadActive() ([]models.Property, error) {
	query := r.sb.Select(propertyColumns...).
		From("properties").
		Where(sq.Eq{"is_active": true}).
		OrderBy("property_id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, wrap("load active", err)
	}

	rows, err := r.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, wrap("load active", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// Commit applies one run inside a single transaction. A run id that is
// already recorded short-circuits to a no-op, and price points carry a
// unique key so a replay cannot duplicate history.
func (r *PostgresRepository) Commit(run *models.RunLog, batch []models.Property, changes models.ChangeSet) error {
	tx, err := r.conn.Begin()
	if err != nil {
		return wrap("commit", err)
	}
	defer tx.Rollback()

	var applied int
	err = tx.QueryRow("SELECT COUNT(*) FROM run_logs WHERE run_id = $1", run.RunID).Scan(&applied)
	if err != nil {
		return wrap("commit", err)
	}
	if applied > 0 {
		return nil
	}

	appendPoint := make(map[string]bool, len(changes.New)+len(changes.PriceChanged))
	for _, id := range changes.New {
		appendPoint[id] = true
	}
	for id := range changes.PriceChanged {
		appendPoint[id] = true
	}

	upsert := `
	INSERT INTO properties (
		property_id, url, title,
		price_numeric, address, land_area_tsubo,
		building_coverage, floor_area_ratio, zone_type, station_walk_minutes,
		price_score, location_score, area_score, investment_score, total_score, grade,
		is_active, delisted_at, first_seen_at, last_seen_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, TRUE, NULL, $17, $18)
	ON CONFLICT (property_id) DO UPDATE SET
		url = EXCLUDED.url,
		title = EXCLUDED.title,
		price_numeric = EXCLUDED.price_numeric,
		address = EXCLUDED.address,
		land_area_tsubo = EXCLUDED.land_area_tsubo,
		building_coverage = EXCLUDED.building_coverage,
		floor_area_ratio = EXCLUDED.floor_area_ratio,
		zone_type = EXCLUDED.zone_type,
		station_walk_minutes = EXCLUDED.station_walk_minutes,
		price_score = EXCLUDED.price_score,
		location_score = EXCLUDED.location_score,
		area_score = EXCLUDED.area_score,
		investment_score = EXCLUDED.investment_score,
		total_score = EXCLUDED.total_score,
		grade = EXCLUDED.grade,
		is_active = TRUE,
		delisted_at = NULL,
		last_seen_at = EXCLUDED.last_seen_at,
		updated_at = NOW()
	`

	for i := range batch {
		p := &batch[i]
		_, err := tx.Exec(upsert,
			p.PropertyID, p.URL, p.Title,
			p.PriceNumeric, p.Address, p.LandAreaTsubo,
			p.BuildingCoverage, p.FloorAreaRatio, p.ZoneType, p.StationWalkMinutes,
			p.PriceScore, p.LocationScore, p.AreaScore, p.InvestmentScore, p.TotalScore, p.Grade,
			p.FirstSeenAt, p.LastSeenAt)
		if err != nil {
			return wrap("commit upsert", err)
		}

		if appendPoint[p.PropertyID] {
			_, err := tx.Exec(`
				INSERT INTO price_points (property_id, price, observed_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (property_id, observed_at) DO NOTHING`,
				p.PropertyID, p.PriceNumeric, p.LastSeenAt)
			if err != nil {
				return wrap("commit price point", err)
			}
		}
	}

	if len(changes.Removed) > 0 {
		_, err := tx.Exec(`
			UPDATE properties
			SET is_active = FALSE, delisted_at = $1, updated_at = NOW()
			WHERE property_id = ANY($2)`,
			run.FinishedAt, pq.StringArray(changes.Removed))
		if err != nil {
			return wrap("commit removals", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO run_logs (
			run_id, started_at, finished_at,
			total_listings, new_count, price_changed_count, removed_count, unchanged_count, skipped_count,
			status, message, duration_seconds
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.RunID, run.StartedAt, run.FinishedAt,
		run.TotalListings, run.NewCount, run.PriceChangedCount, run.RemovedCount, run.UnchangedCount, run.SkippedCount,
		run.Status, run.Message, run.DurationSeconds)
	if err != nil {
		return wrap("commit run log", err)
	}

	return wrap("commit", tx.Commit())
}

// ActiveProperties lists active properties best-first, optionally
// restricted to one grade.
func (r *PostgresRepository) ActiveProperties(grade string, limit int) ([]models.Property, error) {
	query := r.sb.Select(propertyColumns...).
		From("properties").
		Where(sq.Eq{"is_active": true}).
		OrderBy("total_score DESC", "property_id")
	if grade != "" {
		query = query.Where(sq.Eq{"grade": grade})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, wrap("active properties", err)
	}

	rows, err := r.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, wrap("active properties", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// GetProperty returns one property by id, active or not.
func (r *PostgresRepository) GetProperty(id string) (*models.Property, error) {
	query := r.sb.Select(propertyColumns...).
		From("properties").
		Where(sq.Eq{"property_id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, wrap("get property", err)
	}

	var p models.Property
	row := r.conn.QueryRow(sqlStr, args...)
	if err := scanProperty(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get property", err)
	}
	return &p, nil
}

// PriceHistory returns the price points for a property, oldest first.
func (r *PostgresRepository) PriceHistory(propertyID string, limit int) ([]models.PricePoint, error) {
	query := r.sb.Select("id", "property_id", "price", "observed_at", "created_at").
		From("price_points").
		Where(sq.Eq{"property_id": propertyID}).
		OrderBy("observed_at")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, wrap("price history", err)
	}

	rows, err := r.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, wrap("price history", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var pp models.PricePoint
		if err := rows.Scan(&pp.ID, &pp.PropertyID, &pp.Price, &pp.ObservedAt, &pp.CreatedAt); err != nil {
			return nil, wrap("price history", err)
		}
		points = append(points, pp)
	}
	return points, wrap("price history", rows.Err())
}

// RecentRuns returns the latest run logs, newest first.
func (r *PostgresRepository) RecentRuns(limit int) ([]models.RunLog, error) {
	query := r.sb.Select(
		"id", "run_id", "started_at", "finished_at",
		"total_listings", "new_count", "price_changed_count", "removed_count", "unchanged_count", "skipped_count",
		"status", "message", "duration_seconds").
		From("run_logs").
		OrderBy("finished_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, wrap("recent runs", err)
	}

	rows, err := r.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, wrap("recent runs", err)
	}
	defer rows.Close()

	var runs []models.RunLog
	for rows.Next() {
		var rl models.RunLog
		err := rows.Scan(
			&rl.ID, &rl.RunID, &rl.StartedAt, &rl.FinishedAt,
			&rl.TotalListings, &rl.NewCount, &rl.PriceChangedCount, &rl.RemovedCount, &rl.UnchangedCount, &rl.SkippedCount,
			&rl.Status, &rl.Message, &rl.DurationSeconds)
		if err != nil {
			return nil, wrap("recent runs", err)
		}
		runs = append(runs, rl)
	}
	return runs, wrap("recent runs", rows.Err())
}

// GetStatistics summarizes the store for the status report.
func (r *PostgresRepository) GetStatistics(topN int) (*Statistics, error) {
	stats := &Statistics{ByGrade: make(map[string]int64)}

	err := r.conn.QueryRow("SELECT COUNT(*) FROM properties WHERE is_active = TRUE").
		Scan(&stats.ActiveTotal)
	if err != nil {
		return nil, wrap("statistics", err)
	}

	rows, err := r.conn.Query(`
		SELECT grade, COUNT(*)
		FROM properties
		WHERE is_active = TRUE
		GROUP BY grade`)
	if err != nil {
		return nil, wrap("statistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var grade string
		var count int64
		if err := rows.Scan(&grade, &count); err != nil {
			return nil, wrap("statistics", err)
		}
		stats.ByGrade[grade] = count
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("statistics", err)
	}

	top, err := r.ActiveProperties("", topN)
	if err != nil {
		return nil, err
	}
	stats.TopRanked = top

	runs, err := r.RecentRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		stats.LastRun = &runs[0]
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner, p *models.Property) error {
	return row.Scan(
		&p.PropertyID, &p.URL, &p.Title,
		&p.PriceNumeric, &p.Address, &p.LandAreaTsubo,
		&p.BuildingCoverage, &p.FloorAreaRatio, &p.ZoneType, &p.StationWalkMinutes,
		&p.PriceScore, &p.LocationScore, &p.AreaScore, &p.InvestmentScore, &p.TotalScore, &p.Grade,
		&p.IsActive, &p.DelistedAt, &p.FirstSeenAt, &p.LastSeenAt)
}

func scanProperties(rows *sql.Rows) ([]models.Property, error) {
	var properties []models.Property
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, wrap("scan property", err)
		}
		properties = append(properties, p)
	}
	return properties, wrap("scan properties", rows.Err())
}
