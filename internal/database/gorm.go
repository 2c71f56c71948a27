package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"land-scout/internal/models"
)

// GormRepository persists engine state through GORM. SQLite is the
// default backend; MySQL is available for shared deployments.
type GormRepository struct {
	db *gorm.DB
}

var _ Store = (*GormRepository)(nil)

// NewSQLite opens (or creates) a SQLite store at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func NewSQLite(path string) (*GormRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, wrap("open sqlite", err)
	}

	repo := &GormRepository{db: db}
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewMySQL connects to MySQL and migrates the schema.
func NewMySQL(host, port, user, password, dbname string) (*GormRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, wrap("open mysql", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrap("open mysql", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, wrap("ping mysql", err)
	}

	repo := &GormRepository{db: db}
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewFromDB wraps an existing gorm.DB without migrating.
func NewFromDB(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the tables.
func (r *GormRepository) Migrate() error {
	return wrap("migrate", r.db.AutoMigrate(
		&models.Property{},
		&models.PricePoint{},
		&models.RunLog{},
	))
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return wrap("close", err)
	}
	return wrap("close", sqlDB.Close())
}

// LoadActive returns exactly the active properties, ordered by id so a
// run always sees a deterministic snapshot.
func (r *GormRepository) LoadActive() ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("is_active = ?", true).Order("property_id").Find(&properties).Error
	return properties, wrap("load active", err)
}

// Commit applies one run atomically. Re-committing a run id that is
// already recorded is a no-op, and the unique (property_id,
// observed_at) key keeps price history free of duplicates either way.
func (r *GormRepository) Commit(run *models.RunLog, batch []models.Property, changes models.ChangeSet) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var applied int64
		if err := tx.Model(&models.RunLog{}).Where("run_id = ?", run.RunID).Count(&applied).Error; err != nil {
			return err
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

		for i := range batch {
			p := batch[i]

			var existing models.Property
			res := tx.Where("property_id = ?", p.PropertyID).First(&existing)
			switch {
			case errors.Is(res.Error, gorm.ErrRecordNotFound):
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
			case res.Error != nil:
				return res.Error
			default:
				// The row may be a reactivation of a delisted
				// property: replace the current state but keep the
				// original lifecycle timestamps.
				p.FirstSeenAt = existing.FirstSeenAt
				p.CreatedAt = existing.CreatedAt
				p.Reactivate()
				if err := tx.Save(&p).Error; err != nil {
					return err
				}
			}

			if appendPoint[p.PropertyID] {
				point := models.PricePoint{
					PropertyID: p.PropertyID,
					Price:      p.PriceNumeric,
					ObservedAt: p.LastSeenAt,
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&point).Error; err != nil {
					return err
				}
			}
		}

		if len(changes.Removed) > 0 {
			if err := tx.Model(&models.Property{}).
				Where("property_id IN ?", changes.Removed).
				Updates(map[string]interface{}{
					"is_active":   false,
					"delisted_at": run.FinishedAt,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Create(run).Error
	})
	return wrap("commit", err)
}

// ActiveProperties lists active properties best-first, optionally
// restricted to one grade.
func (r *GormRepository) ActiveProperties(grade string, limit int) ([]models.Property, error) {
	query := r.db.Where("is_active = ?", true)
	if grade != "" {
		query = query.Where("grade = ?", grade)
	}
	query = query.Order("total_score DESC, property_id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var properties []models.Property
	err := query.Find(&properties).Error
	return properties, wrap("active properties", err)
}

// GetProperty returns one property by id, active or not.
func (r *GormRepository) GetProperty(id string) (*models.Property, error) {
	var property models.Property
	err := r.db.Where("property_id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get property", err)
	}
	return &property, nil
}

// PriceHistory returns the price points for a property, oldest first.
func (r *GormRepository) PriceHistory(propertyID string, limit int) ([]models.PricePoint, error) {
	query := r.db.Where("property_id = ?", propertyID).Order("observed_at")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var points []models.PricePoint
	err := query.Find(&points).Error
	return points, wrap("price history", err)
}

// RecentRuns returns the latest run logs, newest first.
func (r *GormRepository) RecentRuns(limit int) ([]models.RunLog, error) {
	query := r.db.Order("finished_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.RunLog
	err := query.Find(&runs).Error
	return runs, wrap("recent runs", err)
}

// GetStatistics summarizes the store for the status report.
func (r *GormRepository) GetStatistics(topN int) (*Statistics, error) {
	stats := &Statistics{ByGrade: make(map[string]int64)}

	if err := r.db.Model(&models.Property{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveTotal).Error; err != nil {
		return nil, wrap("statistics", err)
	}

	type gradeCount struct {
		Grade string
		Count int64
	}
	var counts []gradeCount
	if err := r.db.Model(&models.Property{}).
		Select("grade, COUNT(*) as count").
		Where("is_active = ?", true).
		Group("grade").
		Scan(&counts).Error; err != nil {
		return nil, wrap("statistics", err)
	}
	for _, gc := range counts {
		stats.ByGrade[gc.Grade] = gc.Count
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
