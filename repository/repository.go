package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/flexkraft/esmod/results"
)

// Repository archives solved runs to a local SQLite file, so a series of
// scenario studies can be compared later without re-reading output dirs.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredRun{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) AddRun(meta results.Metadata) error {
	run := newStoredRun(meta)
	result := r.db.Create(&run)
	return result.Error
}

// GetRuns lists archived runs, most recent first.
func (r *Repository) GetRuns(limit int) ([]StoredRun, error) {
	var runs []StoredRun

	result := r.db.Limit(limit).Order("started_at desc").Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}

// GetRunsForScenario lists archived runs of one scenario, most recent first.
func (r *Repository) GetRunsForScenario(scenario string, limit int) ([]StoredRun, error) {
	var runs []StoredRun

	result := r.db.Limit(limit).Order("started_at desc").
		Where("scenario = ?", scenario).Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}
