package repository

import (
	"time"

	"github.com/flexkraft/esmod/results"
)

// StoredRun is one solved scenario persisted to the SQLite archive.
type StoredRun struct {
	ID         string `gorm:"primaryKey"`
	Scenario   string
	StartedAt  time.Time
	FinishedAt time.Time

	Solver        string
	Status        string
	Objective     float64
	Iterations    int
	Nodes         int
	SolveTimeSecs float64

	Blocks      int
	Variables   int
	Binaries    int
	Constraints int
}

func newStoredRun(meta results.Metadata) StoredRun {
	return StoredRun{
		ID:            meta.RunID.String(),
		Scenario:      meta.Scenario,
		StartedAt:     meta.StartedAt,
		FinishedAt:    meta.FinishedAt,
		Solver:        meta.Solver,
		Status:        string(meta.Status),
		Objective:     meta.Objective,
		Iterations:    meta.Iterations,
		Nodes:         meta.Nodes,
		SolveTimeSecs: meta.SolveTime.Seconds(),
		Blocks:        meta.Blocks,
		Variables:     meta.Variables,
		Binaries:      meta.Binaries,
		Constraints:   meta.Constraints,
	}
}
