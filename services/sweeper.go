package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/models"
)

// Sweeper runs the periodic task maintenance.
type Sweeper struct {
	tasks TaskStore
}

func NewSweeper(tasks TaskStore) *Sweeper {
	return &Sweeper{tasks: tasks}
}

// Run unlocks due tasks and then marks overdue ones, both relative to the UTC day of now.
// A task unlocked in this run that is already past due is marked in the same run.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (models.SweepResult, error) {
	today := models.StartOfDay(now)
	var res models.SweepResult
	var err error

	if res.Unlocked, err = s.tasks.UnlockDue(ctx, today); err != nil {
		return res, storeErr("Tasks", err)
	}
	if res.MarkedOverdue, err = s.tasks.MarkOverdue(ctx, today); err != nil {
		return res, storeErr("Tasks", err)
	}
	log.Info().
		Time("today", today).
		Int64("unlocked", res.Unlocked).
		Int64("marked_overdue", res.MarkedOverdue).
		Msg("task sweep finished")
	return res, nil
}
