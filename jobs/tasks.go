package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/models"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSweep unlocks due tasks and marks overdue ones.
	TaskTypeSweep = "sweep:tasks"
)

// SweepPayload pins the day a sweep runs for. A nil At means the time the job runs.
type SweepPayload struct {
	At *time.Time `json:"at,omitempty"`
}

// NewSweepTask constructs an Asynq task.
func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSweep, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// SweepRunner is implemented by services.Sweeper.
type SweepRunner interface {
	Run(ctx context.Context, now time.Time) (models.SweepResult, error)
}

// SweepJob handles TaskTypeSweep.
type SweepJob struct {
	runner SweepRunner
	clock  func() time.Time
}

func NewSweepJob(runner SweepRunner) *SweepJob {
	return &SweepJob{
		runner: runner,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one sweep.
func (j *SweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.runner == nil {
		return errors.New("sweep: handler not configured")
	}
	var payload SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			log.Error().Err(err).Str("task", t.Type()).Msg("invalid sweep payload")
			return fmt.Errorf("decode sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	at := j.clock()
	if payload.At != nil {
		at = *payload.At
	}
	res, err := j.runner.Run(ctx, at)
	if err != nil {
		log.Error().Err(err).Time("at", at).Msg("sweep failed")
		return err
	}
	log.Info().Int64("unlocked", res.Unlocked).Int64("marked_overdue", res.MarkedOverdue).Msg("sweep job done")
	return nil
}

// RunTicker runs the sweep every interval until ctx is done. It is used when no
// Redis is available for the scheduler.
func RunTicker(ctx context.Context, runner SweepRunner, interval time.Duration) {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	log.Info().Dur("interval", interval).Msg("sweep ticker started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := runner.Run(ctx, now.UTC()); err != nil {
				log.Error().Err(err).Msg("scheduled sweep failed")
			}
		}
	}
}
