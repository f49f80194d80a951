// controllers/admin_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/jobs"
	"github.com/HSouheill/teamboard_backend/services"
)

// SweepQueue enqueues a sweep on the job worker.
type SweepQueue interface {
	EnqueueSweep(ctx context.Context, payload jobs.SweepPayload) (*asynq.TaskInfo, error)
}

// AdminController exposes maintenance operations.
type AdminController struct {
	sweeper *services.Sweeper
	queue   SweepQueue
	now     func() time.Time
	timeout time.Duration
}

// NewAdminController builds the controller. queue may be nil when no worker runs.
func NewAdminController(sweeper *services.Sweeper, queue SweepQueue, timeout time.Duration) *AdminController {
	return &AdminController{sweeper: sweeper, queue: queue, now: time.Now, timeout: timeout}
}

// RunSweep runs the unlock and overdue sweep. With ?async=true it is queued on the
// worker instead and answered with 202.
func (ac *AdminController) RunSweep(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	async, err := queryBool(c, "async")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, ac.timeout)
	defer cancel()

	if async != nil && *async {
		if ac.queue == nil {
			return apperror.Unprocessable("No job worker is configured")
		}
		at := ac.now().UTC()
		info, err := ac.queue.EnqueueSweep(ctx, jobs.SweepPayload{At: &at})
		if err != nil {
			return apperror.Upstream("Failed to queue sweep", err)
		}
		log.Info().Str("by", v.ID.Hex()).Str("task_id", info.ID).Msg("task sweep queued")
		return respond(c, http.StatusAccepted, "Sweep queued", map[string]string{"taskId": info.ID})
	}

	res, err := ac.sweeper.Run(ctx, ac.now())
	if err != nil {
		return err
	}
	log.Info().Str("by", v.ID.Hex()).Msg("manual task sweep")
	return ok(c, "Sweep finished", res)
}
