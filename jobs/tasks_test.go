package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/teamboard_backend/models"
)

type fakeRunner struct {
	mu   sync.Mutex
	seen []time.Time
	err  error
}

func (f *fakeRunner) Run(_ context.Context, now time.Time) (models.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, now)
	return models.SweepResult{Unlocked: 1}, f.err
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestSweepJobHandle(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSweepJob(runner)
	fixed := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewSweepTask(SweepPayload{})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSweep, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))

	pinned := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	task, err = NewSweepTask(SweepPayload{At: &pinned})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []time.Time{fixed, pinned}, runner.seen)
}

func TestSweepJobErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("mongo down")}
	job := NewSweepJob(runner)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, runner.calls())

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSweep, nil))
	assert.EqualError(t, err, "mongo down")

	var nilJob *SweepJob
	assert.Error(t, nilJob.Handle(context.Background(), asynq.NewTask(TaskTypeSweep, nil)))
}

func TestRunTicker(t *testing.T) {
	runner := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunTicker(ctx, runner, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runner.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestNewWorker(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}

	_, err := NewWorker(WorkerConfig{RedisOpts: opts})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Sweep: NewSweepJob(&fakeRunner{}), SweepCron: "not a cron"})
	assert.Error(t, err)

	w, err := NewWorker(WorkerConfig{RedisOpts: opts, Sweep: NewSweepJob(&fakeRunner{}), SweepCron: "0 6 * * 1"})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)
}
