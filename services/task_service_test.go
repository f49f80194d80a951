package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories/memstore"
)

func newTaskService(tm *team, tasks *memstore.Tasks, n TaskNotifier) *TaskService {
	s := NewTaskService(tasks, tm.users, n)
	s.now = func() time.Time { return fixedNow }
	return s
}

func createReq(assignees ...models.User) models.TaskCreateRequest {
	req := models.TaskCreateRequest{
		Title:    "Call customers",
		Priority: models.PriorityHigh,
		DueDate:  fixedNow.AddDate(0, 0, 7),
	}
	for _, u := range assignees {
		req.AssigneeIDs = append(req.AssigneeIDs, u.ID.Hex())
	}
	return req
}

func TestCreateTasks(t *testing.T) {
	tm := newTeam()
	rec := &recordingNotifier{}
	s := newTaskService(tm, memstore.NewTasks(), rec)
	ctx := context.Background()

	tasks, err := s.Create(ctx, viewerOf(tm.admin), createReq(tm.mbA, tm.mgrB, tm.mbA))
	require.NoError(t, err)
	require.Len(t, tasks, 2, "duplicate assignees collapse")
	assert.Equal(t, tm.mbA.Snapshot(), tasks[0].AssignedTo)
	assert.Equal(t, tm.admin.Snapshot(), tasks[0].CreatedBy)
	assert.Equal(t, models.TaskPending, tasks[0].Status)
	assert.False(t, tasks[0].Locked)
	assert.Len(t, rec.tasks, 2)

	_, err = s.Create(ctx, viewerOf(tm.mgrA), createReq(tm.mbA))
	requireAppError(t, err, apperror.TypeForbidden)

	_, err = s.Create(ctx, viewerOf(tm.admin), createReq(tm.kunde))
	ae := requireAppError(t, err, apperror.TypeValidation)
	assert.Equal(t, "assigneeIds[0]", ae.Fields[0].Field)

	req := createReq()
	req.AssigneeIDs = []string{primitive.NewObjectID().Hex()}
	_, err = s.Create(ctx, viewerOf(tm.admin), req)
	requireAppError(t, err, apperror.TypeValidation)
}

func TestCreateLockedTask(t *testing.T) {
	tm := newTeam()
	store := memstore.NewTasks()
	s := newTaskService(tm, store, nil)
	ctx := context.Background()

	req := createReq(tm.mbA)
	req.UnlockDate = timep(fixedNow.AddDate(0, 0, 3).Add(5 * time.Hour))
	tasks, err := s.Create(ctx, viewerOf(tm.admin), req)
	require.NoError(t, err)
	assert.True(t, tasks[0].Locked)
	assert.Equal(t, models.StartOfDay(*req.UnlockDate), *tasks[0].UnlockDate)

	// an unlock date of today starts unlocked
	req.UnlockDate = timep(fixedNow)
	tasks, err = s.Create(ctx, viewerOf(tm.admin), req)
	require.NoError(t, err)
	assert.False(t, tasks[0].Locked)

	// locked tasks are hidden from the default listing
	res, err := s.List(ctx, viewerOf(tm.admin), models.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	res, err = s.List(ctx, viewerOf(tm.admin), models.TaskQuery{Locked: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
}

func TestTaskVisibility(t *testing.T) {
	tm := newTeam()
	s := newTaskService(tm, memstore.NewTasks(), nil)
	ctx := context.Background()

	tasks, err := s.Create(ctx, viewerOf(tm.admin), createReq(tm.mbA, tm.mbB, tm.mgrA))
	require.NoError(t, err)

	res, err := s.List(ctx, viewerOf(tm.mgrA), models.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total, "own task plus the managed ambassador's")

	res, err = s.List(ctx, viewerOf(tm.mbB), models.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = s.List(ctx, viewerOf(tm.kunde), models.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)

	_, err = s.Get(ctx, viewerOf(tm.mgrA), tasks[1].ID)
	requireAppError(t, err, apperror.TypeNotFound)
}

func TestUpdateTaskAsAssignee(t *testing.T) {
	tm := newTeam()
	s := newTaskService(tm, memstore.NewTasks(), nil)
	ctx := context.Background()

	tasks, err := s.Create(ctx, viewerOf(tm.admin), createReq(tm.mbA))
	require.NoError(t, err)
	id := tasks[0].ID

	got, err := s.UpdateStatus(ctx, viewerOf(tm.mbA), id, models.TaskInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, got.Status)

	_, err = s.Update(ctx, viewerOf(tm.mbA), id, models.TaskPatch{Title: strp("Mine now")})
	ae := requireAppError(t, err, apperror.TypeForbidden)
	assert.Equal(t, "Field not allowed for your role: title", ae.Message)

	// the manager sees the task but is not its assignee
	_, err = s.UpdateStatus(ctx, viewerOf(tm.mgrA), id, models.TaskDone)
	requireAppError(t, err, apperror.TypeForbidden)

	got, err = s.Update(ctx, viewerOf(tm.admin), id, models.TaskPatch{Title: strp("Renamed"), UnlockDate: timep(fixedNow.AddDate(0, 0, 2))})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.True(t, got.Locked)
}

func TestLockedTaskRejectsAssigneeChanges(t *testing.T) {
	tm := newTeam()
	tasks := memstore.NewTasks()
	s := newTaskService(tm, tasks, nil)
	ctx := context.Background()

	req := createReq(tm.mbA)
	req.UnlockDate = timep(fixedNow.AddDate(0, 0, 3))
	created, err := s.Create(ctx, viewerOf(tm.admin), req)
	require.NoError(t, err)
	id := created[0].ID

	_, err = s.UpdateStatus(ctx, viewerOf(tm.mbA), id, models.TaskDone)
	ae := requireAppError(t, err, apperror.TypeForbidden)
	assert.Equal(t, "Task is locked until 2025-03-13", ae.Message)

	stored, err := tasks.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, stored.Status)

	// after the unlock sweep the assignee can work on it
	res, err := NewSweeper(tasks).Run(ctx, fixedNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Unlocked)

	got, err := s.UpdateStatus(ctx, viewerOf(tm.mbA), id, models.TaskDone)
	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, got.Status)
	assert.False(t, got.Locked)

	// admins keep full control of locked tasks
	locked, err := s.Create(ctx, viewerOf(tm.admin), req)
	require.NoError(t, err)
	got, err = s.UpdateStatus(ctx, viewerOf(tm.admin), locked[0].ID, models.TaskInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, got.Status)
}

func TestBulkTaskOperations(t *testing.T) {
	tm := newTeam()
	store := memstore.NewTasks()
	s := newTaskService(tm, store, nil)
	ctx := context.Background()

	tasks, err := s.Create(ctx, viewerOf(tm.admin), createReq(tm.mbA, tm.mbB))
	require.NoError(t, err)
	ids := []string{tasks[0].ID.Hex(), tasks[1].ID.Hex(), primitive.NewObjectID().Hex()}

	up, err := s.BulkUpdate(ctx, models.BulkTaskUpdateRequest{IDs: ids, Priority: strp(models.PriorityLow)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), up.MatchedCount)
	assert.Equal(t, int64(2), up.ModifiedCount)

	_, err = s.BulkUpdate(ctx, models.BulkTaskUpdateRequest{IDs: ids})
	requireAppError(t, err, apperror.TypeValidation)

	del, err := s.BulkDelete(ctx, models.BulkTaskDeleteRequest{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, int64(2), del.DeletedCount)
	assert.Empty(t, store.Snapshot())

	_, err = s.BulkDelete(ctx, models.BulkTaskDeleteRequest{IDs: []string{"nope"}})
	requireAppError(t, err, apperror.TypeValidation)
}

func TestTaskAssigneeStaleness(t *testing.T) {
	tm := newTeam()
	s := newTaskService(tm, memstore.NewTasks(), nil)
	ctx := context.Background()

	tasks, err := s.Create(ctx, viewerOf(tm.admin), createReq(tm.mbA))
	require.NoError(t, err)

	a, err := s.Assignee(ctx, viewerOf(tm.admin), tasks[0].ID)
	require.NoError(t, err)
	assert.False(t, a.Stale)

	_, err = tm.users.Update(ctx, tm.mbA.ID, map[string]interface{}{"surname": "Renamed"}, nil)
	require.NoError(t, err)
	a, err = s.Assignee(ctx, viewerOf(tm.admin), tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, a.Stale)
	assert.Equal(t, "mba Test", a.Snapshot.Name)
	assert.Equal(t, "mba Renamed", a.Current.FullName())

	_, err = tm.users.Delete(ctx, tm.mbA.ID)
	require.NoError(t, err)
	a, err = s.Assignee(ctx, viewerOf(tm.admin), tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, a.Stale)
	assert.Nil(t, a.Current)

	require.NoError(t, s.Delete(ctx, tasks[0].ID))
	requireAppError(t, s.Delete(ctx, tasks[0].ID), apperror.TypeNotFound)
}
