package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/utils"
	"github.com/HSouheill/teamboard_backend/visibility"
)

// TaskNotifier is told about new assignments. Delivery is best effort.
type TaskNotifier interface {
	TaskAssigned(ctx context.Context, task models.Task)
}

// TaskService runs the task board.
type TaskService struct {
	tasks    TaskStore
	users    UserStore
	notifier TaskNotifier
	now      func() time.Time
}

func NewTaskService(tasks TaskStore, users UserStore, notifier TaskNotifier) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// taskScope resolves the task scope of viewer, loading a manager's ambassadors.
func taskScope(ctx context.Context, users UserStore, viewer models.Viewer) (visibility.TaskScope, error) {
	var managed []primitive.ObjectID
	if viewer.Role == models.RoleManager {
		ids, err := users.ManagedIDs(ctx, viewer.ID)
		if err != nil {
			return visibility.TaskScope{}, storeErr("Users", err)
		}
		managed = ids
	}
	return visibility.Tasks(viewer, managed), nil
}

// Create assigns one new task to every listed user.
func (s *TaskService) Create(ctx context.Context, actor models.Viewer, req models.TaskCreateRequest) ([]models.Task, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only admins can create tasks")
	}
	creator, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, storeErr("User", err)
	}

	seen := map[primitive.ObjectID]bool{}
	var assignees []models.User
	for i, raw := range req.AssigneeIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, apperror.Validation("Invalid assignee id", apperror.FieldError{Field: fieldIndex("assigneeIds", i), Reason: "objectid"})
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.users.FindByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Validation("Assignee does not exist", apperror.FieldError{Field: fieldIndex("assigneeIds", i), Reason: "exists"})
		}
		if err != nil {
			return nil, storeErr("User", err)
		}
		if u.Role == models.RoleKunde {
			return nil, apperror.Validation("Tasks cannot be assigned to customers", apperror.FieldError{Field: fieldIndex("assigneeIds", i), Reason: "role"})
		}
		assignees = append(assignees, *u)
	}

	now := s.now()
	var unlockDay *time.Time
	if req.UnlockDate != nil {
		d := models.StartOfDay(*req.UnlockDate)
		unlockDay = &d
	}
	locked := models.LockedUntil(unlockDay, now)
	batch := make([]*models.Task, 0, len(assignees))
	for _, u := range assignees {
		t := &models.Task{
			Title:       utils.CleanText(req.Title),
			Description: utils.CleanText(req.Description),
			Priority:    req.Priority,
			Status:      models.TaskPending,
			AssignedTo:  u.Snapshot(),
			CreatedBy:   creator.Snapshot(),
			DueDate:     req.DueDate.UTC(),
			Locked:      locked,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if unlockDay != nil {
			unlock := *unlockDay
			t.UnlockDate = &unlock
		}
		batch = append(batch, t)
	}
	if err := s.tasks.InsertMany(ctx, batch); err != nil {
		return nil, storeErr("Tasks", err)
	}

	out := make([]models.Task, len(batch))
	for i, t := range batch {
		out[i] = *t
		if s.notifier != nil {
			s.notifier.TaskAssigned(ctx, *t)
		}
	}
	log.Info().Int("count", len(out)).Bool("locked", locked).Str("actor", actor.ID.Hex()).Msg("tasks created")
	return out, nil
}

// Get returns a task in the viewer's scope, locked or not.
func (s *TaskService) Get(ctx context.Context, viewer models.Viewer, id primitive.ObjectID) (*models.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("Task", err)
	}
	scope, err := taskScope(ctx, s.users, viewer)
	if err != nil {
		return nil, err
	}
	if !scope.Match(*t) {
		return nil, apperror.NotFound("Task")
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, viewer models.Viewer, q models.TaskQuery) (models.PagedResult, error) {
	q.PageRequest = q.PageRequest.Normalize()
	scope, err := taskScope(ctx, s.users, viewer)
	if err != nil {
		return models.PagedResult{}, err
	}
	if scope.Empty() {
		return models.PagedResult{Items: []models.Task{}, Page: q.Page, Limit: q.Limit}, nil
	}
	items, total, err := s.tasks.List(ctx, scope, q)
	if err != nil {
		return models.PagedResult{}, storeErr("Tasks", err)
	}
	return models.PagedResult{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

var assigneeTaskFields = map[string]bool{"status": true}

// Update applies a patch. Admins may change every field; assignees only the status,
// and only once the task is unlocked.
func (s *TaskService) Update(ctx context.Context, actor models.Viewer, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, apperror.Validation("No fields to update")
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if !t.IsAssignee(actor) {
			return nil, apperror.Forbidden("Only the assignee can change this task")
		}
		// the unlock sweep resets status, so work on a locked task would be lost
		if t.Locked {
			msg := "Task is locked"
			if t.UnlockDate != nil {
				msg += " until " + t.UnlockDate.Format("2006-01-02")
			}
			return nil, apperror.Forbidden(msg)
		}
		if err := disallowed(fields, assigneeTaskFields); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !t.CanTransition(actor, *patch.Status) {
		return nil, apperror.Forbidden("Status change not allowed")
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = utils.CleanText(*patch.Title)
	}
	if patch.Description != nil {
		set["description"] = utils.CleanText(*patch.Description)
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.DueDate != nil {
		set["dueDate"] = patch.DueDate.UTC()
	}
	if patch.UnlockDate != nil {
		unlock := models.StartOfDay(*patch.UnlockDate)
		set["unlockDate"] = unlock
		set["locked"] = models.LockedUntil(&unlock, s.now())
	}

	updated, err := s.tasks.Update(ctx, id, set, nil)
	if err != nil {
		return nil, storeErr("Task", err)
	}
	return updated, nil
}

// UpdateStatus is a status-only patch.
func (s *TaskService) UpdateStatus(ctx context.Context, actor models.Viewer, id primitive.ObjectID, status string) (*models.Task, error) {
	return s.Update(ctx, actor, id, models.TaskPatch{Status: &status})
}

func parseIDs(raw []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for i, r := range raw {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, apperror.Validation("Invalid id", apperror.FieldError{Field: fieldIndex(field, i), Reason: "objectid"})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BulkUpdate applies the same change to many tasks and reports the affected counts.
func (s *TaskService) BulkUpdate(ctx context.Context, req models.BulkTaskUpdateRequest) (models.BulkUpdateResult, error) {
	ids, err := parseIDs(req.IDs, "ids")
	if err != nil {
		return models.BulkUpdateResult{}, err
	}
	set := bson.M{}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.Priority != nil {
		set["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		set["dueDate"] = req.DueDate.UTC()
	}
	if len(set) == 0 {
		return models.BulkUpdateResult{}, apperror.Validation("No fields to update")
	}
	res, err := s.tasks.UpdateMany(ctx, ids, set)
	if err != nil {
		return res, storeErr("Tasks", err)
	}
	log.Info().Int("requested", len(ids)).Int64("matched", res.MatchedCount).Int64("modified", res.ModifiedCount).Msg("bulk task update")
	return res, nil
}

// BulkDelete removes many tasks. Ids that do not exist are not an error.
func (s *TaskService) BulkDelete(ctx context.Context, req models.BulkTaskDeleteRequest) (models.BulkDeleteResult, error) {
	ids, err := parseIDs(req.IDs, "ids")
	if err != nil {
		return models.BulkDeleteResult{}, err
	}
	n, err := s.tasks.DeleteMany(ctx, ids)
	if err != nil {
		return models.BulkDeleteResult{}, storeErr("Tasks", err)
	}
	log.Info().Int("requested", len(ids)).Int64("deleted", n).Msg("bulk task delete")
	return models.BulkDeleteResult{DeletedCount: n}, nil
}

func (s *TaskService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return storeErr("Task", err)
	}
	if !ok {
		return apperror.NotFound("Task")
	}
	return nil
}

// Assignee pairs the stored snapshot with the live user record.
func (s *TaskService) Assignee(ctx context.Context, viewer models.Viewer, id primitive.ObjectID) (models.TaskAssignee, error) {
	t, err := s.Get(ctx, viewer, id)
	if err != nil {
		return models.TaskAssignee{}, err
	}
	out := models.TaskAssignee{Snapshot: t.AssignedTo, Stale: true}
	u, err := s.users.FindByID(ctx, t.AssignedTo.ID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return out, nil
	case err != nil:
		return out, storeErr("User", err)
	}
	out.Current = u
	out.Stale = u.Snapshot() != t.AssignedTo
	return out, nil
}
