package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

type TaskController struct {
	tasks   *services.TaskService
	timeout time.Duration
}

func NewTaskController(tasks *services.TaskService, timeout time.Duration) *TaskController {
	return &TaskController{tasks: tasks, timeout: timeout}
}

// CreateTasks creates one task per assignee. Admin only.
func (tc *TaskController) CreateTasks(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	var req models.TaskCreateRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	created, err := tc.tasks.Create(ctx, v, req)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(created)).Str("by", v.ID.Hex()).Msg("tasks created")
	return respond(c, http.StatusCreated, "Tasks created successfully", created)
}

func taskQuery(c echo.Context) (models.TaskQuery, error) {
	q := models.TaskQuery{
		Status:      c.QueryParam("status"),
		Priority:    c.QueryParam("priority"),
		Search:      c.QueryParam("search"),
		PageRequest: pageFrom(c),
	}
	if q.Status != "" && !models.IsValidTaskStatus(q.Status) {
		return q, apperror.Validation("Invalid status", apperror.FieldError{Field: "status", Reason: "taskstatus"})
	}
	if q.Priority != "" && !models.IsValidPriority(q.Priority) {
		return q, apperror.Validation("Invalid priority", apperror.FieldError{Field: "priority", Reason: "priority"})
	}
	if raw := c.QueryParam("assignee"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return q, apperror.Validation("Invalid assignee", apperror.FieldError{Field: "assignee", Reason: "objectid"})
		}
		q.AssigneeID = &id
	}
	var err error
	if q.DueFrom, err = queryTime(c, "dueFrom"); err != nil {
		return q, err
	}
	if q.DueTo, err = queryTime(c, "dueTo"); err != nil {
		return q, err
	}
	if q.Locked, err = queryBool(c, "locked"); err != nil {
		return q, err
	}
	return q, nil
}

// ListTasks returns the tasks visible to the caller. Locked tasks are hidden unless ?locked= is set.
func (tc *TaskController) ListTasks(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	q, err := taskQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	page, err := tc.tasks.List(ctx, v, q)
	if err != nil {
		return err
	}
	return ok(c, "Tasks retrieved successfully", page)
}

func (tc *TaskController) GetTask(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	task, err := tc.tasks.Get(ctx, v, id)
	if err != nil {
		return err
	}
	return ok(c, "Task retrieved successfully", task)
}

// UpdateTask applies a partial update. Assignees may only send status.
func (tc *TaskController) UpdateTask(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.TaskPatch
	if err := bindStrict(c, &patch); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	task, err := tc.tasks.Update(ctx, v, id, patch)
	if err != nil {
		return err
	}
	return ok(c, "Task updated successfully", task)
}

func (tc *TaskController) UpdateStatus(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req models.TaskStatusRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	task, err := tc.tasks.UpdateStatus(ctx, v, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "Task status updated", task)
}

func (tc *TaskController) DeleteTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	if err := tc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	return ok(c, "Task deleted successfully", nil)
}

// BulkUpdate applies one change to many tasks. Admin only.
func (tc *TaskController) BulkUpdate(c echo.Context) error {
	var req models.BulkTaskUpdateRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	res, err := tc.tasks.BulkUpdate(ctx, req)
	if err != nil {
		return err
	}
	return ok(c, "Tasks updated", res)
}

func (tc *TaskController) BulkDelete(c echo.Context) error {
	var req models.BulkTaskDeleteRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	res, err := tc.tasks.BulkDelete(ctx, req)
	if err != nil {
		return err
	}
	return ok(c, "Tasks deleted", res)
}

// Assignee returns the stored snapshot next to the live user.
func (tc *TaskController) Assignee(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, tc.timeout)
	defer cancel()

	a, err := tc.tasks.Assignee(ctx, v, id)
	if err != nil {
		return err
	}
	return ok(c, "Assignee retrieved successfully", a)
}
