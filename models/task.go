package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses
const (
	TaskPending        = "pending"
	TaskInProgress     = "in_progress"
	TaskDone           = "done"
	TaskCannotComplete = "cannot_complete"
)

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone, TaskCannotComplete:
		return true
	}
	return false
}

func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// UserSnapshot is a copy of a user's display fields taken when a task is created.
// It is not refreshed when the user changes later.
type UserSnapshot struct {
	ID   primitive.ObjectID `json:"id" bson:"id"`
	Name string             `json:"name" bson:"name"`
	Role string             `json:"role" bson:"role"`
}

// Task is a work item assigned to exactly one user. Locked tasks stay hidden from default
// listings until the unlock sweep clears the gate.
type Task struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Priority    string             `json:"priority" bson:"priority"`
	Status      string             `json:"status" bson:"status"`
	AssignedTo  UserSnapshot       `json:"assignedTo" bson:"assignedTo"`
	CreatedBy   UserSnapshot       `json:"createdBy" bson:"createdBy"`
	DueDate     time.Time          `json:"dueDate" bson:"dueDate"`
	UnlockDate  *time.Time         `json:"unlockDate,omitempty" bson:"unlockDate,omitempty"`
	Locked      bool               `json:"locked" bson:"locked"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// LockedUntil reports whether a task with the given unlock date starts locked on today.
func LockedUntil(unlock *time.Time, today time.Time) bool {
	return unlock != nil && unlock.After(StartOfDay(today))
}

// IsAssignee reports whether v is the user the task is assigned to.
func (t *Task) IsAssignee(v Viewer) bool {
	return t.AssignedTo.ID == v.ID
}

// CanTransition reports whether actor may move the task to status to.
// Admins may always; managers and ambassadors only on their own tasks.
func (t *Task) CanTransition(actor Viewer, to string) bool {
	if !IsValidTaskStatus(to) {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleManager, RoleMarkenbotschafter:
		return t.IsAssignee(actor)
	}
	return false
}

// IsOverdue reports whether the overdue sweep would mark the task on today.
func (t *Task) IsOverdue(today time.Time) bool {
	if t.Locked || t.Status == TaskDone || t.Status == TaskCannotComplete {
		return false
	}
	return t.DueDate.Before(StartOfDay(today))
}

// TaskCreateRequest creates one task per assignee.
type TaskCreateRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Priority    string     `json:"priority" validate:"required,priority"`
	DueDate     time.Time  `json:"dueDate" validate:"required"`
	UnlockDate  *time.Time `json:"unlockDate,omitempty"`
	AssigneeIDs []string   `json:"assigneeIds" validate:"required,min=1,max=200,dive,objectid"`
}

// TaskPatch is a partial task update. Assignees may only change Status.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,priority"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,taskstatus"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	UnlockDate  *time.Time `json:"unlockDate,omitempty"`
}

// Fields returns the JSON names of the fields present in the patch.
func (p TaskPatch) Fields() []string {
	var out []string
	if p.Title != nil {
		out = append(out, "title")
	}
	if p.Description != nil {
		out = append(out, "description")
	}
	if p.Priority != nil {
		out = append(out, "priority")
	}
	if p.Status != nil {
		out = append(out, "status")
	}
	if p.DueDate != nil {
		out = append(out, "dueDate")
	}
	if p.UnlockDate != nil {
		out = append(out, "unlockDate")
	}
	return out
}

// TaskStatusRequest changes only the status of a task.
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

// BulkTaskUpdateRequest applies the same change to many tasks.
type BulkTaskUpdateRequest struct {
	IDs      []string   `json:"ids" validate:"required,min=1,max=500,dive,objectid"`
	Status   *string    `json:"status,omitempty" validate:"omitempty,taskstatus"`
	Priority *string    `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

// BulkTaskDeleteRequest deletes many tasks at once.
type BulkTaskDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,objectid"`
}

// BulkUpdateResult reports how many documents a bulk update touched.
type BulkUpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// BulkDeleteResult reports how many documents a bulk delete removed.
type BulkDeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// TaskQuery holds explicit listing filters. They are ANDed with the viewer's scope.
// A nil Locked hides locked tasks.
type TaskQuery struct {
	Status     string
	Priority   string
	AssigneeID *primitive.ObjectID
	DueFrom    *time.Time
	DueTo      *time.Time
	Search     string
	Locked     *bool
	PageRequest
}

// TaskAssignee pairs the stored snapshot with the live user record.
type TaskAssignee struct {
	Snapshot UserSnapshot `json:"snapshot"`
	Current  *User        `json:"current,omitempty"`
	Stale    bool         `json:"stale"`
}

// SweepResult reports what one run of the task sweep changed.
type SweepResult struct {
	Unlocked      int64 `json:"unlocked"`
	MarkedOverdue int64 `json:"markedOverdue"`
}
