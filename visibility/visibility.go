// Package visibility decides which companies, tasks and users a viewer may see.
// Every scope has a Mongo filter and an in-memory predicate built from the same rules.
package visibility

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
)

// matchNothing is a filter no document satisfies.
var matchNothing = bson.M{"_id": bson.M{"$in": bson.A{}}}

// CompanyScope restricts companies by manager or markenbotschafter reference.
type CompanyScope struct {
	all     bool
	none    bool
	field   string
	ownerID primitive.ObjectID
}

// Companies returns the company scope of v.
func Companies(v models.Viewer) CompanyScope {
	switch v.Role {
	case models.RoleAdmin:
		return CompanyScope{all: true}
	case models.RoleManager:
		return CompanyScope{field: "managerId", ownerID: v.ID}
	case models.RoleMarkenbotschafter:
		return CompanyScope{field: "markenbotschafterId", ownerID: v.ID}
	}
	return CompanyScope{none: true}
}

func (s CompanyScope) Empty() bool { return s.none }

func (s CompanyScope) Filter() bson.M {
	switch {
	case s.none:
		return matchNothing
	case s.all:
		return bson.M{}
	}
	return bson.M{s.field: s.ownerID}
}

func (s CompanyScope) Match(c models.Company) bool {
	switch {
	case s.none:
		return false
	case s.all:
		return true
	case s.field == "managerId":
		return c.ManagerID == s.ownerID
	}
	return c.MarkenbotschafterID == s.ownerID
}

// CompanyFilter ANDs the scope with the explicit filters of q.
func CompanyFilter(s CompanyScope, q models.CompanyQuery) bson.M {
	parts := bson.A{s.Filter()}
	if q.Plan != "" {
		parts = append(parts, bson.M{"plan": q.Plan})
	}
	if q.Search != "" {
		re := searchRegex(q.Search)
		parts = append(parts, bson.M{"$or": bson.A{
			bson.M{"name": re},
			bson.M{"ownerName": re},
			bson.M{"address": re},
		}})
	}
	return bson.M{"$and": parts}
}

// MatchCompany is the in-memory twin of CompanyFilter.
func MatchCompany(s CompanyScope, q models.CompanyQuery, c models.Company) bool {
	if !s.Match(c) {
		return false
	}
	if q.Plan != "" && c.Plan != q.Plan {
		return false
	}
	if q.Search != "" && !containsFold(q.Search, c.Name, c.OwnerName, c.Address) {
		return false
	}
	return true
}

// TaskScope restricts tasks by assignee.
type TaskScope struct {
	all       bool
	assignees []primitive.ObjectID
}

// Tasks returns the task scope of v. managed lists the markenbotschafter a manager supervises
// and is ignored for other roles.
func Tasks(v models.Viewer, managed []primitive.ObjectID) TaskScope {
	switch v.Role {
	case models.RoleAdmin:
		return TaskScope{all: true}
	case models.RoleManager:
		ids := append([]primitive.ObjectID{v.ID}, managed...)
		return TaskScope{assignees: ids}
	case models.RoleMarkenbotschafter:
		return TaskScope{assignees: []primitive.ObjectID{v.ID}}
	}
	return TaskScope{}
}

func (s TaskScope) Empty() bool { return !s.all && len(s.assignees) == 0 }

func (s TaskScope) Filter() bson.M {
	switch {
	case s.all:
		return bson.M{}
	case s.Empty():
		return matchNothing
	}
	return bson.M{"assignedTo.id": bson.M{"$in": s.assignees}}
}

func (s TaskScope) Match(t models.Task) bool {
	if s.all {
		return true
	}
	for _, id := range s.assignees {
		if t.AssignedTo.ID == id {
			return true
		}
	}
	return false
}

// TaskFilter ANDs the scope with the explicit filters of q. Without an explicit
// Locked filter, locked tasks are excluded.
func TaskFilter(s TaskScope, q models.TaskQuery) bson.M {
	parts := bson.A{s.Filter()}
	if q.Locked != nil && *q.Locked {
		parts = append(parts, bson.M{"locked": true})
	} else {
		parts = append(parts, bson.M{"locked": bson.M{"$ne": true}})
	}
	if q.Status != "" {
		parts = append(parts, bson.M{"status": q.Status})
	}
	if q.Priority != "" {
		parts = append(parts, bson.M{"priority": q.Priority})
	}
	if q.AssigneeID != nil {
		parts = append(parts, bson.M{"assignedTo.id": *q.AssigneeID})
	}
	if q.DueFrom != nil || q.DueTo != nil {
		due := bson.M{}
		if q.DueFrom != nil {
			due["$gte"] = *q.DueFrom
		}
		if q.DueTo != nil {
			due["$lte"] = *q.DueTo
		}
		parts = append(parts, bson.M{"dueDate": due})
	}
	if q.Search != "" {
		re := searchRegex(q.Search)
		parts = append(parts, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}})
	}
	return bson.M{"$and": parts}
}

// MatchTask is the in-memory twin of TaskFilter.
func MatchTask(s TaskScope, q models.TaskQuery, t models.Task) bool {
	if !s.Match(t) {
		return false
	}
	wantLocked := q.Locked != nil && *q.Locked
	if t.Locked != wantLocked {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	if q.AssigneeID != nil && t.AssignedTo.ID != *q.AssigneeID {
		return false
	}
	if q.DueFrom != nil && t.DueDate.Before(*q.DueFrom) {
		return false
	}
	if q.DueTo != nil && t.DueDate.After(*q.DueTo) {
		return false
	}
	if q.Search != "" && !containsFold(q.Search, t.Title, t.Description) {
		return false
	}
	return true
}

// UserScope restricts which user records a viewer can list.
type UserScope struct {
	all       bool
	managerID *primitive.ObjectID
	selfID    primitive.ObjectID
}

// Users returns the user scope of v. Managers see the markenbotschafter they supervise,
// everyone else below admin sees only themselves.
func Users(v models.Viewer) UserScope {
	switch v.Role {
	case models.RoleAdmin:
		return UserScope{all: true}
	case models.RoleManager:
		id := v.ID
		return UserScope{managerID: &id}
	}
	return UserScope{selfID: v.ID}
}

func (s UserScope) Filter() bson.M {
	switch {
	case s.all:
		return bson.M{}
	case s.managerID != nil:
		return bson.M{"role": models.RoleMarkenbotschafter, "managerId": *s.managerID}
	}
	return bson.M{"_id": s.selfID}
}

func (s UserScope) Match(u models.User) bool {
	switch {
	case s.all:
		return true
	case s.managerID != nil:
		return u.Role == models.RoleMarkenbotschafter && u.ManagerID != nil && *u.ManagerID == *s.managerID
	}
	return u.ID == s.selfID
}

func searchRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(term)), Options: "i"}
}

func containsFold(term string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
