package visibility

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/HSouheill/teamboard_backend/models"
)

// UnlockDueFilter matches locked tasks whose unlock day is on or before today.
func UnlockDueFilter(today time.Time) bson.M {
	return bson.M{
		"locked":     true,
		"unlockDate": bson.M{"$lte": models.StartOfDay(today)},
	}
}

// MatchUnlockDue is the in-memory twin of UnlockDueFilter.
func MatchUnlockDue(t models.Task, today time.Time) bool {
	return t.Locked && t.UnlockDate != nil && !t.UnlockDate.After(models.StartOfDay(today))
}

// OverdueFilter matches unlocked, unfinished tasks due before today.
func OverdueFilter(today time.Time) bson.M {
	return bson.M{
		"locked":  bson.M{"$ne": true},
		"status":  bson.M{"$nin": bson.A{models.TaskDone, models.TaskCannotComplete}},
		"dueDate": bson.M{"$lt": models.StartOfDay(today)},
	}
}

// MatchOverdue is the in-memory twin of OverdueFilter.
func MatchOverdue(t models.Task, today time.Time) bool {
	return t.IsOverdue(today)
}
