package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/visibility"
)

type TaskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{collection: db.Collection("tasks")}
}

func (r *TaskRepository) InsertMany(ctx context.Context, tasks []*models.Task) error {
	docs := make([]interface{}, len(tasks))
	for i, t := range tasks {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		docs[i] = t
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translate(err)
}

func (r *TaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, scope visibility.TaskScope, q models.TaskQuery) ([]models.Task, int64, error) {
	filter := visibility.TaskFilter(scope, q)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.collection.Find(ctx, filter, pageOptions(q.PageRequest, "dueDate", 1))
	if err != nil {
		return nil, 0, err
	}
	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TaskRepository) Count(ctx context.Context, scope visibility.TaskScope, q models.TaskQuery) (int64, error) {
	return r.collection.CountDocuments(ctx, visibility.TaskFilter(scope, q))
}

func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.Task, error) {
	set["updatedAt"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		update["$unset"] = u
	}
	var out models.Task
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *TaskRepository) UpdateMany(ctx context.Context, ids []primitive.ObjectID, set bson.M) (models.BulkUpdateResult, error) {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": set})
	if err != nil {
		return models.BulkUpdateResult{}, err
	}
	return models.BulkUpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *TaskRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UnlockDue unlocks every locked task whose unlock date is on or before today and
// resets its status to pending.
func (r *TaskRepository) UnlockDue(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		visibility.UnlockDueFilter(today),
		bson.M{"$set": bson.M{"locked": false, "status": models.TaskPending, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkOverdue moves unlocked tasks that are past due and not finished to cannot_complete.
func (r *TaskRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		visibility.OverdueFilter(today),
		bson.M{"$set": bson.M{"status": models.TaskCannotComplete, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
