package memstore

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/visibility"
)

type Tasks struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Task
}

func NewTasks(seed ...models.Task) *Tasks {
	s := &Tasks{items: map[primitive.ObjectID]models.Task{}}
	for _, t := range seed {
		s.items[t.ID] = t
	}
	return s
}

// Snapshot returns a copy of every stored task.
func (s *Tasks) Snapshot() map[primitive.ObjectID]models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Task, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

func (s *Tasks) sorted() []models.Task {
	out := make([]models.Task, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	sortBy(out, func(a, b models.Task) bool {
		if a.DueDate.Equal(b.DueDate) {
			return a.ID.Hex() < b.ID.Hex()
		}
		return a.DueDate.Before(b.DueDate)
	})
	return out
}

func (s *Tasks) InsertMany(_ context.Context, tasks []*models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		s.items[t.ID] = *t
	}
	return nil
}

func (s *Tasks) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (s *Tasks) List(_ context.Context, scope visibility.TaskScope, q models.TaskQuery) ([]models.Task, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []models.Task
	for _, t := range s.sorted() {
		if visibility.MatchTask(scope, q, t) {
			hits = append(hits, t)
		}
	}
	return page(hits, q.PageRequest), int64(len(hits)), nil
}

func (s *Tasks) Count(ctx context.Context, scope visibility.TaskScope, q models.TaskQuery) (int64, error) {
	_, n, err := s.List(ctx, scope, q)
	return n, err
}

func (s *Tasks) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	set["updatedAt"] = time.Now().UTC()
	var out models.Task
	if err := patch(t, set, unset, &out); err != nil {
		return nil, err
	}
	s.items[id] = out
	return &out, nil
}

func (s *Tasks) UpdateMany(_ context.Context, ids []primitive.ObjectID, set bson.M) (models.BulkUpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res models.BulkUpdateResult
	for _, id := range ids {
		t, ok := s.items[id]
		if !ok {
			continue
		}
		res.MatchedCount++
		var out models.Task
		if err := patch(t, set, nil, &out); err != nil {
			return res, err
		}
		out.UpdatedAt = t.UpdatedAt
		before, _ := bson.Marshal(t)
		after, _ := bson.Marshal(out)
		if bytes.Equal(before, after) {
			continue
		}
		out.UpdatedAt = time.Now().UTC()
		res.ModifiedCount++
		s.items[id] = out
	}
	return res, nil
}

func (s *Tasks) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

func (s *Tasks) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *Tasks) UnlockDue(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.items {
		if visibility.MatchUnlockDue(t, today) {
			t.Locked = false
			t.Status = models.TaskPending
			t.UpdatedAt = time.Now().UTC()
			s.items[id] = t
			n++
		}
	}
	return n, nil
}

func (s *Tasks) MarkOverdue(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.items {
		if visibility.MatchOverdue(t, today) {
			t.Status = models.TaskCannotComplete
			t.UpdatedAt = time.Now().UTC()
			s.items[id] = t
			n++
		}
	}
	return n, nil
}
