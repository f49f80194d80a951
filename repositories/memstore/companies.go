package memstore

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/visibility"
)

type Companies struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Company
}

func NewCompanies(seed ...models.Company) *Companies {
	s := &Companies{items: map[primitive.ObjectID]models.Company{}}
	for _, c := range seed {
		s.items[c.ID] = c
	}
	return s
}

func (s *Companies) sorted(desc bool) []models.Company {
	out := make([]models.Company, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c)
	}
	sortBy(out, func(a, b models.Company) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.ID.Hex() > b.ID.Hex()
			}
			return a.ID.Hex() < b.ID.Hex()
		}
		if desc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (s *Companies) Create(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.TransactionID != "" {
		for _, other := range s.items {
			if other.TransactionID == c.TransactionID {
				return repositories.ErrDuplicate
			}
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.items[c.ID] = *c
	return nil
}

func (s *Companies) FindByID(_ context.Context, id primitive.ObjectID) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (s *Companies) FindByTransactionID(_ context.Context, txID string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.items {
		if c.TransactionID == txID {
			c := c
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Companies) List(_ context.Context, scope visibility.CompanyScope, q models.CompanyQuery) ([]models.Company, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []models.Company
	for _, c := range s.sorted(true) {
		if visibility.MatchCompany(scope, q, c) {
			hits = append(hits, c)
		}
	}
	return page(hits, q.PageRequest), int64(len(hits)), nil
}

func (s *Companies) All(_ context.Context, scope visibility.CompanyScope) ([]models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Company{}
	for _, c := range s.sorted(false) {
		if scope.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Companies) Count(ctx context.Context, scope visibility.CompanyScope) (int64, error) {
	all, err := s.All(ctx, scope)
	return int64(len(all)), err
}

func (s *Companies) Replace(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	set["updatedAt"] = time.Now().UTC()
	var out models.Company
	if err := patch(c, set, nil, &out); err != nil {
		return nil, err
	}
	s.items[id] = out
	return &out, nil
}

func (s *Companies) SetCommissionPaid(ctx context.Context, id primitive.ObjectID, paid bool) (*models.Company, error) {
	return s.Replace(ctx, id, bson.M{"statusProvisionen": paid})
}

func (s *Companies) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

func (s *Companies) ReassignUser(_ context.Context, userID, replacement primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.items {
		changed := false
		if c.ManagerID == userID {
			c.ManagerID = replacement
			changed = true
		}
		if c.MarkenbotschafterID == userID {
			c.MarkenbotschafterID = replacement
			changed = true
		}
		if changed {
			s.items[id] = c
			n++
		}
	}
	return n, nil
}
