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

type Users struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.User
}

func NewUsers(seed ...models.User) *Users {
	s := &Users{items: map[primitive.ObjectID]models.User{}}
	for _, u := range seed {
		s.items[u.ID] = u
	}
	return s
}

func (s *Users) sorted() []models.User {
	out := make([]models.User, 0, len(s.items))
	for _, u := range s.items {
		out = append(out, u)
	}
	sortBy(out, func(a, b models.User) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.Hex() > b.ID.Hex()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.items {
		if other.Email == u.Email || (u.ReferralCode != "" && other.ReferralCode == u.ReferralCode) {
			return repositories.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.items[u.ID] = *u
	return nil
}

func (s *Users) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Users) FindByReferralCode(_ context.Context, code string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ReferralCode == code })
}

func (s *Users) List(_ context.Context, scope visibility.UserScope, role string, p models.PageRequest) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []models.User
	for _, u := range s.sorted() {
		if scope.Match(u) && (role == "" || u.Role == role) {
			hits = append(hits, u)
		}
	}
	return page(hits, p), int64(len(hits)), nil
}

func (s *Users) All(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *Users) ManagedIDs(_ context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []primitive.ObjectID
	for _, u := range s.sorted() {
		if u.Role == models.RoleMarkenbotschafter && u.ManagerID != nil && *u.ManagerID == managerID {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

func (s *Users) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if email, ok := set["email"].(string); ok {
		for _, other := range s.items {
			if other.ID != id && other.Email == email {
				return nil, repositories.ErrDuplicate
			}
		}
	}
	set["updatedAt"] = time.Now().UTC()
	var out models.User
	if err := patch(u, set, unset, &out); err != nil {
		return nil, err
	}
	s.items[id] = out
	return &out, nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

func (s *Users) DetachAmbassadors(_ context.Context, managerID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.items {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			u.ManagerID = nil
			s.items[id] = u
			n++
		}
	}
	return n, nil
}
