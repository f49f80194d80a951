package memstore

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
)

// Clicks stores referral clicks and resolves leaderboard names through users.
type Clicks struct {
	mu    sync.Mutex
	items []models.ReferralClick
	users *Users
}

func NewClicks(users *Users) *Clicks {
	return &Clicks{users: users}
}

func (s *Clicks) Insert(_ context.Context, c *models.ReferralClick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *c)
	return nil
}

func (s *Clicks) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.items {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Clicks) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.Lock()
	counts := map[primitive.ObjectID]int64{}
	for _, c := range s.items {
		counts[c.UserID]++
	}
	s.mu.Unlock()

	out := make([]models.LeaderboardEntry, 0, len(counts))
	for id, n := range counts {
		e := models.LeaderboardEntry{UserID: id, Clicks: n}
		if s.users != nil {
			if u, err := s.users.FindByID(ctx, id); err == nil {
				e.Name, e.Role = u.FullName(), u.Role
			}
		}
		out = append(out, e)
	}
	sortBy(out, func(a, b models.LeaderboardEntry) bool {
		if a.Clicks == b.Clicks {
			return a.UserID.Hex() < b.UserID.Hex()
		}
		return a.Clicks > b.Clicks
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type Payments struct {
	mu    sync.Mutex
	items map[int64]models.PaymentIntent
}

func NewPayments() *Payments {
	return &Payments{items: map[int64]models.PaymentIntent{}}
}

func (s *Payments) Create(_ context.Context, p *models.PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[p.ExternalID]; ok {
		return repositories.ErrDuplicate
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.items[p.ExternalID] = *p
	return nil
}

func (s *Payments) FindByExternalID(_ context.Context, externalID int64) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[externalID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (s *Payments) Settle(_ context.Context, externalID int64, status string, companyID *primitive.ObjectID, payerPhone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[externalID]
	if !ok || p.Status != models.PaymentPending {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = status
	p.ProcessedAt = &now
	if companyID != nil {
		p.CompanyID = companyID
	}
	if payerPhone != "" {
		p.PayerPhone = payerPhone
	}
	s.items[externalID] = p
	return true, nil
}

type Notifications struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewNotifications() *Notifications { return &Notifications{} }

func (s *Notifications) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *Notifications) ListForUser(_ context.Context, userID primitive.ObjectID, p models.PageRequest) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []models.Notification
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID == userID {
			hits = append(hits, s.items[i])
		}
	}
	return page(hits, p), int64(len(hits)), nil
}

func (s *Notifications) MarkRead(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			s.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}
