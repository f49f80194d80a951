package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/visibility"
)

// UserStore is implemented by repositories.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	List(ctx context.Context, scope visibility.UserScope, role string, page models.PageRequest) ([]models.User, int64, error)
	All(ctx context.Context) ([]models.User, error)
	ManagedIDs(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DetachAmbassadors(ctx context.Context, managerID primitive.ObjectID) (int64, error)
}

// CompanyStore is implemented by repositories.CompanyRepository.
type CompanyStore interface {
	Create(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
	FindByTransactionID(ctx context.Context, txID string) (*models.Company, error)
	List(ctx context.Context, scope visibility.CompanyScope, q models.CompanyQuery) ([]models.Company, int64, error)
	All(ctx context.Context, scope visibility.CompanyScope) ([]models.Company, error)
	Count(ctx context.Context, scope visibility.CompanyScope) (int64, error)
	Replace(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Company, error)
	SetCommissionPaid(ctx context.Context, id primitive.ObjectID, paid bool) (*models.Company, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	ReassignUser(ctx context.Context, userID, replacement primitive.ObjectID) (int64, error)
}

// TaskStore is implemented by repositories.TaskRepository.
type TaskStore interface {
	InsertMany(ctx context.Context, tasks []*models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, scope visibility.TaskScope, q models.TaskQuery) ([]models.Task, int64, error)
	Count(ctx context.Context, scope visibility.TaskScope, q models.TaskQuery) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.Task, error)
	UpdateMany(ctx context.Context, ids []primitive.ObjectID, set bson.M) (models.BulkUpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	UnlockDue(ctx context.Context, today time.Time) (int64, error)
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

// ClickStore is implemented by repositories.ReferralClickRepository.
type ClickStore interface {
	Insert(ctx context.Context, click *models.ReferralClick) error
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// PaymentStore is implemented by repositories.PaymentRepository.
type PaymentStore interface {
	Create(ctx context.Context, p *models.PaymentIntent) error
	FindByExternalID(ctx context.Context, externalID int64) (*models.PaymentIntent, error)
	Settle(ctx context.Context, externalID int64, status string, companyID *primitive.ObjectID, payerPhone string) (bool, error)
}

// NotificationStore is implemented by repositories.NotificationRepository.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, page models.PageRequest) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
}
