package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories/memstore"
	"github.com/HSouheill/teamboard_backend/visibility"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// team is a small organization: one fallback admin, a second admin, two managers
// with one ambassador each and a customer.
type team struct {
	admin, admin2, mgrA, mgrB, mbA, mbB, kunde models.User
	users                                      *memstore.Users
	companies                                  *memstore.Companies
}

func user(role, name string, manager *primitive.ObjectID) models.User {
	return models.User{
		ID:           primitive.NewObjectID(),
		Email:        name + "@example.com",
		Name:         name,
		Surname:      "Test",
		Role:         role,
		ManagerID:    manager,
		ReferralCode: "MB-" + name,
		IsActive:     true,
		CreatedAt:    fixedNow.Add(-24 * time.Hour),
	}
}

func newTeam() *team {
	t := &team{}
	t.admin = user(models.RoleAdmin, "admin", nil)
	t.admin2 = user(models.RoleAdmin, "admin2", nil)
	t.mgrA = user(models.RoleManager, "mgra", nil)
	t.mgrB = user(models.RoleManager, "mgrb", nil)
	t.mbA = user(models.RoleMarkenbotschafter, "mba", &t.mgrA.ID)
	t.mbB = user(models.RoleMarkenbotschafter, "mbb", &t.mgrB.ID)
	t.kunde = user(models.RoleKunde, "kunde", nil)
	t.kunde.ReferralCode = ""
	t.users = memstore.NewUsers(t.admin, t.admin2, t.mgrA, t.mgrB, t.mbA, t.mbB, t.kunde)
	t.companies = memstore.NewCompanies()
	return t
}

func viewerOf(u models.User) models.Viewer {
	return models.Viewer{ID: u.ID, Email: u.Email, Role: u.Role}
}

func strp(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

func timep(t time.Time) *time.Time { return &t }

func requireAppError(t *testing.T, err error, typ string) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, typ, ae.Type, ae.Message)
	return ae
}

func newUserService(tm *team) *UserService {
	s := NewUserService(tm.users, tm.companies, tm.admin.ID)
	s.hashCost = bcrypt.MinCost
	s.now = func() time.Time { return fixedNow }
	return s
}

// recordingNotifier captures task assignments and company creations.
type recordingNotifier struct {
	mu        sync.Mutex
	tasks     []models.Task
	companies []models.Company
}

func (r *recordingNotifier) TaskAssigned(_ context.Context, task models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
}

func (r *recordingNotifier) CompanyCreated(_ context.Context, c models.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies = append(r.companies, c)
}

func (tm *team) mustCompany(t *testing.T, id primitive.ObjectID) models.Company {
	t.Helper()
	c, err := tm.companies.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *c
}

func visibilityAll() visibility.CompanyScope {
	return visibility.Companies(models.Viewer{Role: models.RoleAdmin})
}
