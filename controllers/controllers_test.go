package controllers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/middleware"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories/memstore"
	"github.com/HSouheill/teamboard_backend/routes"
	"github.com/HSouheill/teamboard_backend/services"
	"github.com/HSouheill/teamboard_backend/utils"
)

const (
	testSecret  = "controller-test-secret-0123"
	hookSecret  = "hook-secret"
	landingURL  = "https://team.example.com/"
	password    = "correct-horse"
	timeout     = 5 * time.Second
	jsonContent = echo.MIMEApplicationJSON
)

type env struct {
	e                      *echo.Echo
	admin, mgrA, mgrB, mbA models.User
	users                  *memstore.Users
	companies              *memstore.Companies
	tasks                  *memstore.Tasks
}

func member(t *testing.T, role, name string, manager *primitive.ObjectID) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:           primitive.NewObjectID(),
		Email:        name + "@example.com",
		Password:     string(hash),
		Name:         name,
		Surname:      "Test",
		Role:         role,
		ManagerID:    manager,
		ReferralCode: "MB-" + name,
		IsActive:     true,
		CreatedAt:    time.Now().Add(-time.Hour).Truncate(time.Second),
	}
}

func newEnv(t *testing.T, companies ...models.Company) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	v := &env{}
	v.admin = member(t, models.RoleAdmin, "admin", nil)
	v.mgrA = member(t, models.RoleManager, "mgra", nil)
	v.mgrB = member(t, models.RoleManager, "mgrb", nil)
	v.mbA = member(t, models.RoleMarkenbotschafter, "mba", &v.mgrA.ID)
	v.users = memstore.NewUsers(v.admin, v.mgrA, v.mgrB, v.mbA)
	v.companies = memstore.NewCompanies(companies...)
	v.tasks = memstore.NewTasks()
	clicks := memstore.NewClicks(v.users)

	notifications := services.NewNotificationService(memstore.NewNotifications(), v.users, services.NotificationChannels{})
	blacklist := services.NewTokenBlacklist(rdb)
	userService := services.NewUserService(v.users, v.companies, v.admin.ID)
	commissionService := services.NewCommissionService(v.companies, v.users)
	taskService := services.NewTaskService(v.tasks, v.users, notifications)
	sweeper := services.NewSweeper(v.tasks)

	e := echo.New()
	e.Validator = utils.NewValidator()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(false)
	routes.SetupRoutes(e, routes.Handlers{
		Auth:          controllers.NewAuthController(userService, blacklist, testSecret, time.Hour, timeout),
		Users:         controllers.NewUserController(userService, timeout),
		Companies:     controllers.NewCompanyController(services.NewCompanyService(v.companies, v.users, v.admin.ID), timeout),
		Commissions:   controllers.NewCommissionController(commissionService, timeout),
		Reports:       controllers.NewReportController(services.NewReportService(commissionService, v.companies, v.tasks, v.users), timeout),
		Tasks:         controllers.NewTaskController(taskService, timeout),
		Referrals:     controllers.NewReferralController(services.NewReferralService(v.users, clicks, rdb, "https://api.example.com/r/", landingURL), timeout),
		Payments:      controllers.NewPaymentController(services.NewPaymentService(v.companies, memstore.NewPayments(), nil, notifications, v.admin.ID, services.PaymentOptions{}), timeout),
		Notifications: controllers.NewNotificationController(notifications, nil, timeout),
		Admin:         controllers.NewAdminController(sweeper, nil, timeout),
	}, routes.Guards{
		JWT:           middleware.JWTMiddleware(testSecret, blacklist, v.users),
		WebhookSecret: middleware.WebhookSecret(hookSecret),
	})
	v.e = e
	return v
}

func (v *env) token(t *testing.T, u models.User) string {
	t.Helper()
	tok, _, err := middleware.GenerateJWT(testSecret, u, time.Hour)
	require.NoError(t, err)
	return tok
}

type reply struct {
	Status  int                   `json:"status"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Errors  []apperror.FieldError `json:"errors"`
}

func (v *env) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, jsonContent)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)

	var r reply
	if rec.Header().Get(echo.HeaderContentType) != "" && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	}
	return rec, r
}

func company(name string, mgr, mb primitive.ObjectID, created time.Time) models.Company {
	return models.Company{
		ID:                  primitive.NewObjectID(),
		Name:                name,
		Plan:                models.PlanBasic,
		PlanPrice:           799.68,
		ManagerID:           mgr,
		MarkenbotschafterID: mb,
		CreatedAt:           created,
		ExpirationDate:      created.AddDate(1, 0, 0),
		Source:              models.CompanySourceForm,
	}
}

func TestSignupLoginLogout(t *testing.T) {
	v := newEnv(t)

	rec, r := v.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "New.Customer@Example.com", "password": "long-password", "name": "New", "surname": "Customer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signup models.LoginResponse
	require.NoError(t, json.Unmarshal(r.Data, &signup))
	assert.Equal(t, models.RoleKunde, signup.User.Role)
	assert.Equal(t, "new.customer@example.com", signup.User.Email)
	assert.NotContains(t, rec.Body.String(), "password\":\"$2")

	rec, _ = v.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "mgra@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, r = v.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "mgra@example.com", "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(r.Data, &login))

	rec, _ = v.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = v.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, r = v.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been invalidated", r.Message)
}

func TestMissingTokenAndRole(t *testing.T) {
	v := newEnv(t)

	rec, _ := v.do(t, http.MethodGet, "/api/companies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = v.do(t, http.MethodPost, "/api/companies", v.token(t, v.mbA), map[string]string{"name": "X", "plan": "BASIC"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStrictBody(t *testing.T) {
	v := newEnv(t)

	rec, r := v.do(t, http.MethodPost, "/api/companies", v.token(t, v.admin), map[string]interface{}{
		"name": "Bakery", "plan": "BASIC", "color": "red",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", r.Message)

	rec, r = v.do(t, http.MethodPost, "/api/companies", v.token(t, v.admin), map[string]interface{}{"name": "Bakery", "plan": "GOLD"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "plan", r.Errors[0].Field)
}

func TestDisallowedFieldNamed(t *testing.T) {
	v := newEnv(t)

	rec, r := v.do(t, http.MethodPatch, "/api/users/"+v.mbA.ID.Hex(), v.token(t, v.mbA), map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Field not allowed for your role: role", r.Message)

	rec, _ = v.do(t, http.MethodPatch, "/api/users/"+v.mbA.ID.Hex(), v.token(t, v.mbA), map[string]string{"city": "Berlin"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCommissionsScopedToViewer(t *testing.T) {
	created := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	v := newEnv(t)
	for _, c := range []models.Company{
		company("A1", v.mgrA.ID, v.mbA.ID, created),
		company("B1", v.mgrB.ID, v.admin.ID, created),
	} {
		require.NoError(t, v.companies.Create(context.Background(), &c))
	}

	list := func(u models.User) models.CommissionList {
		rec, r := v.do(t, http.MethodGet, "/api/commissions", v.token(t, u), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out models.CommissionList
		require.NoError(t, json.Unmarshal(r.Data, &out))
		return out
	}

	all := list(v.admin)
	require.Len(t, all.Items, 4)
	// the admin ambassador line on B1 is suppressed
	assert.Equal(t, 3000.0, all.CommissionTotal)

	mine := list(v.mgrA)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, v.mgrA.ID, mine.Items[0].PayeeID)
	assert.Equal(t, models.RoleManager, mine.Items[0].Role)
	assert.Equal(t, 1000.0, mine.CommissionTotal)
	assert.Equal(t, time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC), mine.Items[0].DueDate)
	assert.Less(t, mine.CommissionTotal, all.CommissionTotal)
}

func TestPaymentWebhook(t *testing.T) {
	v := newEnv(t)
	event := map[string]interface{}{"transactionId": "tx-1", "amountPaid": 79968}

	rec, _ := v.do(t, http.MethodPost, "/api/webhooks/payment", "", event)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, r := v.do(t, http.MethodPost, "/api/webhooks/payment", "", event, middleware.WebhookSecretHeader, hookSecret)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first models.Company
	require.NoError(t, json.Unmarshal(r.Data, &first))
	assert.Equal(t, models.PlanBasic, first.Plan)
	assert.Equal(t, v.admin.ID, first.ManagerID)

	rec, r = v.do(t, http.MethodPost, "/api/webhooks/payment", "", event, middleware.WebhookSecretHeader, hookSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	var again models.Company
	require.NoError(t, json.Unmarshal(r.Data, &again))
	assert.Equal(t, first.ID, again.ID)

	rec, _ = v.do(t, http.MethodPost, "/api/webhooks/payment", "",
		map[string]interface{}{"transactionId": "tx-2", "amountPaid": 50000}, middleware.WebhookSecretHeader, hookSecret)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBulkDeleteCountsExisting(t *testing.T) {
	v := newEnv(t)
	admin := v.token(t, v.admin)

	rec, r := v.do(t, http.MethodPost, "/api/tasks", admin, map[string]interface{}{
		"title":       "Call back",
		"priority":    "high",
		"dueDate":     time.Now().AddDate(0, 0, 7).UTC().Format(time.RFC3339),
		"assigneeIds": []string{v.mgrA.ID.Hex(), v.mbA.ID.Hex()},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created []models.Task
	require.NoError(t, json.Unmarshal(r.Data, &created))
	require.Len(t, created, 2)

	ids := []string{created[0].ID.Hex(), created[1].ID.Hex(), primitive.NewObjectID().Hex()}
	rec, _ = v.do(t, http.MethodPost, "/api/tasks/bulk-delete", v.token(t, v.mgrA), map[string]interface{}{"ids": ids})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, r = v.do(t, http.MethodPost, "/api/tasks/bulk-delete", admin, map[string]interface{}{"ids": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.BulkDeleteResult
	require.NoError(t, json.Unmarshal(r.Data, &res))
	assert.Equal(t, int64(2), res.DeletedCount)
}

func TestReferralRedirect(t *testing.T) {
	v := newEnv(t)

	rec, _ := v.do(t, http.MethodGet, "/r/MB-mba", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, landingURL+"?ref=MB-mba", rec.Header().Get(echo.HeaderLocation))

	rec, _ = v.do(t, http.MethodGet, "/r/unknown", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec, r := v.do(t, http.MethodGet, "/api/referrals/me", v.token(t, v.mbA), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info models.ReferralInfo
	require.NoError(t, json.Unmarshal(r.Data, &info))
	assert.Equal(t, int64(1), info.Clicks)

	rec, _ = v.do(t, http.MethodGet, "/api/referrals/me/qr", v.token(t, v.mbA), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}

func TestAdminSweep(t *testing.T) {
	v := newEnv(t)

	rec, _ := v.do(t, http.MethodPost, "/api/admin/sweep", v.token(t, v.mgrA), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, r := v.do(t, http.MethodPost, "/api/admin/sweep", v.token(t, v.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.SweepResult
	require.NoError(t, json.Unmarshal(r.Data, &res))
	assert.Zero(t, res.Unlocked)

	rec, _ = v.do(t, http.MethodPost, "/api/admin/sweep?async=true", v.token(t, v.admin), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
