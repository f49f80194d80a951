package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
)

func TestSignupAndAuthenticate(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	u, err := s.Signup(ctx, models.SignupRequest{Email: " New@Example.com ", Password: "secret-pass", Name: "New", Surname: "User"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleKunde, u.Role)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Empty(t, u.ReferralCode)
	assert.NotEqual(t, "secret-pass", u.Password)

	got, err := s.Authenticate(ctx, "NEW@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "new@example.com", "wrong")
	requireAppError(t, err, apperror.TypeUnauthenticated)
	_, err = s.Authenticate(ctx, "nobody@example.com", "secret-pass")
	requireAppError(t, err, apperror.TypeUnauthenticated)

	_, err = s.Signup(ctx, models.SignupRequest{Email: "new@example.com", Password: "secret-pass", Name: "Dup", Surname: "User"})
	requireAppError(t, err, apperror.TypeConflict)
}

func TestAuthenticateInactive(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	u, err := s.Create(ctx, models.CreateUserRequest{Email: "mb@example.com", Password: "secret-pass", Name: "M", Surname: "B", Role: models.RoleMarkenbotschafter})
	require.NoError(t, err)
	_, err = s.Update(ctx, viewerOf(tm.admin), u.ID, models.UserPatch{IsActive: boolp(false)})
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "mb@example.com", "secret-pass")
	requireAppError(t, err, apperror.TypeForbidden)
}

func TestCreateUser(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	t.Run("ambassador with manager gets a referral code", func(t *testing.T) {
		u, err := s.Create(ctx, models.CreateUserRequest{
			Email: "amb@example.com", Password: "secret-pass", Name: "Amb", Surname: "X",
			Role: models.RoleMarkenbotschafter, ManagerID: strp(tm.mgrA.ID.Hex()),
		})
		require.NoError(t, err)
		require.NotNil(t, u.ManagerID)
		assert.Equal(t, tm.mgrA.ID, *u.ManagerID)
		assert.Regexp(t, `^MB-[A-Z2-9]{8}$`, u.ReferralCode)
	})

	t.Run("manager must be a manager", func(t *testing.T) {
		_, err := s.Create(ctx, models.CreateUserRequest{
			Email: "amb2@example.com", Password: "secret-pass", Name: "Amb", Surname: "Y",
			Role: models.RoleMarkenbotschafter, ManagerID: strp(tm.mbA.ID.Hex()),
		})
		ae := requireAppError(t, err, apperror.TypeValidation)
		assert.Equal(t, "managerId", ae.Fields[0].Field)
	})

	t.Run("only ambassadors have managers", func(t *testing.T) {
		_, err := s.Create(ctx, models.CreateUserRequest{
			Email: "m3@example.com", Password: "secret-pass", Name: "M", Surname: "Z",
			Role: models.RoleManager, ManagerID: strp(tm.mgrA.ID.Hex()),
		})
		requireAppError(t, err, apperror.TypeValidation)
	})
}

func TestGetAndListScope(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	got, err := s.Get(ctx, viewerOf(tm.mgrA), tm.mbA.ID)
	require.NoError(t, err)
	assert.Equal(t, tm.mbA.ID, got.ID)

	_, err = s.Get(ctx, viewerOf(tm.mgrA), tm.mbB.ID)
	requireAppError(t, err, apperror.TypeNotFound)

	_, err = s.Get(ctx, viewerOf(tm.mgrA), tm.mgrA.ID)
	require.NoError(t, err)

	res, err := s.List(ctx, viewerOf(tm.mgrA), "", models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = s.List(ctx, viewerOf(tm.admin), models.RoleManager, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
}

func TestUpdateUserAllowList(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	t.Run("self may change contact fields", func(t *testing.T) {
		u, err := s.Update(ctx, viewerOf(tm.mbA), tm.mbA.ID, models.UserPatch{City: strp(" Berlin "), Phone: strp("123")})
		require.NoError(t, err)
		assert.Equal(t, "Berlin", u.City)
		assert.Equal(t, "123", u.Phone)
	})

	t.Run("self may not change role", func(t *testing.T) {
		_, err := s.Update(ctx, viewerOf(tm.mbA), tm.mbA.ID, models.UserPatch{Role: strp(models.RoleAdmin)})
		ae := requireAppError(t, err, apperror.TypeForbidden)
		assert.Equal(t, "Field not allowed for your role: role", ae.Message)
	})

	t.Run("others are off limits", func(t *testing.T) {
		_, err := s.Update(ctx, viewerOf(tm.mgrA), tm.mbA.ID, models.UserPatch{City: strp("Hamburg")})
		requireAppError(t, err, apperror.TypeForbidden)
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := s.Update(ctx, viewerOf(tm.admin), tm.mbA.ID, models.UserPatch{})
		requireAppError(t, err, apperror.TypeValidation)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := s.Update(ctx, viewerOf(tm.admin), tm.mbA.ID, models.UserPatch{Email: strp(tm.mbB.Email)})
		requireAppError(t, err, apperror.TypeConflict)
	})
}

func TestUpdateUserRoleChanges(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()
	admin := viewerOf(tm.admin)

	_, err := s.Update(ctx, admin, tm.admin.ID, models.UserPatch{Role: strp(models.RoleManager)})
	requireAppError(t, err, apperror.TypeConflict)

	// demoting a manager detaches their ambassadors
	_, err = s.Update(ctx, admin, tm.mgrA.ID, models.UserPatch{Role: strp(models.RoleMarkenbotschafter)})
	require.NoError(t, err)
	mb, err := tm.users.FindByID(ctx, tm.mbA.ID)
	require.NoError(t, err)
	assert.Nil(t, mb.ManagerID)

	// promoting a kunde allocates a referral code
	k, err := s.Update(ctx, admin, tm.kunde.ID, models.UserPatch{Role: strp(models.RoleMarkenbotschafter), ManagerID: strp(tm.mgrB.ID.Hex())})
	require.NoError(t, err)
	assert.NotEmpty(t, k.ReferralCode)
	require.NotNil(t, k.ManagerID)
	assert.Equal(t, tm.mgrB.ID, *k.ManagerID)

	// an empty managerId detaches
	k, err = s.Update(ctx, admin, tm.kunde.ID, models.UserPatch{ManagerID: strp("")})
	require.NoError(t, err)
	assert.Nil(t, k.ManagerID)
}

func TestSetTeamFeePaid(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()

	u, err := s.SetTeamFeePaid(ctx, tm.mbA.ID, true)
	require.NoError(t, err)
	assert.True(t, u.StatusProvisionenMarkenbotschafter)

	_, err = s.SetTeamFeePaid(ctx, tm.mgrA.ID, true)
	requireAppError(t, err, apperror.TypeValidation)
	_, err = s.SetTeamFeePaid(ctx, primitive.NewObjectID(), true)
	requireAppError(t, err, apperror.TypeNotFound)
}

func TestDeleteUserReassignsCompanies(t *testing.T) {
	tm := newTeam()
	s := newUserService(tm)
	ctx := context.Background()
	admin := viewerOf(tm.admin2)

	c1 := &models.Company{Name: "A", Plan: models.PlanBasic, ManagerID: tm.mgrA.ID, MarkenbotschafterID: tm.mbA.ID}
	c2 := &models.Company{Name: "B", Plan: models.PlanPro, ManagerID: tm.mgrA.ID, MarkenbotschafterID: tm.mgrA.ID}
	c3 := &models.Company{Name: "C", Plan: models.PlanPro, ManagerID: tm.mgrB.ID, MarkenbotschafterID: tm.mbB.ID}
	for _, c := range []*models.Company{c1, c2, c3} {
		require.NoError(t, tm.companies.Create(ctx, c))
	}

	res, err := s.Delete(ctx, admin, tm.mgrA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.CompaniesReassigned)
	assert.Equal(t, int64(1), res.AmbassadorsDetached)

	got, _ := tm.companies.FindByID(ctx, c2.ID)
	assert.Equal(t, tm.admin.ID, got.ManagerID)
	assert.Equal(t, tm.admin.ID, got.MarkenbotschafterID)
	got, _ = tm.companies.FindByID(ctx, c1.ID)
	assert.Equal(t, tm.admin.ID, got.ManagerID)
	assert.Equal(t, tm.mbA.ID, got.MarkenbotschafterID)
	got, _ = tm.companies.FindByID(ctx, c3.ID)
	assert.Equal(t, tm.mgrB.ID, got.ManagerID)

	_, err = tm.users.FindByID(ctx, tm.mgrA.ID)
	assert.Error(t, err)

	_, err = s.Delete(ctx, admin, tm.admin.ID)
	requireAppError(t, err, apperror.TypeConflict)
	_, err = s.Delete(ctx, admin, tm.admin2.ID)
	requireAppError(t, err, apperror.TypeForbidden)
	_, err = s.Delete(ctx, admin, tm.mgrA.ID)
	requireAppError(t, err, apperror.TypeNotFound)
}
