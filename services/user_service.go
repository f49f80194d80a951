package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/utils"
	"github.com/HSouheill/teamboard_backend/visibility"
)

const referralCodeAttempts = 3

// UserService manages the identity and role directory.
type UserService struct {
	users         UserStore
	companies     CompanyStore
	fallbackAdmin primitive.ObjectID
	hashCost      int
	now           func() time.Time
}

func NewUserService(users UserStore, companies CompanyStore, fallbackAdmin primitive.ObjectID) *UserService {
	return &UserService{
		users:         users,
		companies:     companies,
		fallbackAdmin: fallbackAdmin,
		hashCost:      bcrypt.DefaultCost,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", apperror.Upstream("Failed to hash password", err)
	}
	return string(b), nil
}

// insert stores u, retrying referral code collisions.
func (s *UserService) insert(ctx context.Context, u *models.User) error {
	for attempt := 0; ; attempt++ {
		if u.Role != models.RoleKunde {
			code, err := utils.GenerateReferralCode()
			if err != nil {
				return apperror.Upstream("Failed to generate referral code", err)
			}
			u.ReferralCode = code
		}
		err := s.users.Create(ctx, u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return storeErr("User", err)
		}
		if _, lookupErr := s.users.FindByEmail(ctx, u.Email); lookupErr == nil {
			return apperror.Conflict("Email already registered")
		}
		if attempt+1 >= referralCodeAttempts {
			return apperror.Conflict("Could not allocate a referral code")
		}
	}
}

// Signup registers a Kunde.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &models.User{
		Email:     utils.NormalizeEmail(req.Email),
		Password:  hash,
		Name:      utils.CleanText(req.Name),
		Surname:   utils.CleanText(req.Surname),
		Phone:     utils.CleanText(req.Phone),
		Role:      models.RoleKunde,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks email and password. Every mismatch yields the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := apperror.Unauthenticated("Invalid email or password")
	u, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, storeErr("User", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, invalid
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}
	return u, nil
}

// resolveManager parses raw and checks that it names a manager.
func (s *UserService) resolveManager(ctx context.Context, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid manager id",
			apperror.FieldError{Field: "managerId", Reason: "objectid"})
	}
	m, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && m.Role != models.RoleManager) {
		return primitive.NilObjectID, apperror.Validation("managerId must reference a manager",
			apperror.FieldError{Field: "managerId", Reason: "manager"})
	}
	if err != nil {
		return primitive.NilObjectID, storeErr("User", err)
	}
	return id, nil
}

// Create adds a team member. Only admins reach this.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	now := s.now()
	u := &models.User{
		Email:     utils.NormalizeEmail(req.Email),
		Name:      utils.CleanText(req.Name),
		Surname:   utils.CleanText(req.Surname),
		Role:      req.Role,
		Phone:     utils.CleanText(req.Phone),
		Street:    utils.CleanText(req.Street),
		Zip:       utils.CleanText(req.Zip),
		City:      utils.CleanText(req.City),
		Country:   utils.CleanText(req.Country),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ManagerID != nil && *req.ManagerID != "" {
		if req.Role != models.RoleMarkenbotschafter {
			return nil, apperror.Validation("Only a markenbotschafter can have a manager",
				apperror.FieldError{Field: "managerId", Reason: "role"})
		}
		id, err := s.resolveManager(ctx, *req.ManagerID)
		if err != nil {
			return nil, err
		}
		u.ManagerID = &id
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID.Hex()).Str("role", u.Role).Msg("user created")
	return u, nil
}

// Get returns a user the viewer may see. Users outside the scope look missing.
func (s *UserService) Get(ctx context.Context, viewer models.Viewer, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("User", err)
	}
	if u.ID != viewer.ID && !visibility.Users(viewer).Match(*u) {
		return nil, apperror.NotFound("User")
	}
	return u, nil
}

// List returns one page of the users the viewer may see.
func (s *UserService) List(ctx context.Context, viewer models.Viewer, role string, page models.PageRequest) (models.PagedResult, error) {
	page = page.Normalize()
	users, total, err := s.users.List(ctx, visibility.Users(viewer), role, page)
	if err != nil {
		return models.PagedResult{}, storeErr("Users", err)
	}
	return models.PagedResult{Items: users, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Update applies a typed patch. Non-admins may only change their own contact fields.
func (s *UserService) Update(ctx context.Context, actor models.Viewer, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, apperror.Validation("No fields to update")
	}
	if !actor.IsAdmin() {
		if actor.ID != id {
			return nil, apperror.Forbidden("You can only update your own profile")
		}
		if err := disallowed(fields, models.UserSelfFields); err != nil {
			return nil, err
		}
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("User", err)
	}

	set := patch.SetDocument()
	var unset []string

	if patch.Password != nil {
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		set["password"] = hash
	}

	newRole := target.Role
	if patch.Role != nil {
		if id == s.fallbackAdmin && *patch.Role != models.RoleAdmin {
			return nil, apperror.Conflict("The fallback admin must keep the admin role")
		}
		newRole = *patch.Role
		set["role"] = newRole
		if newRole != models.RoleKunde && target.ReferralCode == "" {
			code, err := utils.GenerateReferralCode()
			if err != nil {
				return nil, apperror.Upstream("Failed to generate referral code", err)
			}
			set["referralCode"] = code
		}
	}

	switch {
	case patch.ManagerID != nil && *patch.ManagerID == "":
		unset = append(unset, "managerId")
	case patch.ManagerID != nil:
		if newRole != models.RoleMarkenbotschafter {
			return nil, apperror.Validation("Only a markenbotschafter can have a manager",
				apperror.FieldError{Field: "managerId", Reason: "role"})
		}
		mid, err := s.resolveManager(ctx, *patch.ManagerID)
		if err != nil {
			return nil, err
		}
		set["managerId"] = mid
	case newRole != models.RoleMarkenbotschafter && target.ManagerID != nil:
		unset = append(unset, "managerId")
	}

	if email, ok := set["email"].(string); ok && email != target.Email {
		if other, err := s.users.FindByEmail(ctx, email); err == nil && other.ID != id {
			return nil, apperror.Conflict("Email already registered")
		}
	}

	updated, err := s.users.Update(ctx, id, set, unset)
	if err != nil {
		return nil, storeErr("User", err)
	}

	if target.Role == models.RoleManager && newRole != models.RoleManager {
		n, err := s.users.DetachAmbassadors(ctx, id)
		if err != nil {
			return nil, storeErr("Users", err)
		}
		log.Info().Str("user_id", id.Hex()).Int64("detached", n).Msg("manager demoted, ambassadors detached")
	}
	return updated, nil
}

// SetTeamFeePaid toggles the team fee paid flag of a markenbotschafter.
func (s *UserService) SetTeamFeePaid(ctx context.Context, id primitive.ObjectID, paid bool) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("User", err)
	}
	if u.Role != models.RoleMarkenbotschafter {
		return nil, apperror.Validation("Team fees only apply to markenbotschafter")
	}
	updated, err := s.users.Update(ctx, id, bson.M{"statusProvisionenMarkenbotschafter": paid}, nil)
	if err != nil {
		return nil, storeErr("User", err)
	}
	return updated, nil
}

// Delete removes a user after pointing every company reference at the fallback admin
// and detaching managed ambassadors.
func (s *UserService) Delete(ctx context.Context, actor models.Viewer, id primitive.ObjectID) (models.DeleteUserResult, error) {
	var res models.DeleteUserResult
	if id == s.fallbackAdmin {
		return res, apperror.Conflict("The fallback admin cannot be deleted")
	}
	if id == actor.ID {
		return res, apperror.Forbidden("You cannot delete your own account")
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return res, storeErr("User", err)
	}

	if res.CompaniesReassigned, err = s.companies.ReassignUser(ctx, id, s.fallbackAdmin); err != nil {
		return res, storeErr("Companies", err)
	}
	if target.Role == models.RoleManager {
		if res.AmbassadorsDetached, err = s.users.DetachAmbassadors(ctx, id); err != nil {
			return res, storeErr("Users", err)
		}
	}
	if _, err := s.users.Delete(ctx, id); err != nil {
		return res, storeErr("User", err)
	}
	log.Info().
		Str("user_id", id.Hex()).
		Int64("companies_reassigned", res.CompaniesReassigned).
		Int64("ambassadors_detached", res.AmbassadorsDetached).
		Msg("user deleted")
	return res, nil
}
