package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/pricing"
	"github.com/HSouheill/teamboard_backend/repositories"
	"github.com/HSouheill/teamboard_backend/utils"
	"github.com/HSouheill/teamboard_backend/visibility"
)

// CompanyService manages the company ledger.
type CompanyService struct {
	companies     CompanyStore
	users         UserStore
	fallbackAdmin primitive.ObjectID
	now           func() time.Time
}

func NewCompanyService(companies CompanyStore, users UserStore, fallbackAdmin primitive.ObjectID) *CompanyService {
	return &CompanyService{
		companies:     companies,
		users:         users,
		fallbackAdmin: fallbackAdmin,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func priceFor(plan string, manual *float64) (float64, error) {
	price, err := pricing.Price(plan, manual)
	switch {
	case errors.Is(err, pricing.ErrManualPriceRequired):
		return 0, apperror.Validation("BUSINESS plan requires a positive planPrice",
			apperror.FieldError{Field: "planPrice", Reason: "required"})
	case errors.Is(err, pricing.ErrUnknownPlan):
		return 0, apperror.Validation("Unknown plan", apperror.FieldError{Field: "plan", Reason: "plan"})
	}
	return price, err
}

// resolveRef turns an optional user reference into an id. An omitted reference
// becomes the fallback admin; a supplied one must exist.
func (s *CompanyService) resolveRef(ctx context.Context, raw *string, field string) (primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return s.fallbackAdmin, nil
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid "+field, apperror.FieldError{Field: field, Reason: "objectid"})
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return primitive.NilObjectID, apperror.Validation(field+" does not reference a user",
				apperror.FieldError{Field: field, Reason: "exists"})
		}
		return primitive.NilObjectID, storeErr("User", err)
	}
	return id, nil
}

// managerRef applies the manager rules of actor: a manager always owns what they write.
func (s *CompanyService) managerRef(ctx context.Context, actor models.Viewer, raw *string) (primitive.ObjectID, error) {
	if actor.Role != models.RoleManager {
		return s.resolveRef(ctx, raw, "managerId")
	}
	if raw == nil || *raw == "" {
		return actor.ID, nil
	}
	if *raw != actor.ID.Hex() {
		return primitive.NilObjectID, apperror.Forbidden("Managers can only assign companies to themselves")
	}
	return actor.ID, nil
}

func canWriteCompanies(v models.Viewer) bool {
	return v.Role == models.RoleAdmin || v.Role == models.RoleManager
}

// Create adds a company from the form.
func (s *CompanyService) Create(ctx context.Context, actor models.Viewer, in models.CompanyInput) (*models.Company, error) {
	if !canWriteCompanies(actor) {
		return nil, apperror.Forbidden("Only admins and managers can create companies")
	}
	price, err := priceFor(in.Plan, in.PlanPrice)
	if err != nil {
		return nil, err
	}
	mgr, err := s.managerRef(ctx, actor, in.ManagerID)
	if err != nil {
		return nil, err
	}
	mb, err := s.resolveRef(ctx, in.MarkenbotschafterID, "markenbotschafterId")
	if err != nil {
		return nil, err
	}

	now := s.now()
	created := now
	if in.CreatedAt != nil {
		created = in.CreatedAt.UTC()
	}
	expires := created.AddDate(1, 0, 0)
	if in.ExpirationDate != nil {
		expires = in.ExpirationDate.UTC()
	}

	c := &models.Company{
		Name:                utils.CleanText(in.Name),
		Address:             utils.CleanText(in.Address),
		OwnerName:           utils.CleanText(in.OwnerName),
		Email:               utils.NormalizeEmail(in.Email),
		Phone:               utils.CleanText(in.Phone),
		Plan:                in.Plan,
		PlanPrice:           price,
		ManagerID:           mgr,
		MarkenbotschafterID: mb,
		CreatedAt:           created,
		ExpirationDate:      expires,
		Source:              models.CompanySourceForm,
		UpdatedAt:           now,
	}
	if err := s.companies.Create(ctx, c); err != nil {
		return nil, storeErr("Company", err)
	}
	log.Info().Str("company_id", c.ID.Hex()).Str("plan", c.Plan).Str("actor", actor.ID.Hex()).Msg("company created")
	return c, nil
}

// Get returns a company the viewer may see. Companies out of scope look missing.
func (s *CompanyService) Get(ctx context.Context, viewer models.Viewer, id primitive.ObjectID) (*models.Company, error) {
	c, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("Company", err)
	}
	if !visibility.Companies(viewer).Match(*c) {
		return nil, apperror.NotFound("Company")
	}
	return c, nil
}

func (s *CompanyService) List(ctx context.Context, viewer models.Viewer, q models.CompanyQuery) (models.PagedResult, error) {
	q.PageRequest = q.PageRequest.Normalize()
	scope := visibility.Companies(viewer)
	if scope.Empty() {
		return models.PagedResult{Items: []models.Company{}, Page: q.Page, Limit: q.Limit}, nil
	}
	items, total, err := s.companies.List(ctx, scope, q)
	if err != nil {
		return models.PagedResult{}, storeErr("Companies", err)
	}
	return models.PagedResult{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

// Replace overwrites every mutable field of a company. Managers may only replace
// their own companies and cannot hand them to another manager.
func (s *CompanyService) Replace(ctx context.Context, actor models.Viewer, id primitive.ObjectID, in models.CompanyInput) (*models.Company, error) {
	if !canWriteCompanies(actor) {
		return nil, apperror.Forbidden("Only admins and managers can edit companies")
	}
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	price, err := priceFor(in.Plan, in.PlanPrice)
	if err != nil {
		return nil, err
	}
	mgr, err := s.managerRef(ctx, actor, in.ManagerID)
	if err != nil {
		return nil, err
	}
	mb, err := s.resolveRef(ctx, in.MarkenbotschafterID, "markenbotschafterId")
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":                utils.CleanText(in.Name),
		"address":             utils.CleanText(in.Address),
		"ownerName":           utils.CleanText(in.OwnerName),
		"email":               utils.NormalizeEmail(in.Email),
		"phone":               utils.CleanText(in.Phone),
		"plan":                in.Plan,
		"planPrice":           price,
		"managerId":           mgr,
		"markenbotschafterId": mb,
	}
	if in.CreatedAt != nil {
		set["createdAt"] = in.CreatedAt.UTC()
	}
	if in.ExpirationDate != nil {
		set["expirationDate"] = in.ExpirationDate.UTC()
	}
	updated, err := s.companies.Replace(ctx, current.ID, set)
	if err != nil {
		return nil, storeErr("Company", err)
	}
	return updated, nil
}

func (s *CompanyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.companies.Delete(ctx, id)
	if err != nil {
		return storeErr("Company", err)
	}
	if !ok {
		return apperror.NotFound("Company")
	}
	return nil
}

// SetCommissionPaid toggles the company commission paid flag.
func (s *CompanyService) SetCommissionPaid(ctx context.Context, id primitive.ObjectID, paid bool) (*models.Company, error) {
	c, err := s.companies.SetCommissionPaid(ctx, id, paid)
	if err != nil {
		return nil, storeErr("Company", err)
	}
	return c, nil
}
