// controllers/user_controller.go
package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

type UserController struct {
	users   *services.UserService
	timeout time.Duration
}

func NewUserController(users *services.UserService, timeout time.Duration) *UserController {
	return &UserController{users: users, timeout: timeout}
}

// CreateUser adds a team member. Admin only.
func (uc *UserController) CreateUser(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	u, err := uc.users.Create(ctx, req)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", u.ID.Hex()).Str("role", u.Role).Msg("user created")
	return respond(c, http.StatusCreated, "User created successfully", u)
}

// GetAllUsers lists the users visible to the caller, optionally narrowed by ?role=.
func (uc *UserController) GetAllUsers(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	role := c.QueryParam("role")
	if role != "" && !models.IsValidRole(role) {
		return apperror.Validation("Invalid role", apperror.FieldError{Field: "role", Reason: "role"})
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	page, err := uc.users.List(ctx, v, role, pageFrom(c))
	if err != nil {
		return err
	}
	return ok(c, "Users retrieved successfully", page)
}

func (uc *UserController) GetUser(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	u, err := uc.users.Get(ctx, v, id)
	if err != nil {
		return err
	}
	return ok(c, "User retrieved successfully", u)
}

// UpdateUser applies a partial update. Non-admins may only edit their own contact fields.
func (uc *UserController) UpdateUser(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.UserPatch
	if err := bindStrict(c, &patch); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	u, err := uc.users.Update(ctx, v, id, patch)
	if err != nil {
		return err
	}
	return ok(c, "User updated successfully", u)
}

// DeleteUser removes a user and hands their companies to the fallback admin.
func (uc *UserController) DeleteUser(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	res, err := uc.users.Delete(ctx, v, id)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", id.Hex()).Str("by", v.ID.Hex()).
		Int64("companies_reassigned", res.CompaniesReassigned).
		Int64("ambassadors_detached", res.AmbassadorsDetached).
		Msg("user deleted")
	return ok(c, "User deleted successfully", res)
}

// SetTeamFeeStatus toggles statusProvisionenMarkenbotschafter. Admin only.
func (uc *UserController) SetTeamFeeStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req models.CommissionStatusRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, uc.timeout)
	defer cancel()

	u, err := uc.users.SetTeamFeePaid(ctx, id, *req.Paid)
	if err != nil {
		return err
	}
	return ok(c, "Team fee status updated", u)
}
