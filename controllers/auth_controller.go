// controllers/auth_controller.go
package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/middleware"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

// AuthController handles signup, login and logout.
type AuthController struct {
	users   *services.UserService
	tokens  *services.TokenBlacklist
	secret  string
	ttl     time.Duration
	timeout time.Duration
}

func NewAuthController(users *services.UserService, tokens *services.TokenBlacklist, secret string, ttl, timeout time.Duration) *AuthController {
	return &AuthController{users: users, tokens: tokens, secret: secret, ttl: ttl, timeout: timeout}
}

func (ac *AuthController) issue(c echo.Context, status int, message string, u *models.User) error {
	token, expires, err := middleware.GenerateJWT(ac.secret, *u, ac.ttl)
	if err != nil {
		return apperror.New(http.StatusInternalServerError, apperror.TypeUpstream, "Failed to generate token", err)
	}
	return respond(c, status, message, models.LoginResponse{Token: token, ExpiresAt: expires, User: *u})
}

// Signup registers a customer account and logs it in.
func (ac *AuthController) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, ac.timeout)
	defer cancel()

	u, err := ac.users.Signup(ctx, req)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", u.ID.Hex()).Msg("user signed up")
	return ac.issue(c, http.StatusCreated, "Signup successful", u)
}

// Login exchanges email and password for a token.
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, ac.timeout)
	defer cancel()

	u, err := ac.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		log.Info().Str("ip", c.RealIP()).Msg("failed login")
		return err
	}
	return ac.issue(c, http.StatusOK, "Login successful", u)
}

// Logout revokes the presented token until it expires.
func (ac *AuthController) Logout(c echo.Context) error {
	raw, expires, found := middleware.TokenFrom(c)
	if !found {
		return apperror.Unauthenticated("Authentication required")
	}
	ctx, cancel := reqCtx(c, ac.timeout)
	defer cancel()

	if err := ac.tokens.Revoke(ctx, raw, expires); err != nil {
		return apperror.Upstream("Failed to log out", err)
	}
	return ok(c, "Logged out successfully", nil)
}

// Me returns the live record of the caller.
func (ac *AuthController) Me(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, ac.timeout)
	defer cancel()

	u, err := ac.users.Get(ctx, v, v.ID)
	if err != nil {
		return err
	}
	return ok(c, "User retrieved successfully", u)
}
