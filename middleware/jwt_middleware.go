// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
)

const viewerKey = "viewer"

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Revocations reports logged-out tokens.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// UserFinder loads the live user record behind a token.
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// GenerateJWT signs a token for u that expires after ttl.
func GenerateJWT(secret string, u models.User, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("JWT secret is not configured")
	}
	now := time.Now()
	expires := now.Add(ttl)
	claims := &JwtCustomClaims{
		UserID: u.ID.Hex(),
		Email:  u.Email,
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expires.Unix(),
			IssuedAt:  now.Unix(),
			Subject:   u.ID.Hex(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// JWTMiddleware validates the bearer token, rejects revoked tokens and inactive users,
// and stores the caller as a models.Viewer. Websocket clients may pass ?token=.
func JWTMiddleware(secret string, revoked Revocations, users UserFinder) echo.MiddlewareFunc {
	verify := echoMiddleware.JWTWithConfig(echoMiddleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		Claims:        &JwtCustomClaims{},
		TokenLookup:   "header:Authorization,query:token",
		ErrorHandler: func(err error) error {
			log.Debug().Err(err).Msg("JWT rejected")
			return apperror.Unauthenticated("Invalid or expired token")
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return apperror.Unauthenticated("Invalid or expired token")
			}
			claims, ok := token.Claims.(*JwtCustomClaims)
			if !ok {
				return apperror.Unauthenticated("Invalid or expired token")
			}
			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil || !models.IsValidRole(claims.Role) {
				return apperror.Unauthenticated("Invalid or expired token")
			}

			ctx := c.Request().Context()
			if revoked != nil {
				gone, err := revoked.IsRevoked(ctx, token.Raw)
				if err != nil {
					// a Redis outage must not lock everybody out
					log.Warn().Err(err).Msg("token revocation check failed")
				} else if gone {
					return apperror.Unauthenticated("Token has been invalidated")
				}
			}

			if users != nil {
				u, err := users.FindByID(ctx, id)
				switch {
				case errors.Is(err, repositories.ErrNotFound):
					return apperror.Unauthenticated("User account is inactive or deleted")
				case err != nil:
					return apperror.Upstream("Failed to load user", err)
				case !u.IsActive:
					return apperror.Unauthenticated("User account is inactive or deleted")
				}
				// role changes take effect without a new login
				claims.Role = u.Role
			}

			c.Set(viewerKey, models.Viewer{ID: id, Email: claims.Email, Role: claims.Role})
			return next(c)
		})
	}
}

// ViewerFrom returns the authenticated caller.
func ViewerFrom(c echo.Context) (models.Viewer, bool) {
	v, ok := c.Get(viewerKey).(models.Viewer)
	return v, ok
}

// SetViewer stores v as the authenticated caller.
func SetViewer(c echo.Context, v models.Viewer) {
	c.Set(viewerKey, v)
}

// TokenFrom returns the raw token and its expiry.
func TokenFrom(c echo.Context) (string, time.Time, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "", time.Time{}, false
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return "", time.Time{}, false
	}
	return token.Raw, time.Unix(claims.ExpiresAt, 0), true
}

// RequireRole checks that the caller has one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := ViewerFrom(c)
			if !ok {
				return apperror.Unauthenticated("Authentication required")
			}
			for _, r := range roles {
				if v.Role == r {
					return next(c)
				}
			}
			log.Info().Str("user_id", v.ID.Hex()).Str("role", v.Role).Str("path", c.Path()).Msg("access denied for role")
			return apperror.Forbidden("Access denied for role " + v.Role + ", requires " + strings.Join(roles, " or "))
		}
	}
}

// RequireAdmin is RequireRole(admin).
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}
