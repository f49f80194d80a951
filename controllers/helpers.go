package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/middleware"
	"github.com/HSouheill/teamboard_backend/models"
)

const maxBodyBytes = 1 << 20

// defaultTimeout bounds store calls of a handler when none is configured.
const defaultTimeout = 10 * time.Second

// bindStrict decodes the JSON body into v, rejecting unknown fields, then validates it.
func bindStrict(c echo.Context, v interface{}) error {
	body := c.Request().Body
	if body == nil {
		return apperror.InvalidBody(errors.New("empty body"))
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.InvalidBody(err)
	}
	if err := c.Validate(v); err != nil {
		return apperror.FromValidation(err)
	}
	return nil
}

// reqCtx derives the store context of a request.
func reqCtx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func viewer(c echo.Context) (models.Viewer, error) {
	v, ok := middleware.ViewerFrom(c)
	if !ok {
		return models.Viewer{}, apperror.Unauthenticated("Authentication required")
	}
	return v, nil
}

func pathID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid "+name,
			apperror.FieldError{Field: name, Reason: "objectid"})
	}
	return id, nil
}

// queryTime parses an optional RFC 3339 or YYYY-MM-DD query parameter.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.Validation("Invalid "+name, apperror.FieldError{Field: name, Reason: "datetime"})
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation("Invalid "+name, apperror.FieldError{Field: name, Reason: "boolean"})
	}
	return &b, nil
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func pageFrom(c echo.Context) models.PageRequest {
	return models.PageRequest{Page: queryInt(c, "page"), Limit: queryInt(c, "limit")}.Normalize()
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{Status: status, Message: message, Data: data})
}

func ok(c echo.Context, message string, data interface{}) error {
	return respond(c, http.StatusOK, message, data)
}
