package services

import (
	"errors"
	"strconv"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/repositories"
)

// storeErr turns a repository error into an AppError for what.
func storeErr(what string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.NotFound(what)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperror.Conflict(what + " already exists")
	}
	return apperror.Upstream("Failed to access "+what, err)
}

// disallowed returns a 403 naming the first field outside allowed.
func disallowed(fields []string, allowed map[string]bool) error {
	for _, f := range fields {
		if !allowed[f] {
			return apperror.Forbidden("Field not allowed for your role: " + f)
		}
	}
	return nil
}

func fieldIndex(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
