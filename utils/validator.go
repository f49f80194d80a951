package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewValidator builds the request validator. Field errors are reported under their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	rules := map[string]func(string) bool{
		"role":       models.IsValidRole,
		"plan":       models.IsValidPlan,
		"priority":   models.IsValidPriority,
		"taskstatus": models.IsValidTaskStatus,
		"objectid":   primitive.IsValidObjectID,
	}
	for tag, ok := range rules {
		ok := ok
		// registration only fails on an empty tag
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		})
	}
	return &CustomValidator{validator: v}
}
