// Package apperror maps validation failures to the user-facing messages the
// API returns.
package apperror

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AnshRaj112/tastetracker-backend/pkg/utils"
)

// ValidationError is a request problem the caller can fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

const (
	msgRatingRange    = "Rating must be between 1 and 5"
	msgPriceRange     = "Price level must be between 1 and 4"
	msgLatitudeRange  = "Latitude must be between -90 and 90"
	msgLongitudeRange = "Longitude must be between -180 and 180"
)

var customErrors = map[string]string{
	"EntryInput.RestaurantName.notblank": "Restaurant name is required",
	"EntryInput.Location.notblank":       "Location is required",
	"EntryInput.FoodQualityRating.gte":   msgRatingRange,
	"EntryInput.FoodQualityRating.lte":   msgRatingRange,
	"EntryInput.PriceLevel.gte":          msgPriceRange,
	"EntryInput.PriceLevel.lte":          msgPriceRange,
	"EntryInput.Latitude.gte":            msgLatitudeRange,
	"EntryInput.Latitude.lte":            msgLatitudeRange,
	"EntryInput.Longitude.gte":           msgLongitudeRange,
	"EntryInput.Longitude.lte":           msgLongitudeRange,
	"PushTokenRequest.Token.notblank":    "Push token is required",
}

// NewValidator returns a validator with the custom tags registered and
// json tag names reported as field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// registration only fails for an empty tag or a nil func
	_ = v.RegisterValidation("notblank", NotBlank)
	_ = v.RegisterValidation("emailfmt", EmailFormat)
	return v
}

// NotBlank rejects strings that are empty after trimming.
var NotBlank = func(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

var EmailFormat = func(fl validator.FieldLevel) bool {
	return utils.IsValidEmail(fl.Field().String())
}

// FromValidator converts the first validator failure into a ValidationError.
// Other errors are returned unchanged.
func FromValidator(err error) error {
	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) || len(validationErr) == 0 {
		return err
	}
	e := validationErr[0]
	return &ValidationError{Field: e.Field(), Message: message(e)}
}

// Messages lists every validator failure keyed by field name.
func Messages(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, e := range validationErr {
			errList = append(errList, map[string]string{e.Field(): message(e)})
		}
	}
	return errList
}

func message(e validator.FieldError) string {
	key := e.StructNamespace() + "." + e.Tag()
	if v, ok := customErrors[key]; ok {
		return v
	}
	return fmt.Sprintf("%s is invalid", e.Field())
}
