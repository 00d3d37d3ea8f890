package types

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validation constraint constants.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the module's custom tags
// registered ("gridstep").
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation("gridstep", func(fl validator.FieldLevel) bool {
			return GridStep(fl.Field().Float()).IsSelectable()
		})
		validate = v
	})
	return validate
}

// ValidateCoordinate checks that c is a finite point within the lat/lon bounds.
func ValidateCoordinate(c Coordinate) error {
	err := Validator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if fieldErrs[0].Field() == "Lon" {
			return NewAppError(
				ErrCodeValidationInvalidLon,
				fmt.Sprintf("longitude must be between %.0f and %.0f", MinLon, MaxLon),
				err,
			)
		}
	}
	return NewAppError(
		ErrCodeValidationInvalidLat,
		fmt.Sprintf("latitude must be between %.0f and %.0f", MinLat, MaxLat),
		err,
	)
}

// ValidateGridStep checks that s is one of GridStepMenu.
func ValidateGridStep(s GridStep) error {
	if err := Validator().Var(float64(s), "gridstep"); err != nil {
		return NewAppError(
			ErrCodeValidationGridStep,
			fmt.Sprintf("grid step %v is not one of %v", float64(s), GridStepMenu),
			err,
		)
	}
	return nil
}
