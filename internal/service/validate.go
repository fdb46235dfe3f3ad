package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"topoview/internal/domain"
	"topoview/internal/layout"
)

// ErrInvalidParams is returned when layout parameters fail validation
var ErrInvalidParams = errors.New("invalid layout parameters")

// validate is a singleton validator instance
var validate = validator.New()

// ValidateParams checks layout parameters against their struct tags
func ValidateParams(params *domain.LayoutParams) error {
	if params == nil {
		return fmt.Errorf("%w: parameters cannot be nil", ErrInvalidParams)
	}
	if err := validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, formatValidationError(err))
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Report the first failing field
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// ParamsFromOptions converts engine options to their API form
func ParamsFromOptions(opts layout.Options) domain.LayoutParams {
	return domain.LayoutParams{
		Iterations: opts.Iterations,
		Repulsion:  opts.Repulsion,
		Attraction: opts.Attraction,
		Damping:    opts.Damping,
		Radius:     opts.Radius,
	}
}

// OptionsFromParams converts API parameters to engine options
func OptionsFromParams(params domain.LayoutParams) layout.Options {
	return layout.Options{
		Iterations: params.Iterations,
		Repulsion:  params.Repulsion,
		Attraction: params.Attraction,
		Damping:    params.Damping,
		Radius:     params.Radius,
	}
}
