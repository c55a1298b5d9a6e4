package bloom

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultError is the false-positive rate applied when Params.Error
// is left at its zero value.
const DefaultError = 0.005

var fieldValidate = validator.New()

// Params are the construction arguments for a single Filter, per the
// "Construction parameters" table in the external interface contract.
type Params struct {
	// Capacity is the expected number of unique items within one decay_time.
	Capacity int `validate:"required,gt=0"`
	// DecayTime is the freshness window.
	DecayTime time.Duration `validate:"required,gt=0"`
	// Error is the target false-positive rate at Capacity.
	Error float64 `validate:"gt=0,lt=1"`
}

func (p Params) withDefaults() Params {
	if p.Error == 0 {
		p.Error = DefaultError
	}
	return p
}

func validateParams(p Params) error {
	err := fieldValidate.Struct(p)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &ParameterError{Field: fe.Field(), Value: fe.Value(), Reason: reasonForTag(fe.Tag())}
	}
	return &ParameterError{Field: "Params", Value: p, Reason: err.Error()}
}

func reasonForTag(tag string) string {
	switch tag {
	case "required":
		return "must be set"
	case "gt":
		return "must be greater than zero"
	case "lt":
		return "must be less than one"
	default:
		return tag
	}
}
