// Package catalog exposes the cost engine to its callers: supplier, raw
// material, recipe and cost product workflows, plus the cascade that keeps
// every cached cost and price consistent with its upstream inputs.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service is an explicit service object over an injected database handle.
// No package-level state: tests construct one per fixture.
type Service struct {
	db       *sql.DB
	log      zerolog.Logger
	validate *validator.Validate
}

// New builds a Service over the given database handle.
func New(database *sql.DB, log zerolog.Logger) *Service {
	return &Service{
		db:       database,
		log:      log,
		validate: validator.New(),
	}
}

// ValidationError reports which input field failed validation at the
// create/update boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// check validates an input struct and converts the first failing field into
// a ValidationError.
func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Reason: reason}
	}
	return fmt.Errorf("validate input: %w", err)
}
