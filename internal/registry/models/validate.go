package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "arefa/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims the free-text identity fields.
func (t *Trader) Normalize() {
	t.Identity.normalize()
}

// Validate enforces the required identity fields.
func (t *Trader) Validate() error {
	return validationError(validate.Struct(t))
}

// Normalize trims the identity fields and defaults the establishment type.
func (o *Operator) Normalize() {
	o.Identity.normalize()
	o.Statut = strings.TrimSpace(o.Statut)
	if o.Statut == "" {
		o.Statut = DefaultOperatorType
	}
}

func (o *Operator) Validate() error {
	return validationError(validate.Struct(o))
}

func (i *Identity) normalize() {
	i.NomPrenom = strings.TrimSpace(i.NomPrenom)
	i.Telephone = strings.TrimSpace(i.Telephone)
	i.Email = strings.TrimSpace(i.Email)
}

// validationError turns validator output into a single domain error naming
// the offending JSON keys.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid record")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(Statuts, ", "))
	default:
		return name + " is invalid"
	}
}

// jsonName lowercases the first rune of the Go field name, which matches
// the camelCase wire keys of every validated field.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
