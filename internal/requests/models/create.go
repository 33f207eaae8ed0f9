package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	})
	return v
}

// CreateRequest asks the holder of an inventory entry for that blueprint.
// RequestedRuns of 0 asks for the maximum.
type CreateRequest struct {
	BlueprintID   string `json:"blueprint_id" validate:"required"`
	RequestedRuns int    `json:"requested_runs" validate:"gte=0"`

	blueprintID id.BlueprintID
}

// Validate normalizes and checks the command.
func (c *CreateRequest) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	c.BlueprintID = strings.TrimSpace(c.BlueprintID)
	if err := validate.Struct(c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}
	bpID, err := id.ParseBlueprintID(c.BlueprintID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "blueprint_id must be a valid id")
	}
	c.blueprintID = bpID
	return nil
}

// Blueprint returns the parsed blueprint id. Call Validate first.
func (c *CreateRequest) Blueprint() id.BlueprintID {
	return c.blueprintID
}

// CheckRuns validates the requested runs against the entry being requested.
// Originals can be copied with any run count; copies cannot hand out more
// runs than they have.
func (c *CreateRequest) CheckRuns(bp *Blueprint) error {
	if !bp.IsOriginal() && c.RequestedRuns > bp.Runs {
		return dErrors.New(dErrors.CodeValidation, "requested_runs exceeds the runs on the copy")
	}
	return nil
}

// validationMessage reports the first failing field by its JSON name.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	return fe.Field() + " failed " + fe.Tag() + " validation"
}
