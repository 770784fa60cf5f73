package service

import (
	"github.com/kodkids/site-api/pkg/validation"

	appErrors "github.com/kodkids/site-api/pkg/errors"
)

// validateStruct runs v over payload and turns field failures into a VALIDATION_ERROR carrying
// one message per JSON field.
func validateStruct(v *validation.Validator, payload interface{}, message string) error {
	fields, err := v.Struct(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	if len(fields) == 0 {
		return nil
	}
	verr := appErrors.WithFields(appErrors.ErrValidation, fields)
	verr.Message = message
	return verr
}
