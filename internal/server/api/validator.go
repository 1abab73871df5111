package api

import (
	"github.com/go-playground/validator/v10"
)

// CompressForm holds the preset fields of a /compress request.
type CompressForm struct {
	Resolution string `validate:"omitempty,oneof=unchanged print ebook screen"`
	Quality    string `validate:"omitempty,oneof=very_high high medium"`
}

// formValidator adapts go-playground/validator to echo.Validator.
type formValidator struct {
	v *validator.Validate
}

func newFormValidator() *formValidator {
	return &formValidator{v: validator.New()}
}

func (fv *formValidator) Validate(i interface{}) error {
	return fv.v.Struct(i)
}

func validationErrorsToMap(err error) map[string]string {
	errs := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			switch e.Tag() {
			case "oneof":
				errs[e.Field()] = "must be one of: " + e.Param()
			default:
				errs[e.Field()] = "invalid value"
			}
		}
	} else {
		errs["error"] = err.Error()
	}
	return errs
}
