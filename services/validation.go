package services

import (
	"errors"
	"reflect"
	"strings"

	"speed-api/models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

var validate, translator = newValidator()

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New()
	// Report fields by their wire name: json for bodies, form for query strings.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}
	return v, trans
}

// validateStruct runs the `validate` tags of req and reports the offending fields.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	fields := make([]string, 0, len(verrs))
	details := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := details[name]; !seen {
			fields = append(fields, name)
		}
		details[name] = append(details[name], fe.Translate(translator))
	}
	return models.ErrorValidation{Message: "validation failed", Fields: fields, Details: details}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
