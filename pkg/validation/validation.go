package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const phoneTag = "phone"

var (
	phoneChars = regexp.MustCompile(`^[0-9+\-\s()]{7,20}$`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
)

// customMessages override the stock English texts with the wording used on the site forms.
var customMessages = map[string]string{
	"required": "this field is required",
	"email":    "please enter a valid email address",
	"min":      "must be at least {1} characters",
	"max":      "must be at most {1} characters",
	phoneTag:   "please enter a valid phone number",
	"oneof":    "must be one of: {1}",
}

// Validator wraps go-playground/validator with translated, JSON-named field errors.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator for the given locale. Unknown locales fall back to English.
func New(locale string) *Validator {
	english := en.New()
	uni := ut.New(english, english)
	translator, found := uni.GetTranslator(locale)
	if !found {
		translator, _ = uni.GetTranslator("en")
	}

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(phoneTag, validatePhone)

	for tag, text := range customMessages {
		registerTranslation(validate, translator, tag, text)
	}

	return &Validator{validate: validate, translator: translator}
}

// Engine exposes the underlying validator for services that only need Struct checks.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates s and returns a field → message map, or nil when valid.
func (v *Validator) Struct(s interface{}) (map[string]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out, nil
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// validatePhone accepts loose phone formatting but requires at least one digit.
func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return phoneChars.MatchString(value) && hasDigit.MatchString(value)
}
