package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
	eqFieldTag      = "eqfield"
	eqFieldText     = "the two password fields didn't match"
)

func init() {
	Validate = validator.New()
	enLocale := en.New()
	Translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	InitValidators(Validate, Translator)
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldErrors translates validation errors into a field -> message map.
// ok is false when err does not hold field errors.
func FieldErrors(err error) (fields map[string]string, ok bool) {
	switch verr := err.(type) {
	case validator.ValidationErrors:
		fields = make(map[string]string, len(verr))
		for _, fe := range verr {
			fields[fe.Field()] = fe.Translate(Translator)
		}
		return fields, true
	case *ValidationError:
		if len(verr.Fields) == 0 {
			return nil, false
		}
		fields = make(map[string]string, len(verr.Fields))
		for _, fe := range verr.Fields {
			fields[fe.Field] = fe.Error
		}
		return fields, true
	}
	return nil, false
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
