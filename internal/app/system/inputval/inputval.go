// Package inputval validates request payloads.
//
// Struct validation uses go-playground/validator with English translations and
// JSON tag names, so a failure message names the field the client sent.
package inputval

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

const notBlankTag = "notblank"

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if s, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return false
	})
	_ = validate.RegisterValidation("email_addr", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && IsValidEmail(s)
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut ut.Translator) error { return ut.Add(notBlankTag, "{0} cannot be blank", true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(notBlankTag, fe.Field())
			return t
		})
	_ = validate.RegisterTranslation("email_addr", translator,
		func(ut ut.Translator) error { return ut.Add("email_addr", "{0} must be a valid email address", true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("email_addr", fe.Field())
			return t
		})
}

// FieldError is one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for any invalid client input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Field builds a ValidationError for a single field.
func Field(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Required is the error for a missing field.
func Required(field string) error {
	return Field(field, field+" is a required field")
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate runs the struct's validate tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(translator),
		})
	}
	return out
}

// ObjectID parses a hex id, reporting a missing or malformed value against field.
func ObjectID(field, hex string) (primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return primitive.NilObjectID, Required(field)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, Field(field, field+" is not a valid id")
	}
	return id, nil
}

// OptionalObjectID is ObjectID for fields that may be absent.
func OptionalObjectID(field, hex string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return nil, nil
	}
	id, err := ObjectID(field, hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// IsValidEmail reports whether s is a bare addr-spec (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if !dotSeparated(local) || !dotSeparated(domain) {
		return false
	}
	for _, r := range local {
		if !isAtext(r) && r != '.' {
			return false
		}
	}
	for _, r := range domain {
		if !(r == '-' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func dotSeparated(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

func isAtext(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+/=?^_`{|}~-", r)
}
