// Package validation wraps go-playground/validator with the onboarding field rules.
package validation

import (
	"encoding/base64"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern  = regexp.MustCompile(`^(\+62|62|0)8[0-9]{7,12}$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)

	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator with custom tags registered
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", isPhone)
		_ = v.RegisterValidation("person_name", isPersonName)
		_ = v.RegisterValidation("digits", isDigits)
		_ = v.RegisterValidation("base64_image", isBase64Image)
		_ = v.RegisterValidation("strong_password", isStrongPassword)
		validate = v
	})
	return validate
}

// Validate checks v and returns field errors keyed by json name, or nil
func Validate(v any) map[string]string {
	err := Get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"request": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return label + " is required"
	case "email":
		return "Invalid email format"
	case "phone":
		return "Invalid phone number"
	case "person_name":
		return label + " may only contain letters, spaces and . ' -"
	case "digits":
		return label + " may only contain digits"
	case "base64_image":
		return label + " must be a base64 encoded JPEG or PNG image"
	case "strong_password":
		return "Password must be at least 8 characters and contain letters and digits"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case "len":
		return label + " must be exactly " + fe.Param() + " characters"
	case "oneof":
		return label + " must be one of " + fe.Param()
	case "gte":
		return label + " must be greater than or equal to " + fe.Param()
	case "lte":
		return label + " must be less than or equal to " + fe.Param()
	case "datetime":
		return label + " must be a date formatted as YYYY-MM-DD"
	}
	return "Invalid value"
}

// humanize turns "bank_account_holder" into "Bank account holder"
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
}

func isDigits(fl validator.FieldLevel) bool {
	return digitsPattern.MatchString(fl.Field().String())
}

func isPersonName(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '.' || r == '\'' || r == '-' || r == ',' {
			continue
		}
		return false
	}
	return true
}

func isStrongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	return letter && digit
}

// isBase64Image accepts raw base64 or a data URI holding a JPEG or PNG
func isBase64Image(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return false
		}
		header := s[:comma]
		if !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return false
		}
		s = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}
	return IsJPEG(data) || IsPNG(data)
}

// IsJPEG reports whether data starts with the JPEG SOI marker
func IsJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// IsPNG reports whether data starts with the PNG signature
func IsPNG(data []byte) bool {
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	if len(data) < len(sig) {
		return false
	}
	for i, b := range sig {
		if data[i] != b {
			return false
		}
	}
	return true
}
