package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/go-playground/validator/v10"
)

var (
	hhmmRegexp         = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)
	languageRegexp     = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)
	placeholdersRegexp = regexp.MustCompile(`^[^{}]*(\{\{[a-zA-Z0-9_]+\}\}[^{}]*)*$`)
	identifierRegexp   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	rules := map[string]func(string) bool{
		"hhmm":              func(s string) bool { return s == "" || HHMM(s) },
		"language":          Language,
		"placeholders":      Placeholders,
		"identifier":        Identifier,
		"notification_type": func(s string) bool { return entity.NotificationType(s).Valid() },
		"channel":           func(s string) bool { return entity.Channel(s).Valid() },
		"priority":          func(s string) bool { return entity.Priority(s).Valid() },
	}
	for tag, rule := range rules {
		rule := rule
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		})
	}
	return v
}

// Struct validates s against its `validate` tags and reports the first
// violation as an *errorz.ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return errorz.NewValidationError(fieldPath(fe.Namespace()), describe(fe))
	}
	return errorz.NewValidationError("", err.Error())
}

// HHMM reports whether s is a wall-clock time such as 09:30.
func HHMM(s string) bool {
	return hhmmRegexp.MatchString(s)
}

// Language reports whether s is a language tag such as pt-BR.
func Language(s string) bool {
	return languageRegexp.MatchString(s)
}

// Placeholders reports whether every brace in s belongs to a well-formed {{name}} placeholder.
func Placeholders(s string) bool {
	return placeholdersRegexp.MatchString(s)
}

func Identifier(s string) bool {
	return identifierRegexp.MatchString(s)
}

func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "hhmm":
		return "must be in HH:mm format"
	case "language":
		return "must look like xx-YY"
	case "placeholders":
		return "contains malformed placeholders"
	case "identifier":
		return "must contain only letters, digits and underscores"
	case "notification_type":
		return "unknown notification type"
	case "channel":
		return "unknown channel"
	case "priority":
		return "unknown priority"
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
