// Package inputval validates decoded request bodies with struct tags and
// turns failures into messages a client can show next to a field.
//
// Fields carry a `validate` tag (go-playground/validator rules plus the custom
// rules registered here) and an optional `label` tag used in messages. The
// json tag name is reported as the field key.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the failures for one value.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// Fields maps field key to its first message.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// MaxPasswordBytes is the longest input bcrypt accepts. Multi-byte
// characters count once per byte.
const MaxPasswordBytes = 72

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxPasswordBytes
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return models.IsValidTaskStatus(fl.Field().String())
		})
	})
	return v
}

// Validate runs the tag rules on s, which must be a struct or a pointer to
// one. Messages appear in field declaration order.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		label := fe.Field()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if l := sf.Tag.Get("label"); l != "" {
				label = l
			}
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Message: message(fe, label),
		})
	}
	return res
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "bcryptlen":
		return fmt.Sprintf("%s must be at most %d bytes.", label, MaxPasswordBytes)
	case "taskstatus":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(statusNames(), ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid."
	}
}

func statusNames() []string {
	out := make([]string, len(models.AllTaskStatuses))
	for i, s := range models.AllTaskStatuses {
		out[i] = string(s)
	}
	return out
}
