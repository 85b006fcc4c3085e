// Package form validates blog submissions before they reach the store.
package form

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

// dateLayout is the publish date format.
const dateLayout = "2006-01-02"

// Error lists the rejected fields with a message for each. It matches
// apperr.ErrValidation.
type Error struct {
	Fields map[string]string `json:"fields"`
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool {
	return target == apperr.ErrValidation
}

// ValidateCreate checks a new blog. Title and description are required.
func ValidateCreate(f models.Fields) error {
	return validate(f, true)
}

// ValidateUpdate checks a partial edit. Only submitted fields are checked,
// but a submitted title or description may not be blank.
func ValidateUpdate(f models.Fields) error {
	return validate(f, false)
}

func validate(f models.Fields, create bool) error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title,
			validation.When(create, validation.Required.Error("title is required")),
			validation.By(notBlank("title is required")),
		),
		validation.Field(&f.Description,
			validation.When(create, validation.Required.Error("description is required")),
			validation.By(notBlank("description is required")),
		),
		validation.Field(&f.Status,
			validation.When(f.Status != nil, validation.Required.Error("status must be Draft or Published")),
			validation.In(models.StatusDraft, models.StatusPublished).Error("status must be Draft or Published"),
		),
		validation.Field(&f.PublishDate,
			validation.Date(dateLayout).Error("publish date must be YYYY-MM-DD"),
		),
		validation.Field(&f.Image,
			validation.By(imageRule),
		),
	)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(errs))}
	for name, fieldErr := range errs {
		out.Fields[name] = fieldErr.Error()
	}
	return out
}

// notBlank rejects a submitted string that is only whitespace. The value
// itself is stored untrimmed.
func notBlank(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		v, isNil := validation.Indirect(value)
		s, ok := v.(string)
		if isNil || !ok {
			return nil
		}
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func imageRule(value interface{}) error {
	v, isNil := validation.Indirect(value)
	s, ok := v.(string)
	if isNil || !ok || s == "" {
		return nil
	}
	return ValidateImage(s)
}
