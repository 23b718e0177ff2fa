package menu

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FormValues is the input submitted to add or edit a node.
type FormValues struct {
	Name        string `json:"name" validate:"required,min=6,max=50"`
	Link        string `json:"link" validate:"required,min=10,max=50"`
	HasChildren bool   `json:"hasChildren"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError lists the form fields that failed their rules.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"name", "link"} {
		if rule, ok := e.Fields[field]; ok {
			parts = append(parts, field+": "+rule)
		}
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

// Validate checks the name and link length rules.
func (v FormValues) Validate() error {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out.Fields[field] = "required"
		case "min":
			out.Fields[field] = "must be at least " + fe.Param() + " characters"
		case "max":
			out.Fields[field] = "must be at most " + fe.Param() + " characters"
		default:
			out.Fields[field] = fe.Tag()
		}
	}
	return out
}

// FormFor returns the values that prefill the edit form of n.
func FormFor(n *Node) FormValues {
	return FormValues{
		Name:        n.Name,
		Link:        n.Link,
		HasChildren: n.IsContainer(),
	}
}
