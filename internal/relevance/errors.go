package relevance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyIntent is returned for requests without an intent.
	ErrEmptyIntent = errors.New("intent is required")

	// ErrProviderUnavailable matches any *ProviderError with
	// CodeProviderUnavailable.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// CodeProviderUnavailable marks a required provider that is not configured.
const CodeProviderUnavailable = "provider_unavailable"

// ProviderError describes a provider that could not serve an operation.
type ProviderError struct {
	Code     string         `json:"code"`
	Provider string         `json:"provider"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrProviderUnavailable) recognise the error.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable && e.Code == CodeProviderUnavailable
}

func newProviderUnavailable(provider, operation string) *ProviderError {
	return &ProviderError{
		Code:     CodeProviderUnavailable,
		Provider: provider,
		Message:  fmt.Sprintf("%s requires a %s provider but none is configured", operation, provider),
		Details:  map[string]any{"operation": operation},
	}
}

var validate = validator.New()

// validateStruct runs tag validation and flattens the errors into one.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid %T: %s", s, strings.Join(msgs, "; "))
}
