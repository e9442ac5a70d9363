// Package validation checks identity provider configuration before it is
// stored or used for a login attempt.
package validation

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/idpauth/devicelogin/internal/deviceflow"
)

// Required request argument keys per RFC 8628 section 3.1
var requiredRequestArguments = []string{"client_id", "scope"}

// ValidationError describes one invalid field in a provider configuration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid provider field %q: %s", e.Field, e.Message)
}

// ValidateProvider checks that a decoded configuration is complete enough to
// run a device flow: all three endpoints are absolute http(s) URLs and the
// request arguments carry the keys the device authorization request needs.
func ValidateProvider(p *deviceflow.Provider) error {
	endpoints := []struct {
		field string
		value string
	}{
		{"request_url", p.RequestURL},
		{"poll_url", p.PollURL},
		{"user_url", p.UserURL},
	}
	for _, e := range endpoints {
		if err := validateEndpoint(e.field, e.value); err != nil {
			return err
		}
	}

	for _, key := range requiredRequestArguments {
		if p.RequestArguments[key] == "" {
			return &ValidationError{
				Field:   "request_arguments",
				Message: fmt.Sprintf("missing %s", key),
			}
		}
	}
	return nil
}

// ValidateConfig decodes a raw JSON configuration payload and validates it.
// The management CLI runs this before storing anything, so a broken payload
// is caught at registration time instead of at login time.
func ValidateConfig(raw []byte) error {
	var p deviceflow.Provider
	if err := json.Unmarshal(raw, &p); err != nil {
		return &ValidationError{Field: "params", Message: err.Error()}
	}
	return ValidateProvider(&p)
}

func validateEndpoint(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "required"}
	}
	u, err := url.Parse(value)
	if err != nil {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: field, Message: "must be an absolute http(s) URL"}
	}
	if u.Host == "" {
		return &ValidationError{Field: field, Message: "missing host"}
	}
	return nil
}
