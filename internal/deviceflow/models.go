// Package deviceflow implements the client half of the OAuth 2.0 Device
// Authorization Grant per RFC 8628: it requests a device code from an
// identity provider and polls the token endpoint until the user completes
// authorization out of band.
package deviceflow

import (
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Provider is the configuration of one identity provider, owned by a single
// user. It is loaded fresh from the store at the start of every
// authentication attempt and never written back.
type Provider struct {
	// Name is the store key, unique per username. It is not part of the
	// stored configuration payload.
	Name string `json:"-"`

	RequestURL string `json:"request_url"` // device authorization endpoint
	PollURL    string `json:"poll_url"`    // token endpoint
	UserURL    string `json:"user_url"`    // verification URI shown to the user

	// RequestArguments must contain client_id and scope.
	RequestArguments map[string]string `json:"request_arguments"`

	// PollArguments is sent verbatim to the token endpoint. The flow adds
	// device_code to it exactly once, after device authorization succeeds.
	PollArguments map[string]string `json:"poll_arguments"`
}

// Authorization is the device authorization response per RFC 8628 section 3.2.
type Authorization struct {
	// DeviceCode is opaque and used only in polling requests.
	DeviceCode string

	// UserCode is the short code the user enters on their second device.
	UserCode string
}

// TokenResponse is the decoded body of a successful token endpoint reply.
type TokenResponse map[string]string

// AccessToken returns the granted access token, if any.
func (r TokenResponse) AccessToken() string { return r["access_token"] }

// Token converts the response into an oauth2 token for callers that hand the
// credential to standard OAuth2 tooling.
func (r TokenResponse) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r["access_token"],
		TokenType:    r["token_type"],
		RefreshToken: r["refresh_token"],
	}
	if s, ok := r["expires_in"]; ok {
		if secs, err := strconv.Atoi(s); err == nil {
			tok.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return tok
}
