package deviceflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// Client speaks the outbound half of the device authorization grant against
// a provider's endpoints. It issues plain form-encoded POST requests and
// performs no retries of its own.
type Client struct {
	http *http.Client
}

// NewClient creates a client. A nil httpClient selects a default with a
// request timeout, so a stalled provider cannot hang an attempt forever.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{http: httpClient}
}

// RequestDeviceCode asks the provider's device authorization endpoint for a
// device code and user code per RFC 8628 section 3.1. A single request is
// made; any non-200 reply is terminal for the attempt.
func (c *Client) RequestDeviceCode(ctx context.Context, p *Provider) (*Authorization, error) {
	data := url.Values{
		"client_id": {p.RequestArguments["client_id"]},
		"scope":     {p.RequestArguments["scope"]},
	}

	status, contentType, body, err := c.postForm(ctx, p.RequestURL, data)
	if err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}
	if status != http.StatusOK {
		return nil, &AuthorizationError{StatusCode: status}
	}

	fields, err := decodeResponse(contentType, body)
	if err != nil {
		return nil, fmt.Errorf("decoding device authorization response: %w", err)
	}

	deviceCode, ok := fields["device_code"]
	if !ok {
		return nil, fmt.Errorf("%w: missing device_code", ErrMalformedResponse)
	}
	userCode, ok := fields["user_code"]
	if !ok {
		return nil, fmt.Errorf("%w: missing user_code", ErrMalformedResponse)
	}

	return &Authorization{DeviceCode: deviceCode, UserCode: userCode}, nil
}

// postForm sends one form-encoded POST and returns the status, content type
// and raw body.
func (c *Client) postForm(ctx context.Context, endpoint string, data url.Values) (int, string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, "", nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, resp.Header.Get("Content-Type"), body, nil
}
