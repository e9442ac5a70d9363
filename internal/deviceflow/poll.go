package deviceflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultPollInterval is the pause between token endpoint polls per
	// RFC 8628 section 3.5
	DefaultPollInterval = 5 * time.Second

	// DefaultPollTimeout bounds the total wall-clock time spent polling
	DefaultPollTimeout = 60 * time.Second
)

// Poll repeatedly queries the provider's token endpoint until the user
// completes authorization out of band. Each cycle POSTs the poll arguments;
// a 200 reply carrying access_token ends the attempt successfully, a 200
// reply without it schedules another cycle, and any other status is treated
// as a terminal denial.
//
// The timeout is enforced against wall-clock time from the first request:
// once another full interval would overrun the budget, Poll returns
// ErrTimedOut without issuing further requests. Context cancellation is
// checked before every cycle, so a host tearing down the attempt does not
// leave the poller sleeping.
func (c *Client) Poll(ctx context.Context, pollURL string, arguments map[string]string, interval, timeout time.Duration) (TokenResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	data := url.Values{}
	for key, value := range arguments {
		data.Set(key, value)
	}

	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("polling canceled: %w", err)
		}

		status, contentType, body, err := c.postForm(ctx, pollURL, data)
		if err != nil {
			return nil, fmt.Errorf("polling token endpoint: %w", err)
		}
		if status != http.StatusOK {
			return nil, ErrDenied
		}

		fields, err := decodeResponse(contentType, body)
		if err != nil {
			return nil, fmt.Errorf("decoding token response: %w", err)
		}
		if _, ok := fields["access_token"]; ok {
			return TokenResponse(fields), nil
		}

		// Still pending. Give up rather than oversleep the budget.
		if time.Now().Add(interval).After(deadline) {
			return nil, ErrTimedOut
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("polling canceled: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}
