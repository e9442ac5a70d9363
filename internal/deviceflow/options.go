package deviceflow

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a Flow
type Option func(*Flow)

// WithHTTPClient sets the HTTP client used for provider requests
func WithHTTPClient(c *http.Client) Option {
	return func(f *Flow) {
		f.client = NewClient(c)
	}
}

// WithPollInterval sets the pause between token endpoint polls
// per RFC 8628 section 3.5, clients must wait between polling attempts
func WithPollInterval(d time.Duration) Option {
	return func(f *Flow) {
		f.interval = d
	}
}

// WithPollTimeout sets the total wall-clock polling budget
func WithPollTimeout(d time.Duration) Option {
	return func(f *Flow) {
		f.timeout = d
	}
}

// WithOutput sets the writer for user-facing prompt output
func WithOutput(w io.Writer) Option {
	return func(f *Flow) {
		f.out = w
	}
}

// WithQRRenderer replaces the QR code renderer
func WithQRRenderer(render func(string) (string, error)) Option {
	return func(f *Flow) {
		f.renderQR = render
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Flow) {
		f.log = log
	}
}
