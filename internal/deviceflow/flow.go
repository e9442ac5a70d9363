package deviceflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idpauth/devicelogin/internal/qr"
)

// Flow sequences one device authorization attempt against a single provider:
// request a device code, show the user where to go and what to type, then
// poll until the provider hands out a token or the attempt dies.
type Flow struct {
	client   *Client
	interval time.Duration
	timeout  time.Duration
	out      io.Writer
	renderQR func(string) (string, error)
	log      logrus.FieldLogger
}

// NewFlow creates a flow with the provided options applied over defaults.
func NewFlow(opts ...Option) *Flow {
	f := &Flow{
		client:   NewClient(nil),
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		out:      os.Stdout,
		renderQR: qr.Render,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run executes the full device flow for one provider and reports whether an
// access token was obtained. Run owns all user-facing output; the reason
// for a failure goes to the diagnostic log, never to the authenticating
// user.
func (f *Flow) Run(ctx context.Context, p *Provider, useQRCode bool) bool {
	auth, err := f.client.RequestDeviceCode(ctx, p)
	if err != nil {
		f.log.WithError(err).WithField("idp", p.Name).Error("device authorization request failed")
		fmt.Fprintln(f.out, "[!] Error requesting device code")
		return false
	}

	// The device code travels only in poll requests, never to the user.
	if p.PollArguments == nil {
		p.PollArguments = make(map[string]string)
	}
	p.PollArguments["device_code"] = auth.DeviceCode

	f.showPrompt(p, auth, useQRCode)

	resp, err := f.client.Poll(ctx, p.PollURL, p.PollArguments, f.interval, f.timeout)
	if err != nil {
		f.log.WithError(err).WithField("idp", p.Name).Error("token polling failed")
		return false
	}

	f.log.WithFields(logrus.Fields{
		"idp":        p.Name,
		"token_type": resp.Token().Type(),
	}).Debug("access token obtained")
	return true
}

// showPrompt renders the verification prompt: a QR code of the user URL when
// requested (falling back to the plain URL if rendering fails), and always
// the user code.
func (f *Flow) showPrompt(p *Provider, auth *Authorization, useQRCode bool) {
	plainURL := true
	if useQRCode {
		code, err := f.renderQR(p.UserURL)
		if err != nil {
			f.log.WithError(err).WithField("idp", p.Name).Warn("QR rendering failed, showing URL instead")
		} else {
			fmt.Fprintln(f.out, "[+] Please scan the following QR code with your mobile device:")
			fmt.Fprint(f.out, code)
			plainURL = false
		}
	}
	if plainURL {
		fmt.Fprintln(f.out, "[+] Please visit the following URL in your browser: "+p.UserURL)
	}
	fmt.Fprintln(f.out, "[+] Enter the following code when prompted: "+auth.UserCode)
}
