// Package authenticator implements the interactive entry point invoked by
// the host authentication framework: provider selection, the QR prompt, the
// device flow invocation, and the session lifecycle hooks.
package authenticator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idpauth/devicelogin/internal/deviceflow"
	"github.com/idpauth/devicelogin/internal/store"
)

// ProviderStore is the read side of the provider configuration store.
type ProviderStore interface {
	ListProviders(ctx context.Context, username string) ([]string, error)
	GetProvider(ctx context.Context, name, username string) (*deviceflow.Provider, error)
}

// FlowRunner runs one device authorization attempt for a provider.
type FlowRunner interface {
	Run(ctx context.Context, p *deviceflow.Provider, useQRCode bool) bool
}

// Authenticator drives one interactive authentication attempt and the
// surrounding session hooks.
type Authenticator struct {
	store    ProviderStore
	flow     FlowRunner
	in       *bufio.Reader
	out      io.Writer
	log      logrus.FieldLogger
	homeRoot string
}

// Option configures an Authenticator
type Option func(*Authenticator)

// WithInput sets the reader for interactive prompt answers
func WithInput(r io.Reader) Option {
	return func(a *Authenticator) {
		a.in = bufio.NewReader(r)
	}
}

// WithOutput sets the writer for user-facing output
func WithOutput(w io.Writer) Option {
	return func(a *Authenticator) {
		a.out = w
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Authenticator) {
		a.log = log
	}
}

// WithHomeRoot sets the directory under which user homes are provisioned
func WithHomeRoot(root string) Option {
	return func(a *Authenticator) {
		a.homeRoot = root
	}
}

// New creates an authenticator over a provider store and a flow runner.
func New(providers ProviderStore, flow FlowRunner, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:    providers,
		flow:     flow,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		log:      logrus.StandardLogger(),
		homeRoot: "/home",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuthenticateUser is the host framework boundary. An empty username maps to
// UnknownUser without starting an attempt; everything else collapses into
// Success or AuthError.
func (a *Authenticator) AuthenticateUser(ctx context.Context, username string) Result {
	if username == "" {
		return UnknownUser
	}

	fmt.Fprintln(a.out, "[+] Authenticating user: "+username)
	if a.Authenticate(ctx, username) {
		fmt.Fprintln(a.out, "[+] Login successful")
		return Success
	}
	fmt.Fprintln(a.out, "[!] Login failed")
	return AuthError
}

// Authenticate runs the interactive login for username and reports whether
// an access token was obtained. Every internal failure kind collapses to
// false here; the specific reason goes to the diagnostic log only.
func (a *Authenticator) Authenticate(ctx context.Context, username string) bool {
	names, err := a.store.ListProviders(ctx, username)
	if err != nil {
		a.log.WithError(err).WithField("user", username).Error("listing providers failed")
		fmt.Fprintln(a.out, "[!] Error reading IdP configuration")
		return false
	}

	fmt.Fprintln(a.out, "[?] Please select an IdP:")
	for i, name := range names {
		fmt.Fprintf(a.out, "[%d] %s\n", i, name)
	}

	selection, err := a.readLine("[>] ")
	if err != nil {
		a.log.WithError(err).Error("reading selection failed")
		return false
	}
	index, err := strconv.Atoi(strings.TrimSpace(selection))
	if err != nil || index < 0 || index >= len(names) {
		fmt.Fprintln(a.out, "[!] Invalid selection")
		return false
	}

	provider, err := a.store.GetProvider(ctx, names[index], username)
	if err != nil {
		// Keep the not-found and invalid-config kinds apart in the log;
		// the user sees the same generic line either way.
		switch {
		case errors.Is(err, store.ErrNotFound):
			a.log.WithFields(logrus.Fields{"user": username, "idp": names[index]}).Error("provider not found")
		case errors.Is(err, store.ErrInvalidConfig):
			a.log.WithError(err).WithFields(logrus.Fields{"user": username, "idp": names[index]}).Error("provider configuration invalid")
		default:
			a.log.WithError(err).WithField("idp", names[index]).Error("loading provider failed")
		}
		fmt.Fprintln(a.out, "[!] Invalid IdP")
		return false
	}

	answer, err := a.readLine("[?] Would you like to scan a QR code? [y/n] ")
	if err != nil {
		a.log.WithError(err).Error("reading QR choice failed")
		return false
	}
	var useQRCode bool
	switch strings.TrimSpace(answer) {
	case "y":
		useQRCode = true
	case "n":
		useQRCode = false
	default:
		fmt.Fprintln(a.out, "[!] Invalid input")
		return false
	}

	return a.flow.Run(ctx, provider, useQRCode)
}

func (a *Authenticator) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
