package authenticator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/idpauth/devicelogin/internal/deviceflow"
	"github.com/idpauth/devicelogin/internal/store"
)

type fakeStore struct {
	providers map[string][]string // username -> ordered names
	configs   map[string]*deviceflow.Provider
	getErr    error
	listCalls int
	getCalls  int
}

func (f *fakeStore) ListProviders(ctx context.Context, username string) ([]string, error) {
	f.listCalls++
	return f.providers[username], nil
}

func (f *fakeStore) GetProvider(ctx context.Context, name, username string) (*deviceflow.Provider, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.configs[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type fakeFlow struct {
	result bool
	runs   int
	lastQR bool
	last   *deviceflow.Provider
}

func (f *fakeFlow) Run(ctx context.Context, p *deviceflow.Provider, useQRCode bool) bool {
	f.runs++
	f.lastQR = useQRCode
	f.last = p
	return f.result
}

func testProvider(name string) *deviceflow.Provider {
	return &deviceflow.Provider{
		Name:       name,
		RequestURL: "https://idp.example.com/device",
		PollURL:    "https://idp.example.com/token",
		UserURL:    "https://idp.example.com/activate",
		RequestArguments: map[string]string{
			"client_id": "client-1",
			"scope":     "openid",
		},
	}
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))
	return log
}

func newTestAuthenticator(st ProviderStore, flow FlowRunner, input string, out *bytes.Buffer) *Authenticator {
	return New(st, flow,
		WithInput(strings.NewReader(input)),
		WithOutput(out),
		WithLogger(quietLogger()),
	)
}

func aliceStore() *fakeStore {
	return &fakeStore{
		providers: map[string][]string{"alice": {"github", "okta"}},
		configs: map[string]*deviceflow.Provider{
			"github": testProvider("github"),
			"okta":   testProvider("okta"),
		},
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	st := aliceStore()
	flow := &fakeFlow{result: true}
	var out bytes.Buffer

	ok := newTestAuthenticator(st, flow, "1\ny\n", &out).Authenticate(context.Background(), "alice")
	if !ok {
		t.Fatal("expected authentication to succeed")
	}
	if flow.runs != 1 {
		t.Errorf("expected exactly one flow run, got %d", flow.runs)
	}
	if !flow.lastQR {
		t.Error("expected QR choice to reach the flow")
	}
	if flow.last.Name != "okta" {
		t.Errorf("expected selection index 1 to map to okta, got %q", flow.last.Name)
	}

	output := out.String()
	if !strings.Contains(output, "[0] github") || !strings.Contains(output, "[1] okta") {
		t.Errorf("expected indexed provider list, got:\n%s", output)
	}
}

func TestAuthenticatePlainURLChoice(t *testing.T) {
	st := aliceStore()
	flow := &fakeFlow{result: true}
	var out bytes.Buffer

	ok := newTestAuthenticator(st, flow, "0\nn\n", &out).Authenticate(context.Background(), "alice")
	if !ok {
		t.Fatal("expected authentication to succeed")
	}
	if flow.lastQR {
		t.Error("expected QR to be declined")
	}
}

func TestAuthenticateInvalidSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-numeric", "abc\n"},
		{"out of range high", "99\n"},
		{"negative", "-1\n"},
		{"empty line", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := aliceStore()
			flow := &fakeFlow{result: true}
			var out bytes.Buffer

			ok := newTestAuthenticator(st, flow, tt.input, &out).Authenticate(context.Background(), "alice")
			if ok {
				t.Fatal("expected authentication to fail")
			}
			if flow.runs != 0 {
				t.Errorf("expected no flow runs, got %d", flow.runs)
			}
			if st.getCalls != 0 {
				t.Errorf("expected no provider lookup, got %d", st.getCalls)
			}
			if !strings.Contains(out.String(), "Invalid selection") {
				t.Errorf("expected invalid selection message, got:\n%s", out.String())
			}
		})
	}
}

func TestAuthenticateNoProviders(t *testing.T) {
	st := &fakeStore{providers: map[string][]string{}}
	flow := &fakeFlow{result: true}
	var out bytes.Buffer

	// With no configured providers every index is out of range, but the
	// selection prompt is still shown.
	ok := newTestAuthenticator(st, flow, "0\n", &out).Authenticate(context.Background(), "alice")
	if ok {
		t.Fatal("expected authentication to fail")
	}
	if flow.runs != 0 {
		t.Errorf("expected no flow runs, got %d", flow.runs)
	}
	if !strings.Contains(out.String(), "Please select an IdP") {
		t.Errorf("expected selection prompt, got:\n%s", out.String())
	}
}

func TestAuthenticateInvalidQRAnswer(t *testing.T) {
	st := aliceStore()
	flow := &fakeFlow{result: true}
	var out bytes.Buffer

	ok := newTestAuthenticator(st, flow, "0\nmaybe\n", &out).Authenticate(context.Background(), "alice")
	if ok {
		t.Fatal("expected authentication to fail")
	}
	if flow.runs != 0 {
		t.Errorf("expected no flow runs, got %d", flow.runs)
	}
	if !strings.Contains(out.String(), "Invalid input") {
		t.Errorf("expected invalid input message, got:\n%s", out.String())
	}
}

func TestAuthenticateProviderLookupFails(t *testing.T) {
	tests := []struct {
		name   string
		getErr error
	}{
		{"not found", store.ErrNotFound},
		{"invalid config", fmt.Errorf("%w: truncated", store.ErrInvalidConfig)},
		{"other failure", errors.New("disk error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := aliceStore()
			st.getErr = tt.getErr
			flow := &fakeFlow{result: true}
			var out bytes.Buffer

			ok := newTestAuthenticator(st, flow, "0\ny\n", &out).Authenticate(context.Background(), "alice")
			if ok {
				t.Fatal("expected authentication to fail")
			}
			if flow.runs != 0 {
				t.Errorf("expected no flow runs, got %d", flow.runs)
			}
			if !strings.Contains(out.String(), "Invalid IdP") {
				t.Errorf("expected generic failure line, got:\n%s", out.String())
			}
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	t.Run("empty username", func(t *testing.T) {
		st := aliceStore()
		var out bytes.Buffer
		r := newTestAuthenticator(st, &fakeFlow{}, "", &out).AuthenticateUser(context.Background(), "")
		if r != UnknownUser {
			t.Errorf("expected UnknownUser, got %v", r)
		}
		if st.listCalls != 0 {
			t.Error("expected no store access for empty username")
		}
	})

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		r := newTestAuthenticator(aliceStore(), &fakeFlow{result: true}, "0\nn\n", &out).
			AuthenticateUser(context.Background(), "alice")
		if r != Success {
			t.Errorf("expected Success, got %v", r)
		}
		if !strings.Contains(out.String(), "Login successful") {
			t.Errorf("expected success line, got:\n%s", out.String())
		}
	})

	t.Run("failure", func(t *testing.T) {
		var out bytes.Buffer
		r := newTestAuthenticator(aliceStore(), &fakeFlow{result: false}, "0\nn\n", &out).
			AuthenticateUser(context.Background(), "alice")
		if r != AuthError {
			t.Errorf("expected AuthError, got %v", r)
		}
		if !strings.Contains(out.String(), "Login failed") {
			t.Errorf("expected failure line, got:\n%s", out.String())
		}
	})
}

func TestOpenSession(t *testing.T) {
	root := t.TempDir()
	a := New(&fakeStore{}, &fakeFlow{},
		WithHomeRoot(root),
		WithLogger(quietLogger()),
	)

	if r := a.OpenSession("alice"); r != Success {
		t.Fatalf("expected Success, got %v", r)
	}
	info, err := os.Stat(filepath.Join(root, "alice"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected home directory, got %v %v", info, err)
	}

	// Second call must be a no-op success.
	if r := a.OpenSession("alice"); r != Success {
		t.Errorf("expected idempotent Success, got %v", r)
	}

	if r := a.OpenSession(""); r != UnknownUser {
		t.Errorf("expected UnknownUser for empty username, got %v", r)
	}
}

func TestNoOpHooks(t *testing.T) {
	a := New(&fakeStore{}, &fakeFlow{}, WithLogger(quietLogger()))

	if r := a.CloseSession("alice"); r != Success {
		t.Errorf("CloseSession: expected Success, got %v", r)
	}
	if r := a.SetCredentials("alice"); r != Success {
		t.Errorf("SetCredentials: expected Success, got %v", r)
	}
	if r := a.AccountManagement("alice"); r != Success {
		t.Errorf("AccountManagement: expected Success, got %v", r)
	}
}

func TestResultExitCodes(t *testing.T) {
	if Success.ExitCode() != 0 || AuthError.ExitCode() != 1 || UnknownUser.ExitCode() != 2 {
		t.Errorf("unexpected exit codes: %d %d %d",
			Success.ExitCode(), AuthError.ExitCode(), UnknownUser.ExitCode())
	}
}
