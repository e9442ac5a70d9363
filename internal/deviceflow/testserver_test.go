package deviceflow

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// idpResponse is one scripted reply from the fake provider.
type idpResponse struct {
	status      int
	contentType string
	body        string
}

// fakeIdP is an in-process identity provider exposing the two device flow
// endpoints. Token replies are consumed in order; the last one repeats.
type fakeIdP struct {
	srv *httptest.Server

	mu          sync.Mutex
	device      idpResponse
	token       []idpResponse
	deviceCalls int
	tokenCalls  int
	deviceForm  url.Values
	tokenForm   url.Values
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	f := &fakeIdP{
		device: idpResponse{
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{"device_code":"dc-1","user_code":"BDFG-HJKL"}`,
		},
		token: []idpResponse{{
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{"access_token":"tok","token_type":"bearer"}`,
		}},
	}

	r := chi.NewRouter()
	r.Post("/device", f.handleDevice)
	r.Post("/token", f.handleToken)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

// provider returns a fresh configuration pointing at the fake endpoints.
func (f *fakeIdP) provider() *Provider {
	return &Provider{
		Name:       "test-idp",
		RequestURL: f.srv.URL + "/device",
		PollURL:    f.srv.URL + "/token",
		UserURL:    "https://idp.example.com/activate",
		RequestArguments: map[string]string{
			"client_id": "client-1",
			"scope":     "openid",
		},
		PollArguments: map[string]string{
			"client_id":  "client-1",
			"grant_type": "urn:ietf:params:oauth:grant-type:device_code",
		},
	}
}

func (f *fakeIdP) handleDevice(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_ = r.ParseForm()
	f.deviceCalls++
	f.deviceForm = r.PostForm
	writeResponse(w, f.device)
}

func (f *fakeIdP) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_ = r.ParseForm()
	f.tokenForm = r.PostForm

	index := f.tokenCalls
	if index >= len(f.token) {
		index = len(f.token) - 1
	}
	f.tokenCalls++
	writeResponse(w, f.token[index])
}

func (f *fakeIdP) calls() (device, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceCalls, f.tokenCalls
}

func (f *fakeIdP) lastDeviceForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceForm
}

func (f *fakeIdP) lastTokenForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenForm
}

func writeResponse(w http.ResponseWriter, resp idpResponse) {
	w.Header().Set("Content-Type", resp.contentType)
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
