package deviceflow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestDeviceCode(t *testing.T) {
	idp := newFakeIdP(t)
	client := NewClient(nil)

	auth, err := client.RequestDeviceCode(context.Background(), idp.provider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Authorization{DeviceCode: "dc-1", UserCode: "BDFG-HJKL"}
	if diff := cmp.Diff(want, auth); diff != "" {
		t.Errorf("authorization mismatch (-want +got):\n%s", diff)
	}

	if got := idp.lastDeviceForm().Get("client_id"); got != "client-1" {
		t.Errorf("expected client_id %q, got %q", "client-1", got)
	}
	if got := idp.lastDeviceForm().Get("scope"); got != "openid" {
		t.Errorf("expected scope %q, got %q", "openid", got)
	}
	if device, _ := idp.calls(); device != 1 {
		t.Errorf("expected exactly 1 device request, got %d", device)
	}
}

func TestRequestDeviceCodeFailure(t *testing.T) {
	tests := []struct {
		name      string
		response  idpResponse
		wantErr   error
		wantState int
	}{
		{
			name:      "non-200 status",
			response:  idpResponse{status: http.StatusBadRequest, contentType: "application/json", body: `{"error":"invalid_client"}`},
			wantState: http.StatusBadRequest,
		},
		{
			name:     "missing device_code",
			response: idpResponse{status: http.StatusOK, contentType: "application/json", body: `{"user_code":"BDFG-HJKL"}`},
			wantErr:  ErrMalformedResponse,
		},
		{
			name:     "missing user_code",
			response: idpResponse{status: http.StatusOK, contentType: "application/json", body: `{"device_code":"dc-1"}`},
			wantErr:  ErrMalformedResponse,
		},
		{
			name:     "undecodable body",
			response: idpResponse{status: http.StatusOK, contentType: "application/json", body: `not json`},
			wantErr:  ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := newFakeIdP(t)
			idp.device = tt.response

			_, err := NewClient(nil).RequestDeviceCode(context.Background(), idp.provider())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantState != 0 {
				var authErr *AuthorizationError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected AuthorizationError, got %v", err)
				}
				if authErr.StatusCode != tt.wantState {
					t.Errorf("expected status %d, got %d", tt.wantState, authErr.StatusCode)
				}
			}
		})
	}
}

func TestRequestDeviceCodeFormEncodedResponse(t *testing.T) {
	idp := newFakeIdP(t)
	idp.device = idpResponse{
		status:      http.StatusOK,
		contentType: "application/x-www-form-urlencoded",
		body:        "device_code=dc-2&user_code=WXZP-QRST",
	}

	auth, err := NewClient(nil).RequestDeviceCode(context.Background(), idp.provider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.DeviceCode != "dc-2" || auth.UserCode != "WXZP-QRST" {
		t.Errorf("unexpected authorization: %+v", auth)
	}
}
