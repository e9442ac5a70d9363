package authenticator

import (
	"os"
	"path/filepath"
)

// OpenSession provisions the user's home directory if it does not exist yet.
// The operation is idempotent; an existing directory is success.
func (a *Authenticator) OpenSession(username string) Result {
	if username == "" {
		return UnknownUser
	}

	home := filepath.Join(a.homeRoot, username)
	if err := os.MkdirAll(home, 0o750); err != nil {
		a.log.WithError(err).WithField("home", home).Error("creating home directory failed")
		return AuthError
	}
	return Success
}

// The remaining lifecycle hooks have nothing to do, but the host framework
// still expects an explicit success from each of them.

// CloseSession tears down session state; there is none.
func (a *Authenticator) CloseSession(username string) Result { return Success }

// SetCredentials refreshes credentials; tokens are never persisted, so
// there is nothing to refresh.
func (a *Authenticator) SetCredentials(username string) Result { return Success }

// AccountManagement checks account validity; delegated entirely to the IdP.
func (a *Authenticator) AccountManagement(username string) Result { return Success }
