package authenticator

// Result is the outcome handed back to the host authentication framework.
// Every lifecycle hook reports one of these three values; the mapping to the
// framework's numeric codes happens once, at the binary boundary.
type Result int

const (
	// Success reports a completed operation
	Success Result = iota

	// AuthError reports a failed or aborted authentication attempt
	AuthError

	// UnknownUser reports a missing or empty username
	UnknownUser
)

// ExitCode maps a result to the helper's process exit code.
func (r Result) ExitCode() int {
	return int(r)
}

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case AuthError:
		return "auth error"
	case UnknownUser:
		return "unknown user"
	default:
		return "unknown result"
	}
}
