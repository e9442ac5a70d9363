// Command pam-device-login is the one-shot authentication helper invoked by
// the host authentication framework. It runs a single OAuth2 device flow
// login for a user and reports the outcome through its exit code:
// 0 success, 1 authentication error, 2 unknown user.
package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/idpauth/devicelogin/internal/authenticator"
	"github.com/idpauth/devicelogin/internal/config"
	"github.com/idpauth/devicelogin/internal/deviceflow"
	"github.com/idpauth/devicelogin/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "pam-device-login",
		Usage: "Authenticate local users against external identity providers using the OAuth2 device flow",
		Commands: []*cli.Command{
			{
				Name:        "authenticate",
				Usage:       "authenticate USERNAME",
				Description: "Run one interactive device flow login for the given user",
				Action: hook(func(a *authenticator.Authenticator, c *cli.Context) authenticator.Result {
					return a.AuthenticateUser(c.Context, c.Args().First())
				}),
			},
			{
				Name:        "open-session",
				Usage:       "open-session USERNAME",
				Description: "Ensure the user's home directory exists",
				Action: hook(func(a *authenticator.Authenticator, c *cli.Context) authenticator.Result {
					return a.OpenSession(c.Args().First())
				}),
			},
			{
				Name:  "close-session",
				Usage: "close-session USERNAME",
				Action: hook(func(a *authenticator.Authenticator, c *cli.Context) authenticator.Result {
					return a.CloseSession(c.Args().First())
				}),
			},
			{
				Name:  "setcred",
				Usage: "setcred USERNAME",
				Action: hook(func(a *authenticator.Authenticator, c *cli.Context) authenticator.Result {
					return a.SetCredentials(c.Args().First())
				}),
			},
			{
				Name:  "acct-mgmt",
				Usage: "acct-mgmt USERNAME",
				Action: hook(func(a *authenticator.Authenticator, c *cli.Context) authenticator.Result {
					return a.AccountManagement(c.Args().First())
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		// cli.Exit errors carry the mapped result code; anything else is an
		// unexpected fault the host framework should see as an auth error,
		// never as a crash.
		if _, ok := err.(cli.ExitCoder); !ok {
			logrus.WithError(err).Error("unexpected failure")
			os.Exit(authenticator.AuthError.ExitCode())
		}
		cli.HandleExitCoder(err)
	}
}

// hook wraps a lifecycle operation with configuration loading and the
// result-to-exit-code mapping shared by every command.
func hook(run func(*authenticator.Authenticator, *cli.Context) authenticator.Result) cli.ActionFunc {
	return func(c *cli.Context) error {
		auth, err := newAuthenticator()
		if err != nil {
			logrus.WithError(err).Error("helper setup failed")
			return cli.Exit("", authenticator.AuthError.ExitCode())
		}
		if r := run(auth, c); r != authenticator.Success {
			return cli.Exit("", r.ExitCode())
		}
		return nil
	}
}

func newAuthenticator() (*authenticator.Authenticator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	flow := deviceflow.NewFlow(
		deviceflow.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		deviceflow.WithPollInterval(cfg.PollInterval),
		deviceflow.WithPollTimeout(cfg.PollTimeout),
		deviceflow.WithLogger(log),
	)

	return authenticator.New(store.New(cfg.DatabasePath), flow,
		authenticator.WithLogger(log),
		authenticator.WithHomeRoot(cfg.HomeRoot),
	), nil
}
