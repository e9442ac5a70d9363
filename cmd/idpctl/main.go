// Command idpctl manages the identity provider registry and per-user
// identity attributes backing the device flow login helper.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/idpauth/devicelogin/internal/config"
	"github.com/idpauth/devicelogin/internal/store"
	"github.com/idpauth/devicelogin/internal/validation"
)

// adminGroup is the group whose members may manage the provider registry.
const adminGroup = "idpadmins"

type ctl struct {
	store *store.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("[!] Error: could not load configuration")
		os.Exit(1)
	}

	c := &ctl{store: store.New(cfg.DatabasePath)}
	if err := c.store.Bootstrap(); err != nil {
		fmt.Println("[!] Error: could not prepare database")
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "idpctl",
		Usage: "Manage Identity Providers (IdPs) and identity attributes for users",
		Commands: []*cli.Command{
			{
				Name:        "manage-idp",
				Usage:       "manage-idp [--operation set|change|delete] [--idp IDP_NAME] [--params PARAMS]",
				Description: "Set, change or delete operational parameters for a given IdP, only users belonging to the idpadmins group can perform this operation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "operation",
						Aliases:  []string{"o"},
						Usage:    "Operation to perform (set, change, delete)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "idp",
						Aliases:  []string{"i"},
						Usage:    "IdP name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "params",
						Aliases: []string{"p"},
						Usage:   "IdP operational parameters for the IdP",
					},
				},
				Action: c.manageIdP,
			},
			{
				Name:        "manage-attributes",
				Usage:       "manage-attributes [--operation set|change|delete] [--idp IDP_NAME] [--attributes ATTRIBUTES]",
				Description: "Set, change or delete identity attributes for a given IdP, the changes are applied only to the current user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "operation",
						Aliases:  []string{"o"},
						Usage:    "Operation to perform (set, change, delete)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "idp",
						Aliases: []string{"i"},
						Usage:   "IdP name",
					},
					&cli.StringFlag{
						Name:    "attributes",
						Aliases: []string{"a"},
						Usage:   "Identity attributes for the IdP",
					},
				},
				Action: c.manageAttributes,
			},
			{
				Name:        "list-users",
				Usage:       "list-users",
				Description: "List all users with registered IdPs, only users belonging to the idpadmins group can perform this operation",
				Action:      c.listUsers,
			},
			{
				Name:        "list-idps",
				Usage:       "list-idps",
				Description: "List all registered IdPs, only for the current user",
				Action:      c.listIdPs,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func (c *ctl) manageIdP(ctx *cli.Context) error {
	if !isAdministrator() {
		fmt.Println("[!] Error: current user is not an administrator")
		return nil
	}

	operation := ctx.String("operation")
	name := ctx.String("idp")
	params := ctx.String("params")

	switch operation {
	case "set", "change":
		if params == "" {
			fmt.Printf("[!] Error: params cannot be empty for %s operation\n", operation)
			return nil
		}
		if !json.Valid([]byte(params)) {
			fmt.Println("[!] Error: params must be valid JSON")
			return nil
		}

		var err error
		if operation == "set" {
			err = c.store.CreateIdP(ctx.Context, name, params)
		} else {
			err = c.store.UpdateIdP(ctx.Context, name, params)
		}
		switch {
		case errors.Is(err, store.ErrExists):
			fmt.Println("[!] Error: IdP already exists")
		case errors.Is(err, store.ErrNotFound):
			fmt.Println("[!] Error: IdP does not exist")
		case err != nil:
			fmt.Println("[!] Error: could not store IdP")
		case operation == "set":
			fmt.Println("[+] IdP successfully added")
		default:
			fmt.Println("[+] IdP successfully updated")
		}
	case "delete":
		err := c.store.DeleteIdP(ctx.Context, name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Println("[!] Error: IdP does not exist")
		case err != nil:
			fmt.Println("[!] Error: could not delete IdP")
		default:
			fmt.Println("[+] IdP successfully deleted")
		}
	default:
		fmt.Println("[!] Error: invalid operation")
	}
	return nil
}

func (c *ctl) manageAttributes(ctx *cli.Context) error {
	operation := ctx.String("operation")
	if operation != "set" && operation != "change" && operation != "delete" {
		fmt.Println("[!] Error: invalid operation")
		return nil
	}

	username, err := currentUsername()
	if err != nil {
		fmt.Println("[!] Error: could not get current user")
		return nil
	}

	name := ctx.String("idp")
	if name == "" {
		return c.printAvailableIdPs(ctx)
	}

	exists, err := c.store.IdPExists(ctx.Context, name)
	if err != nil {
		fmt.Println("[!] Error: could not query database")
		return nil
	}
	if !exists {
		fmt.Println("[!] Error: IdP does not exist")
		return nil
	}

	attributes := ctx.String("attributes")
	if attributes == "" && operation != "delete" {
		return c.printIdPParams(ctx, name)
	}

	switch operation {
	case "set", "change":
		// Attributes are what the login helper consumes; catch broken
		// configurations here rather than at login time.
		if err := validation.ValidateConfig([]byte(attributes)); err != nil {
			fmt.Println("[!] Error: invalid attributes: " + err.Error())
			return nil
		}

		if operation == "set" {
			err = c.store.SetAttributes(ctx.Context, username, name, attributes)
		} else {
			err = c.store.UpdateAttributes(ctx.Context, username, name, attributes)
		}
		if err != nil {
			fmt.Println("[!] Error: could not store attributes")
			return nil
		}
		if operation == "set" {
			fmt.Println("[+] Attributes successfully added")
		} else {
			fmt.Println("[+] Attributes successfully updated")
		}
	case "delete":
		if err := c.store.DeleteAttributes(ctx.Context, username, name); err != nil {
			fmt.Println("[!] Error: could not delete attributes")
			return nil
		}
		fmt.Println("[+] Attributes successfully deleted")
	}
	return nil
}

func (c *ctl) listUsers(ctx *cli.Context) error {
	if !isAdministrator() {
		fmt.Println("[!] Error: current user is not an administrator")
		return nil
	}

	users, err := c.store.Usernames(ctx.Context)
	if err != nil {
		fmt.Println("[!] Error: could not query database")
		return nil
	}

	fmt.Println("[+] Users:")
	for _, username := range users {
		fmt.Println("    - " + username)
	}
	return nil
}

func (c *ctl) listIdPs(ctx *cli.Context) error {
	username, err := currentUsername()
	if err != nil {
		fmt.Println("[!] Error: could not get current user")
		return nil
	}

	configs, err := c.store.UserConfigs(ctx.Context, username)
	if err != nil {
		fmt.Println("[!] Error: could not query database")
		return nil
	}

	for _, cfg := range configs {
		fmt.Println("[+] IdP name: " + cfg.Name)
		fmt.Println("[+] IdP attributes:")
		fmt.Println(prettyJSON(cfg.Config))
	}
	return nil
}

func (c *ctl) printAvailableIdPs(ctx *cli.Context) error {
	names, err := c.store.IdPNames(ctx.Context)
	if err != nil {
		fmt.Println("[!] Error: could not query database")
		return nil
	}

	fmt.Println("[+] Available IdPs:")
	for _, name := range names {
		fmt.Println("    - " + name)
	}
	return nil
}

func (c *ctl) printIdPParams(ctx *cli.Context, name string) error {
	params, err := c.store.IdPParams(ctx.Context, name)
	if err != nil {
		fmt.Println("[!] Error: could not query database")
		return nil
	}

	fmt.Println("[+] IdP params:")
	fmt.Println(prettyJSON(params))
	return nil
}

func prettyJSON(raw string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "\t"); err != nil {
		return raw
	}
	return out.String()
}

func currentUsername() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return usr.Username, nil
}
