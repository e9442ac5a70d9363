package main

import (
	"fmt"
	"os/user"
)

// isAdministrator reports whether the invoking user belongs to the
// administrator group.
func isAdministrator() bool {
	usr, err := user.Current()
	if err != nil {
		fmt.Println("[!] Error: could not get current user")
		return false
	}

	group, err := user.LookupGroup(adminGroup)
	if err != nil {
		fmt.Println("[!] Error: could not get " + adminGroup + " group information")
		return false
	}

	groups, err := usr.GroupIds()
	if err != nil {
		fmt.Println("[!] Error: could not get user groups")
		return false
	}

	for _, gid := range groups {
		if gid == group.Gid {
			return true
		}
	}
	return false
}
