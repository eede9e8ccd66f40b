package main

import (
	"context"
	"fmt"

	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

// addUser creates a student, or an admin when isAdmin is set.
// The password policy applies.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	role := user.RoleStudent
	if isAdmin {
		role = user.RoleAdmin
	}
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> created\n", usr.Role, usr.Name, usr.Email)
	return nil
}
