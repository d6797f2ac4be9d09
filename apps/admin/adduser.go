package main

import (
	"context"
	"fmt"

	"github.com/learnova/learnova/core/user"
)

// addUser creates an active user.User.
func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu, cli.validate)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s) with role %s\n", usr.Email, usr.ID, usr.Role)
	return nil
}
