package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), email, pwd, cli.validate); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}
