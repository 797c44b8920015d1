package main

import (
	"context"

	"github.com/trezcool/gradebook/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	sp := user.SetPassword{Password: pwd}
	if err = sp.Validate(usr, cli.validate); err != nil {
		return cli.translateErr(err)
	}
	_, err = cli.usrSvc.ChangePassword(ctx, usr, sp.Password)
	return err
}
