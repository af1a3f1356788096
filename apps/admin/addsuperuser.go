package main

import (
	"context"
	"time"

	"github.com/Amanroy9658/collegerp/core"
	"github.com/Amanroy9658/collegerp/core/user"
)

// addSuperuser updates or creates an admin account. Bootstrap admins skip
// the approval queue and start approved.
func (cli *commandLine) addSuperuser(email, phone, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	phone = core.CleanString(phone)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			FirstName: "Admin",
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	if phone != "" {
		usr.Phone = phone
	}
	usr.Role = user.RoleAdmin
	usr.Status = user.StatusApproved
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
