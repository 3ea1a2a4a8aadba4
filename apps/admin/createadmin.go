package main

import (
	"time"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/admin"
)

// createAdmin creates an active admin.Admin account.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	if err := cli.admRepo.CheckEmailUniqueness(email); err != nil {
		return err
	}

	now := time.Now().UTC()
	adm := admin.Admin{
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adm.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.admRepo.CreateAdmin(adm)
	return err
}
