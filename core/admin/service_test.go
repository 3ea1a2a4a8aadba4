package admin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/admin"
	inmemdb "github.com/ppmhss/pariksha/storage/database/inmem"
)

func setup(t *testing.T) (admin.Service, admin.Repository) {
	t.Helper()
	repo := inmemdb.NewAdminRepository(inmemdb.NewDB())
	return admin.NewService(repo), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)

	adm, err := svc.Create(admin.NewAdmin{
		Name:            "Principal",
		Email:           "principal@ppmhss.edu",
		Password:        "s3cr3t!",
		PasswordConfirm: "s3cr3t!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, adm.ID)
	assert.True(t, adm.IsActive)
	assert.NoError(t, adm.CheckPassword("s3cr3t!"))
	assert.Error(t, adm.CheckPassword("wrong"))

	err = svc.CheckEmailUniqueness("principal@ppmhss.edu")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	got, err := svc.GetByID(adm.ID)
	require.NoError(t, err)
	assert.Equal(t, adm.Email, got.Email)
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := setup(t)

	adm, err := svc.Create(admin.NewAdmin{
		Name:            "Principal",
		Email:           "principal@ppmhss.edu",
		Password:        "s3cr3t!",
		PasswordConfirm: "s3cr3t!",
	})
	require.NoError(t, err)

	authed, err := svc.Authenticate("Principal@PPMHSS.edu", "s3cr3t!")
	require.NoError(t, err)
	assert.Equal(t, adm.ID, authed.ID)
	assert.False(t, authed.LastLogin.IsZero())

	// unknown email and wrong password are indistinguishable
	_, err = svc.Authenticate("nobody@ppmhss.edu", "s3cr3t!")
	assert.Equal(t, admin.ErrInvalidCredentials, err)
	_, err = svc.Authenticate("principal@ppmhss.edu", "wrong")
	assert.Equal(t, admin.ErrInvalidCredentials, err)

	adm.IsActive = false
	_, err = repo.UpdateAdmin(adm)
	require.NoError(t, err)

	_, err = svc.Authenticate("principal@ppmhss.edu", "s3cr3t!")
	assert.Equal(t, admin.ErrAccountDisabled, err)
}
