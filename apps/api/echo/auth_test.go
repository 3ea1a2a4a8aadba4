package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmhss/pariksha/core/admin"
)

func Test_authAPI_login(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name     string
		body     admin.LoginCredentials
		wantCode int
	}{
		{"ok", admin.LoginCredentials{Email: testAdminEmail, Password: testAdminPassword}, http.StatusOK},
		{"email is case-insensitive", admin.LoginCredentials{Email: "Principal@PPMHSS.edu", Password: testAdminPassword}, http.StatusOK},
		{"wrong password", admin.LoginCredentials{Email: testAdminEmail, Password: "nope"}, http.StatusBadRequest},
		{"unknown email", admin.LoginCredentials{Email: "nobody@ppmhss.edu", Password: testAdminPassword}, http.StatusBadRequest},
		{"missing password", admin.LoginCredentials{Email: testAdminEmail}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/auth/login", "", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decode(t, rec, &res)
				assert.NotEmpty(t, res.Token)
			}
		})
	}
}

func Test_authAPI_me(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/auth/me", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var adm admin.Admin
	decode(t, rec, &adm)
	assert.Equal(t, env.admin.ID, adm.ID)
	assert.Equal(t, testAdminEmail, adm.Email)
}
