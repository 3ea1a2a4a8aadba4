package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/admin"
)

// appJWTConfig is the default JWT auth middleware config.
var appJWTConfig = middleware.JWTConfig{
	SigningKey:    []byte(core.Conf.SecretKey),
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "adminToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func GetAdminClaims(adm admin.Admin) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   adm.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  adm.Name,
		Email: adm.Email,
	}
}

func authenticate(email, pwd string, svc admin.Service) (*Claims, error) {
	adm, err := svc.Authenticate(email, pwd)
	if err != nil {
		switch err {
		case admin.ErrInvalidCredentials:
			return nil, errAuthenticationFailed
		case admin.ErrAccountDisabled:
			return nil, errAccountDeactivated
		}
		return nil, errors.Wrap(err, "authenticating admin")
	}
	return GetAdminClaims(adm), nil
}

// GenerateToken generates a signed JWT token string representing the admin Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type authApi struct {
	svc admin.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc admin.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)

	mg := ag.Group("", jwt)
	mg.GET("/me", api.me)
}

func (api *authApi) login(ctx echo.Context) error {
	var data admin.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	adm, err := api.svc.GetByID(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding admin by ID")
	}
	return ctx.JSON(http.StatusOK, adm)
}
