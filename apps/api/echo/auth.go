package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

const (
	contextTokenKey = "userToken"
	audience        = "gctu-portal"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

func (c Claims) Identity() user.Identity {
	return user.Identity{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

type authenticator struct {
	jwtConfig    middleware.JWTConfig
	issuer       string
	expiration   time.Duration
	refreshDelta time.Duration
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		issuer:       conf.AppName,
		expiration:   conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
	}
}

func (a *authenticator) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtConfig)
}

func (a *authenticator) userClaims(usr user.User, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) token(usr user.User) (string, error) {
	return a.generateToken(a.userClaims(usr))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getIdentity returns the identity of the authenticated caller.
func getIdentity(ctx echo.Context) (user.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.Identity(), nil
}

func (a *authenticator) refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.generateToken(a.userClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
