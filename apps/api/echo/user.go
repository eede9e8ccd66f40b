package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

type userApi struct {
	svc  user.Service
	auth *authenticator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc user.Service) {
	api := userApi{svc: svc, auth: auth}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.POST("/change-password", api.changePassword)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.token(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: &usr})
}

func (api *userApi) me(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := api.svc.ChangePassword(ctx.Request().Context(), id, data); err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return core.NewValidationError(err, core.FieldError{Field: "old_password", Error: "incorrect password"})
		}
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your password has been changed."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string     `json:"token"`
		User  *user.User `json:"user,omitempty"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}
