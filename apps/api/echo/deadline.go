package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
)

type deadlineApi struct {
	svc deadline.Service
}

func registerDeadlineAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc deadline.Service) {
	api := deadlineApi{svc: svc}

	g.GET("/deadline", api.retrieve, jwt)

	ag := g.Group("/admin/deadline", jwt, adminMiddleware())
	ag.GET("", api.retrieve)
	ag.PUT("", api.update)
}

type (
	DeadlineResponse struct {
		Deadline time.Time `json:"deadline"`
		Local    string    `json:"local"`
		Timezone string    `json:"timezone"`
		Open     bool      `json:"open"`
	}

	DeadlineRequest struct {
		Deadline string `json:"deadline" form:"deadline"`
	}

	DeadlineChangeResponse struct {
		DeadlineResponse
		InPast  bool   `json:"in_past"`
		Warning string `json:"warning,omitempty"`
	}
)

func (api *deadlineApi) response(dl time.Time) DeadlineResponse {
	loc := api.svc.Location()
	return DeadlineResponse{
		Deadline: dl,
		Local:    dl.In(loc).Format(deadline.InputLayout),
		Timezone: loc.String(),
		Open:     !core.NowFunc().After(dl),
	}
}

func (api *deadlineApi) retrieve(ctx echo.Context) error {
	dl, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting deadline")
	}
	return ctx.JSON(http.StatusOK, api.response(dl))
}

func (api *deadlineApi) update(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}

	var data DeadlineRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeadlineRequest")
	}
	t, err := deadline.ParseInput(data.Deadline, api.svc.Location())
	if err != nil {
		return err
	}

	chg, err := api.svc.Set(ctx.Request().Context(), id, t)
	if err != nil {
		return errors.Wrap(err, "setting deadline")
	}
	resp := DeadlineChangeResponse{DeadlineResponse: api.response(chg.Deadline), InPast: chg.InPast}
	if chg.InPast {
		resp.Warning = "The deadline is in the past: students can no longer submit projects."
	}
	return ctx.JSON(http.StatusOK, resp)
}
