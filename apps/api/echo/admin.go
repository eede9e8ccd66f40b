package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/report"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
)

type adminApi struct {
	users    user.Service
	projects project.Service
	reports  *report.Generator
	metrics  *metricsvc.Metrics
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := adminApi{
		users:    opts.UserSvc,
		projects: opts.ProjectSvc,
		reports:  opts.Reports,
		metrics:  opts.Metrics,
	}
	papi := projectApi{svc: opts.ProjectSvc, metrics: opts.Metrics}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/dashboard", api.dashboard)

	ag.GET("/projects/:id", api.retrieveProject)
	ag.POST("/projects/:id/review", papi.review)

	ag.GET("/students", api.queryStudents)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.POST("/students/:id/reset-password", api.resetPassword)

	ag.GET("/reports/projects", api.projectReport)
	ag.GET("/reports/students", api.studentReport)
}

type (
	DashboardResponse struct {
		Stats    project.Stats     `json:"stats"`
		Projects []project.Project `json:"projects"`
	}

	StudentResponse struct {
		Student  user.User         `json:"student"`
		Projects []project.Project `json:"projects"`
	}

	ResetPasswordResponse struct {
		Success  string `json:"success"`
		Password string `json:"password"`
	}
)

func (api *adminApi) dashboard(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	stats, err := api.projects.Stats(c, id)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	projects, err := api.projects.ListAll(c, id)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Stats: stats, Projects: projects})
}

func (api *adminApi) retrieveProject(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	p, err := api.projects.Get(ctx.Request().Context(), id, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) review(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	var data project.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}

	p, err := api.svc.Review(ctx.Request().Context(), id, ctx.Param("id"), data)
	api.observe("review", p, err)
	if err != nil {
		return errors.Wrap(err, "reviewing project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *adminApi) queryStudents(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	students, err := api.users.QueryStudents(ctx.Request().Context(), filter.Search)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *adminApi) retrieveStudent(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	usr, err := api.users.GetByID(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	if !usr.IsStudent() {
		return errHttpNotFound
	}
	projects, err := api.projects.ListForStudent(c, id, usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, StudentResponse{Student: usr, Projects: projects})
}

func (api *adminApi) resetPassword(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	pwd, err := api.users.ResetPassword(c, id, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	usr, err := api.users.GetByID(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, ResetPasswordResponse{
		Success:  "Password for " + usr.Name + " has been reset.",
		Password: pwd,
	})
}

func (api *adminApi) projectReport(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	doc, err := api.reports.ProjectReport(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "generating project report")
	}
	return api.sendReport(ctx, "projects", doc)
}

func (api *adminApi) studentReport(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	doc, err := api.reports.StudentReport(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "generating student report")
	}
	return api.sendReport(ctx, "students", doc)
}

func (api *adminApi) sendReport(ctx echo.Context, name string, doc report.Document) error {
	api.metrics.ObserveReport(name, doc.Pages)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, attachment(doc.Filename))
	return ctx.Stream(http.StatusOK, doc.ContentType, bytes.NewReader(doc.Bytes))
}
