package echoapi

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
)

type projectApi struct {
	svc       project.Service
	deadlines deadline.Service
	metrics   *metricsvc.Metrics
}

func registerProjectAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc project.Service,
	deadlines deadline.Service,
	metrics *metricsvc.Metrics,
) {
	api := projectApi{svc: svc, deadlines: deadlines, metrics: metrics}

	sg := g.Group("/student/projects", jwt, studentMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.submit)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.resubmit)
	sg.DELETE("/:id", api.destroy)

	g.GET("/projects/:id/file", api.download, jwt)
}

// observe records the outcome of a lifecycle operation.
func (api *projectApi) observe(operation string, p project.Project, err error) {
	if err == nil {
		api.metrics.ObserveTransition(operation, string(p.Status))
		return
	}
	switch {
	case errors.Is(err, deadline.ErrExceeded):
		api.metrics.ObserveRefusal(operation, "deadline")
	case errors.Is(err, core.ErrForbidden):
		api.metrics.ObserveRefusal(operation, "forbidden")
	case errors.Is(err, project.ErrInvalidTransition):
		api.metrics.ObserveRefusal(operation, "transition")
	case errors.Is(err, project.ErrConflict):
		api.metrics.ObserveRefusal(operation, "conflict")
	}
}

type StudentProjectsResponse struct {
	Projects []project.Project `json:"projects"`
	Deadline DeadlineResponse  `json:"deadline"`
}

func (api *projectApi) query(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	projects, err := api.svc.ListForStudent(c, id, id.ID)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	dl, err := api.deadlines.Get(c)
	if err != nil {
		return errors.Wrap(err, "getting deadline")
	}
	dapi := deadlineApi{svc: api.deadlines}
	return ctx.JSON(http.StatusOK, StudentProjectsResponse{Projects: projects, Deadline: dapi.response(dl)})
}

func (api *projectApi) submit(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	data, upload, release, err := bindProject(ctx)
	if err != nil {
		return err
	}
	defer release()

	p, err := api.svc.Submit(ctx.Request().Context(), id, project.NewProject{
		Title:       data.Title,
		Description: data.Description,
		File:        upload,
	})
	api.observe("submit", p, err)
	if err != nil {
		return errors.Wrap(err, "submitting project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetForOwnerOrAdmin(ctx.Request().Context(), id, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) resubmit(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	data, upload, release, err := bindProject(ctx)
	if err != nil {
		return err
	}
	defer release()

	p, err := api.svc.Resubmit(ctx.Request().Context(), id, ctx.Param("id"), project.ResubmitProject{
		Title:       data.Title,
		Description: data.Description,
		File:        upload,
		Version:     data.Version,
	})
	api.observe("resubmit", p, err)
	if err != nil {
		return errors.Wrap(err, "resubmitting project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	err = api.svc.Delete(ctx.Request().Context(), id, ctx.Param("id"))
	api.observe("delete", project.Project{Status: "deleted"}, err)
	if err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) download(ctx echo.Context) error {
	id, err := getIdentity(ctx)
	if err != nil {
		return err
	}
	rc, p, err := api.svc.OpenFile(ctx.Request().Context(), id, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "opening project file")
	}
	defer rc.Close()

	name := downloadName(p)
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, attachment(name))
	return ctx.Stream(http.StatusOK, ctype, rc)
}

// downloadName strips the "{student_id}_" prefix of the blob key.
func downloadName(p project.Project) string {
	return strings.TrimPrefix(p.File, p.StudentID+"_")
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
