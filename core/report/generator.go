package report

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

const (
	StudentsFilename = "GCTU_Registered_Students_Report.pdf"
	ProjectsFilename = "GCTU_Submitted_Projects_Report.pdf"
)

var (
	StudentsSpec = Spec{
		Title:      "REGISTERED STUDENTS REPORT",
		TotalLabel: "Registered Students",
		Filename:   StudentsFilename,
		Table: Table{Columns: []Column{
			{Header: "NAME", X: 20},
			{Header: "PROGRAMME", X: 80},
			{Header: "LEVEL", X: 140},
		}},
	}

	ProjectsSpec = Spec{
		Title:      "SUBMITTED PROJECTS REPORT",
		TotalLabel: "Submitted Projects",
		Filename:   ProjectsFilename,
		Table: Table{Columns: []Column{
			{Header: "STUDENT", X: 20},
			{Header: "PROJECT TITLE", X: 70, MaxChars: 40},
			{Header: "STATUS", X: 140},
		}},
	}
)

// StudentRows streams students as NAME, PROGRAMME, LEVEL.
func StudentRows(ctx context.Context, repo user.Repository) Stream {
	return func(emit func(Row) error) error {
		students, err := repo.QueryUsers(ctx, user.QueryFilter{Role: user.RoleStudent})
		if err != nil {
			return errors.Wrap(err, "querying students")
		}
		for _, s := range students {
			if err := emit(Row{s.Name, s.Programme, s.Level}); err != nil {
				return err
			}
		}
		return nil
	}
}

// ProjectRows streams projects as STUDENT, PROJECT TITLE, STATUS.
func ProjectRows(ctx context.Context, repo project.Repository) Stream {
	return func(emit func(Row) error) error {
		projects, err := repo.QueryProjects(ctx, project.QueryFilter{})
		if err != nil {
			return errors.Wrap(err, "querying projects")
		}
		for _, p := range projects {
			if err := emit(Row{p.StudentName, p.Title, string(p.Status)}); err != nil {
				return err
			}
		}
		return nil
	}
}

type Generator struct {
	users    user.Repository
	projects project.Repository
	logger   core.Logger
	conf     *core.Config
}

func NewGenerator(users user.Repository, projects project.Repository, logger core.Logger, conf *core.Config) *Generator {
	return &Generator{users: users, projects: projects, logger: logger, conf: conf}
}

func (g *Generator) StudentReport(ctx context.Context, id user.Identity) (Document, error) {
	if !id.IsAdmin() {
		return Document{}, core.ErrForbidden
	}
	return g.render(StudentsSpec, StudentRows(ctx, g.users))
}

func (g *Generator) ProjectReport(ctx context.Context, id user.Identity) (Document, error) {
	if !id.IsAdmin() {
		return Document{}, core.ErrForbidden
	}
	return g.render(ProjectsSpec, ProjectRows(ctx, g.projects))
}

func (g *Generator) layout() Layout {
	logo := g.conf.Report.LogoPath
	if logo != "" && !filepath.IsAbs(logo) {
		logo = filepath.Join(g.conf.WorkDir, logo)
	}
	return Layout{
		Institution: g.conf.Institution,
		SystemName:  g.conf.SystemName,
		LogoPath:    logo,
		GeneratedAt: core.NowFunc().In(g.conf.Location()),
		Geometry:    DefaultGeometry,
		logoFailed: func(err error) {
			g.logger.Debug("report logo skipped", err)
		},
	}
}

func (g *Generator) render(spec Spec, stream Stream) (Document, error) {
	if g.conf.Report.TitleMax > 0 {
		spec.Table.Columns = withMaxChars(spec.Table.Columns, g.conf.Report.TitleMax)
	}
	c := newPDFCanvas(spec.Title, g.conf.Institution)
	sum, err := g.layout().Render(c, spec, stream)
	if err != nil {
		return Document{}, err
	}
	b, err := c.bytes()
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    spec.Filename,
		ContentType: ContentTypePDF,
		Bytes:       b,
		Rows:        sum.Rows,
		Pages:       sum.Pages,
	}, nil
}

// withMaxChars overrides the truncation of the columns that truncate.
func withMaxChars(cols []Column, n int) []Column {
	out := make([]Column, len(cols))
	for i, col := range cols {
		if col.MaxChars > 0 {
			col.MaxChars = n
		}
		out[i] = col
	}
	return out
}
