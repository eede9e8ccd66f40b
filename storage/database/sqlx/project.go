package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
)

const projectSelect = `SELECT p.id, p.title, p.description, p.file, p.status, p.feedback, p.version,
	p.created_at, p.updated_at, p.student_id, u.name AS student_name
FROM projects p LEFT JOIN users u ON u.id = p.student_id`

type projectRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	File        null.String `db:"file"`
	Status      string      `db:"status"`
	Feedback    null.String `db:"feedback"`
	Version     int         `db:"version"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	StudentID   string      `db:"student_id"`
	StudentName null.String `db:"student_name"`
}

func (r projectRow) toProject() project.Project {
	return project.Project{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		File:        r.File.String,
		Status:      project.Status(r.Status),
		Feedback:    r.Feedback.String,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		StudentID:   r.StudentID,
		StudentName: r.StudentName.String,
	}
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

type projectRepository struct {
	repo
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(exec core.DBExecutor) *projectRepository {
	return &projectRepository{repo{exec: exec}}
}

func (r *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	q := r.rebind(`INSERT INTO projects (id, title, description, file, status, feedback, version, created_at, updated_at, student_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.exec.ExecContext(ctx, q,
		p.ID, p.Title, p.Description, nullString(p.File), string(p.Status), nullString(p.Feedback),
		p.Version, p.CreatedAt.UTC(), p.UpdatedAt.UTC(), p.StudentID,
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return p, nil
}

func (r *projectRepository) GetProjectByID(ctx context.Context, id string) (project.Project, error) {
	var row projectRow
	if err := sqlx.GetContext(ctx, r.exec, &row, r.rebind(projectSelect+` WHERE p.id = ?`), id); err != nil {
		return project.Project{}, trapNoRows(err, project.ErrNotFound, "selecting project")
	}
	return row.toProject(), nil
}

func projectWhere(filter project.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.StudentID != "" {
		conds = append(conds, "p.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "p.status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *projectRepository) QueryProjects(ctx context.Context, filter project.QueryFilter) ([]project.Project, error) {
	where, args := projectWhere(filter)
	var rows []projectRow
	if err := sqlx.SelectContext(ctx, r.exec, &rows, r.rebind(projectSelect+where+` ORDER BY p.seq`), args...); err != nil {
		return nil, errors.Wrap(err, "selecting projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toProject())
	}
	return projects, nil
}

func (r *projectRepository) CountProjects(ctx context.Context, filter project.QueryFilter) (int, error) {
	where, args := projectWhere(filter)
	var n int
	if err := sqlx.GetContext(ctx, r.exec, &n, r.rebind(`SELECT COUNT(*) FROM projects p`+where), args...); err != nil {
		return 0, errors.Wrap(err, "counting projects")
	}
	return n, nil
}

func (r *projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	q := r.rebind(`UPDATE projects
SET title = ?, description = ?, file = ?, status = ?, feedback = ?, version = version + 1, updated_at = ?
WHERE id = ? AND version = ?`)
	res, err := r.exec.ExecContext(ctx, q,
		p.Title, p.Description, nullString(p.File), string(p.Status), nullString(p.Feedback), p.UpdatedAt.UTC(),
		p.ID, p.Version,
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if n == 0 {
		if _, err := r.GetProjectByID(ctx, p.ID); err != nil {
			return project.Project{}, err
		}
		return project.Project{}, project.ErrConflict
	}
	p.Version++
	return p, nil
}

func (r *projectRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.exec.ExecContext(ctx, r.rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.ErrNotFound
	}
	return nil
}

func (r *projectRepository) CountFileReferences(ctx context.Context, file string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.exec, &n, r.rebind(`SELECT COUNT(*) FROM projects WHERE file = ?`), file); err != nil {
		return 0, errors.Wrap(err, "counting file references")
	}
	return n, nil
}
