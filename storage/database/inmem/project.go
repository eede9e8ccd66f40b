package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/sintimjnr/gctu-project-submission-system/core/project"
)

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) *projectRepository {
	return &projectRepository{db: db}
}

// withStudent copies p and fills the student name, like the SQL join does.
func (repo *projectRepository) withStudent(p *project.Project) project.Project {
	out := *p
	out.StudentName = ""
	if u := repo.db.userByID(p.StudentID); u != nil {
		out.StudentName = u.Name
	}
	return out
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	stored := p
	repo.db.projects = append(repo.db.projects, &stored)
	return p, nil
}

func (repo *projectRepository) GetProjectByID(_ context.Context, id string) (project.Project, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.projectIndex(id); i >= 0 {
		return repo.withStudent(repo.db.projects[i]), nil
	}
	return project.Project{}, project.ErrNotFound
}

func matchProject(p *project.Project, filter project.QueryFilter) bool {
	if filter.StudentID != "" && p.StudentID != filter.StudentID {
		return false
	}
	return filter.Status == "" || p.Status == filter.Status
}

func (repo *projectRepository) QueryProjects(_ context.Context, filter project.QueryFilter) ([]project.Project, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.projects))
	for _, p := range repo.db.projects {
		if matchProject(p, filter) {
			projects = append(projects, repo.withStudent(p))
		}
	}
	return projects, nil
}

func (repo *projectRepository) CountProjects(ctx context.Context, filter project.QueryFilter) (int, error) {
	projects, err := repo.QueryProjects(ctx, filter)
	return len(projects), err
}

func (repo *projectRepository) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.projectIndex(p.ID)
	if i < 0 {
		return project.Project{}, project.ErrNotFound
	}
	orig := repo.db.projects[i]
	if orig.Version != p.Version {
		return project.Project{}, project.ErrConflict
	}
	orig.Title = p.Title
	orig.Description = p.Description
	orig.File = p.File
	orig.Status = p.Status
	orig.Feedback = p.Feedback
	orig.UpdatedAt = p.UpdatedAt
	orig.Version++
	return repo.withStudent(orig), nil
}

func (repo *projectRepository) DeleteProject(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.projectIndex(id)
	if i < 0 {
		return project.ErrNotFound
	}
	repo.db.projects = append(repo.db.projects[:i], repo.db.projects[i+1:]...)
	return nil
}

func (repo *projectRepository) CountFileReferences(_ context.Context, file string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for _, p := range repo.db.projects {
		if p.File == file {
			n++
		}
	}
	return n, nil
}
