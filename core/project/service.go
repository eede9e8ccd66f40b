// Package project implements the submission lifecycle:
//
//	(submit) -> pending -> approved | rejected
//	rejected -(resubmit)-> pending
//
// Admins may review a project from any status. Owners may delete from any status.
package project

import (
	"context"
	"io"
	"net/mail"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("project not found")
	ErrNoFile            = errors.New("project has no attached file")
	ErrInvalidTransition = errors.New("only rejected projects can be edited")
	ErrInvalidDecision   = errors.New("status must be one of approved, rejected")
	ErrConflict          = errors.New("project was modified concurrently, reload and try again")
	ErrDeadlineExceeded  = deadline.ErrExceeded
)

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project) (Project, error)
		// GetProjectByID returns the project along with its student's name.
		GetProjectByID(ctx context.Context, id string) (Project, error)
		// QueryProjects returns projects in insertion order.
		QueryProjects(ctx context.Context, filter QueryFilter) ([]Project, error)
		CountProjects(ctx context.Context, filter QueryFilter) (int, error)
		// UpdateProject writes p if its stored version still equals p.Version,
		// returning the project with the incremented version. ErrConflict otherwise.
		UpdateProject(ctx context.Context, p Project) (Project, error)
		DeleteProject(ctx context.Context, id string) error
		// CountFileReferences counts the projects pointing at the blob key.
		CountFileReferences(ctx context.Context, file string) (int, error)
	}

	// Students is the part of the credential store the lifecycle needs.
	Students interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		CountStudents(ctx context.Context) (int, error)
	}

	Service interface {
		Submit(ctx context.Context, id user.Identity, np NewProject) (Project, error)
		Review(ctx context.Context, id user.Identity, projectID string, r Review) (Project, error)
		Resubmit(ctx context.Context, id user.Identity, projectID string, rp ResubmitProject) (Project, error)
		Delete(ctx context.Context, id user.Identity, projectID string) error

		// Get is the admin view of any project.
		Get(ctx context.Context, id user.Identity, projectID string) (Project, error)
		GetForOwnerOrAdmin(ctx context.Context, id user.Identity, projectID string) (Project, error)
		ListForStudent(ctx context.Context, id user.Identity, studentID string) ([]Project, error)
		ListAll(ctx context.Context, id user.Identity) ([]Project, error)
		Stats(ctx context.Context, id user.Identity) (Stats, error)
		OpenFile(ctx context.Context, id user.Identity, projectID string) (io.ReadCloser, Project, error)
	}

	service struct {
		repo              Repository
		students          Students
		deadlines         deadline.Service
		blobs             core.BlobStore
		mailSvc           core.EmailService
		logger            core.Logger
		gateResubmissions bool
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	repo Repository,
	students Students,
	deadlines deadline.Service,
	blobs core.BlobStore,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		repo:              repo,
		students:          students,
		deadlines:         deadlines,
		blobs:             blobs,
		mailSvc:           mailSvc,
		logger:            logger,
		gateResubmissions: conf.Deadline.GateResubmissions,
	}
}

// FileKey derives the blob key of an upload: "{student_id}_{base filename}".
func FileKey(studentID, filename string) string {
	name := path.Base(strings.ReplaceAll(core.CleanString(filename), `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return studentID + "_" + name
}

func (svc *service) Submit(ctx context.Context, id user.Identity, np NewProject) (Project, error) {
	if !id.IsStudent() {
		return Project{}, core.ErrForbidden
	}
	if err := svc.deadlines.Check(ctx, core.NowFunc()); err != nil {
		return Project{}, err
	}
	if err := np.Validate(); err != nil {
		return Project{}, err
	}

	var key string
	if !np.File.isEmpty() {
		if key = FileKey(id.ID, np.File.Filename); key != "" {
			if err := svc.blobs.Save(ctx, key, np.File.Content); err != nil {
				return Project{}, errors.Wrap(err, "saving attachment")
			}
		}
	}

	now := core.NowFunc()
	p, err := svc.repo.CreateProject(ctx, Project{
		Title:       np.Title,
		Description: np.Description,
		File:        key,
		Status:      StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		StudentID:   id.ID,
	})
	if err != nil {
		svc.releaseFile(ctx, key)
		return Project{}, errors.Wrap(err, "creating project")
	}
	p.StudentName = id.Name
	return p, nil
}

func (svc *service) Review(ctx context.Context, id user.Identity, projectID string, r Review) (Project, error) {
	if !id.IsAdmin() {
		return Project{}, core.ErrForbidden
	}
	if err := r.Validate(); err != nil {
		return Project{}, err
	}
	p, err := svc.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if r.Version != 0 && r.Version != p.Version {
		return Project{}, ErrConflict
	}

	p.Status = r.Decision
	p.Feedback = r.Feedback
	p.UpdatedAt = core.NowFunc()
	if p, err = svc.repo.UpdateProject(ctx, p); err != nil {
		return Project{}, err
	}
	svc.sendReviewMail(ctx, p)
	return p, nil
}

func (svc *service) sendReviewMail(ctx context.Context, p Project) {
	student, err := svc.students.GetByID(ctx, p.StudentID)
	if err != nil {
		svc.logger.Error("looking up student for review notification", err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your project has been " + string(p.Status),
		TemplateName: "project_reviewed",
		TemplateData: map[string]interface{}{
			"Title":    p.Title,
			"Status":   string(p.Status),
			"Feedback": p.Feedback,
		},
	})
}

func (svc *service) Resubmit(ctx context.Context, id user.Identity, projectID string, rp ResubmitProject) (Project, error) {
	p, err := svc.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if p.StudentID != id.ID {
		return Project{}, core.ErrForbidden
	}
	if p.Status != StatusRejected {
		return Project{}, ErrInvalidTransition
	}
	if rp.Version != 0 && rp.Version != p.Version {
		return Project{}, ErrConflict
	}
	if svc.gateResubmissions {
		if err := svc.deadlines.Check(ctx, core.NowFunc()); err != nil {
			return Project{}, err
		}
	}
	if err := rp.Validate(); err != nil {
		return Project{}, err
	}

	oldKey, newKey := p.File, ""
	if !rp.File.isEmpty() {
		if newKey = FileKey(id.ID, rp.File.Filename); newKey != "" {
			if err := svc.blobs.Save(ctx, newKey, rp.File.Content); err != nil {
				return Project{}, errors.Wrap(err, "saving attachment")
			}
			p.File = newKey
		}
	}

	p.Title = rp.Title
	p.Description = rp.Description
	p.Status = StatusPending
	p.Feedback = ""
	p.UpdatedAt = core.NowFunc()
	updated, err := svc.repo.UpdateProject(ctx, p)
	if err != nil {
		if newKey != oldKey {
			svc.releaseFile(ctx, newKey)
		}
		return Project{}, err
	}
	if newKey != "" && newKey != oldKey {
		svc.releaseFile(ctx, oldKey)
	}
	return updated, nil
}

func (svc *service) Delete(ctx context.Context, id user.Identity, projectID string) error {
	p, err := svc.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.StudentID != id.ID {
		return core.ErrForbidden
	}
	if err := svc.repo.DeleteProject(ctx, p.ID); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	svc.releaseFile(ctx, p.File)
	return nil
}

// releaseFile deletes the blob unless some project still references it.
// Failures are logged only: the record operation already succeeded.
func (svc *service) releaseFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	n, err := svc.repo.CountFileReferences(ctx, key)
	if err != nil {
		svc.logger.Error("counting file references", err, map[string]interface{}{"file": key})
		return
	}
	if n > 0 {
		return
	}
	if err := svc.blobs.Delete(ctx, key); err != nil {
		svc.logger.Error("deleting file", err, map[string]interface{}{"file": key})
	}
}

func (svc *service) Get(ctx context.Context, id user.Identity, projectID string) (Project, error) {
	if !id.IsAdmin() {
		return Project{}, core.ErrForbidden
	}
	return svc.repo.GetProjectByID(ctx, projectID)
}

func (svc *service) GetForOwnerOrAdmin(ctx context.Context, id user.Identity, projectID string) (Project, error) {
	p, err := svc.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	if !id.IsAdmin() && p.StudentID != id.ID {
		return Project{}, core.ErrForbidden
	}
	return p, nil
}

func (svc *service) ListForStudent(ctx context.Context, id user.Identity, studentID string) ([]Project, error) {
	if !id.IsAdmin() && studentID != id.ID {
		return nil, core.ErrForbidden
	}
	return svc.repo.QueryProjects(ctx, QueryFilter{StudentID: studentID})
}

func (svc *service) ListAll(ctx context.Context, id user.Identity) ([]Project, error) {
	if !id.IsAdmin() {
		return nil, core.ErrForbidden
	}
	return svc.repo.QueryProjects(ctx, QueryFilter{})
}

func (svc *service) Stats(ctx context.Context, id user.Identity) (Stats, error) {
	if !id.IsAdmin() {
		return Stats{}, core.ErrForbidden
	}
	var (
		stats Stats
		err   error
	)
	if stats.TotalStudents, err = svc.students.CountStudents(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	counts := []struct {
		dst    *int
		filter QueryFilter
	}{
		{&stats.TotalProjects, QueryFilter{}},
		{&stats.Approved, QueryFilter{Status: StatusApproved}},
		{&stats.Pending, QueryFilter{Status: StatusPending}},
		{&stats.Rejected, QueryFilter{Status: StatusRejected}},
	}
	for _, c := range counts {
		if *c.dst, err = svc.repo.CountProjects(ctx, c.filter); err != nil {
			return Stats{}, errors.Wrap(err, "counting projects")
		}
	}
	return stats, nil
}

func (svc *service) OpenFile(ctx context.Context, id user.Identity, projectID string) (io.ReadCloser, Project, error) {
	p, err := svc.GetForOwnerOrAdmin(ctx, id, projectID)
	if err != nil {
		return nil, Project{}, err
	}
	if !p.HasFile() {
		return nil, Project{}, ErrNoFile
	}
	rc, err := svc.blobs.Open(ctx, p.File)
	if err != nil {
		if errors.Is(err, core.ErrBlobNotFound) {
			return nil, Project{}, ErrNoFile
		}
		return nil, Project{}, errors.Wrap(err, "opening attachment")
	}
	return rc, p, nil
}
