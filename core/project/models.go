package project

import (
	"io"
	"time"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

type Status string

// Statuses
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsDecision reports whether s is a status an admin may review a project into.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

type Project struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	File        string    `json:"file,omitempty" db:"file"` // blob key, empty when no attachment
	Status      Status    `json:"status" db:"status"`
	Feedback    string    `json:"feedback,omitempty" db:"feedback"`
	Version     int       `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
	StudentID   string    `json:"student_id" db:"student_id"`
	StudentName string    `json:"student_name,omitempty" db:"student_name"` // read only
}

func (p Project) HasFile() bool { return p.File != "" }

// Upload is an attachment sent along a submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

func (u *Upload) isEmpty() bool {
	return u == nil || u.Content == nil || core.CleanString(u.Filename) == ""
}

// NewProject contains information needed to submit a project.
type NewProject struct {
	Title       string  `json:"title" form:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" form:"description" validate:"required,notblank"`
	File        *Upload `json:"-" form:"-"`
}

func (np *NewProject) Validate() error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	return core.Validate.Struct(np)
}

// ResubmitProject replaces the content of a rejected project.
// A nil File keeps the current attachment.
type ResubmitProject struct {
	Title       string  `json:"title" form:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" form:"description" validate:"required,notblank"`
	File        *Upload `json:"-" form:"-"`
	Version     int     `json:"version" form:"version"` // optional, expected current version
}

func (rp *ResubmitProject) Validate() error {
	rp.Title = core.CleanString(rp.Title)
	rp.Description = core.CleanString(rp.Description)
	return core.Validate.Struct(rp)
}

// Review is an admin decision on a project.
type Review struct {
	Decision Status `json:"status" form:"status"`
	Feedback string `json:"feedback" form:"feedback"`
	Version  int    `json:"version" form:"version"` // optional, expected current version
}

func (r *Review) Validate() error {
	r.Decision = Status(core.CleanString(string(r.Decision), true /* lower */))
	r.Feedback = core.CleanString(r.Feedback)
	if !r.Decision.IsDecision() {
		return core.NewValidationError(ErrInvalidDecision, core.FieldError{Field: "status", Error: ErrInvalidDecision.Error()})
	}
	return nil
}

type QueryFilter struct {
	StudentID string
	Status    Status
}

// Stats feeds the admin dashboard.
type Stats struct {
	TotalStudents int `json:"total_students"`
	TotalProjects int `json:"total_projects"`
	Approved      int `json:"approved"`
	Pending       int `json:"pending"`
	Rejected      int `json:"rejected"`
}
