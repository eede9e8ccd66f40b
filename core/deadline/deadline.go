// Package deadline holds the single global submission deadline.
package deadline

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

// InputLayout is the form used by the admin form and CLI.
const InputLayout = "2006-01-02T15:04"

var (
	ErrNotSet   = errors.New("submission deadline not set")
	ErrExceeded = errors.New("the submission deadline has passed")
)

type (
	Repository interface {
		// GetDeadline returns ErrNotSet when no deadline is stored.
		GetDeadline(ctx context.Context) (time.Time, error)
		// SetDeadline overwrites the stored deadline.
		SetDeadline(ctx context.Context, t time.Time) error
	}

	// Change describes the outcome of Set.
	Change struct {
		Deadline time.Time `json:"deadline"`
		InPast   bool      `json:"in_past"`
	}

	Service interface {
		// Get returns the active deadline, seeding the default when none is stored.
		Get(ctx context.Context) (time.Time, error)
		Set(ctx context.Context, id user.Identity, t time.Time) (Change, error)
		// Check returns ErrExceeded when now is after the deadline.
		Check(ctx context.Context, now time.Time) error
		// Seed stores the default deadline if none is stored and reports whether it did.
		Seed(ctx context.Context) (bool, error)
		Location() *time.Location
	}

	service struct {
		repo   Repository
		logger core.Logger
		def    time.Time
		loc    *time.Location
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger, conf *core.Config) (Service, error) {
	loc := conf.Location()
	def, err := ParseInput(conf.Deadline.Default, loc)
	if err != nil {
		return nil, errors.Wrap(err, "parsing default deadline")
	}
	return &service{repo: repo, logger: logger, def: def, loc: loc}, nil
}

// ParseInput parses a YYYY-MM-DDTHH:MM value in loc and returns it in UTC.
func ParseInput(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.Replace(core.CleanString(s), " ", "T", 1)
	t, err := time.ParseInLocation(InputLayout, s, loc)
	if err != nil {
		return time.Time{}, core.NewValidationError(
			errors.Wrap(err, "invalid deadline"),
			core.FieldError{Field: "deadline", Error: "use the format YYYY-MM-DDTHH:MM"},
		)
	}
	return t.UTC(), nil
}

func (svc *service) Location() *time.Location { return svc.loc }

func (svc *service) Get(ctx context.Context) (time.Time, error) {
	t, err := svc.repo.GetDeadline(ctx)
	if errors.Is(err, ErrNotSet) {
		if _, err := svc.Seed(ctx); err != nil {
			return time.Time{}, err
		}
		return svc.def, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "getting deadline")
	}
	return t.UTC(), nil
}

func (svc *service) Set(ctx context.Context, id user.Identity, t time.Time) (Change, error) {
	if !id.IsAdmin() {
		return Change{}, core.ErrForbidden
	}
	if t.IsZero() {
		return Change{}, core.NewValidationError(ErrNotSet, core.FieldError{Field: "deadline", Error: "this field is required"})
	}
	t = t.UTC().Truncate(time.Minute)
	if err := svc.repo.SetDeadline(ctx, t); err != nil {
		return Change{}, errors.Wrap(err, "setting deadline")
	}
	chg := Change{Deadline: t, InPast: t.Before(core.NowFunc())}
	if chg.InPast {
		svc.logger.Warn("deadline set in the past, submissions are now closed", id, map[string]interface{}{"deadline": t})
	}
	return chg, nil
}

func (svc *service) Check(ctx context.Context, now time.Time) error {
	dl, err := svc.Get(ctx)
	if err != nil {
		return err
	}
	if now.After(dl) {
		return ErrExceeded
	}
	return nil
}

func (svc *service) Seed(ctx context.Context) (bool, error) {
	_, err := svc.repo.GetDeadline(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotSet) {
		return false, errors.Wrap(err, "getting deadline")
	}
	if err := svc.repo.SetDeadline(ctx, svc.def); err != nil {
		return false, errors.Wrap(err, "seeding deadline")
	}
	return true, nil
}
