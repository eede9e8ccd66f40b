package user

import (
	"context"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminPasswordReset = core.NewForbiddenError("admin password cannot be reset")
)

type (
	Repository interface {
		// CreateUser inserts usr; ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers returns users in insertion order.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int, error)
		// UpdateUser persists the mutable fields of usr: name, password and profile.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		Register(ctx context.Context, ns NewStudent) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, password string) (User, error)
		ChangePassword(ctx context.Context, id Identity, cp ChangePassword) error
		ResetPassword(ctx context.Context, id Identity, userID string) (string, error)
		SetPassword(ctx context.Context, email, password string) error
		EnsureAdmin(ctx context.Context, name, email, password string) (User, bool, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		QueryStudents(ctx context.Context, search string) ([]User, error)
		CountStudents(ctx context.Context) (int, error)
	}

	service struct {
		repo         Repository
		mailSvc      core.EmailService
		logger       core.Logger
		tempPassword string
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:         repo,
		mailSvc:      mailSvc,
		logger:       logger,
		tempPassword: conf.Auth.TemporaryPassword,
	}
}

// emailExistsErr wraps ErrEmailExists in a ValidationError on the email field.
func emailExistsErr() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func (svc *service) checkUniqueness(ctx context.Context, email string) error {
	_, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return emailExistsErr()
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

func (svc *service) create(ctx context.Context, usr User, pwd string) (User, error) {
	now := core.NowFunc()
	usr.ID = uuid.New().String()
	usr.CreatedAt = now
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	created, err := svc.repo.CreateUser(ctx, usr)
	if errors.Is(err, ErrEmailExists) { // lost a race with a concurrent registration
		return User{}, emailExistsErr()
	}
	return created, err
}

func (svc *service) Register(ctx context.Context, ns NewStudent) (User, error) {
	if err := ns.Validate(); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, ns.Email); err != nil {
		return User{}, err
	}
	return svc.create(ctx, User{
		Name:        ns.Name,
		Email:       ns.Email,
		Role:        RoleStudent,
		Level:       ns.Level,
		Programme:   ns.Programme,
		Department:  ns.Department,
		SessionType: ns.SessionType,
	}, ns.Password)
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}
	return svc.create(ctx, User{Name: nu.Name, Email: nu.Email, Role: nu.Role}, nu.Password)
}

func (svc *service) Authenticate(ctx context.Context, email, password string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) ChangePassword(ctx context.Context, id Identity, cp ChangePassword) error {
	usr, err := svc.repo.GetUserByID(ctx, id.ID)
	if err != nil {
		return err
	}
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := cp.Validate(usr); err != nil {
		return err
	}
	return svc.updatePassword(ctx, usr, cp.Password)
}

func (svc *service) updatePassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return err
}

// ResetPassword sets the student's password to the configured temporary password and returns it.
func (svc *service) ResetPassword(ctx context.Context, id Identity, userID string) (string, error) {
	if !id.IsAdmin() {
		return "", core.ErrForbidden
	}
	usr, err := svc.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if usr.IsAdmin() {
		return "", ErrAdminPasswordReset
	}
	if err := svc.updatePassword(ctx, usr, svc.tempPassword); err != nil {
		return "", err
	}
	svc.logger.Warn("password reset to the shared temporary password", id, map[string]interface{}{"user_id": usr.ID})
	svc.sendPasswordResetMail(usr, svc.tempPassword)
	return svc.tempPassword, nil
}

func (svc *service) sendPasswordResetMail(usr User, pwd string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your password has been reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Email": usr.Email, "Password": pwd},
	})
}

// SetPassword sets a user's password without applying the password policy.
func (svc *service) SetPassword(ctx context.Context, email, password string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	return svc.updatePassword(ctx, usr, password)
}

// EnsureAdmin creates the admin account unless a user with the same email exists.
// created reports whether a new account was inserted.
func (svc *service) EnsureAdmin(ctx context.Context, name, email, password string) (usr User, created bool, err error) {
	email = core.CleanString(email, true /* lower */)
	usr, err = svc.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return usr, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, errors.Wrap(err, "looking up admin")
	}
	usr, err = svc.create(ctx, User{Name: core.CleanString(name), Email: email, Role: RoleAdmin}, password)
	if err != nil {
		return User{}, false, errors.Wrap(err, "creating admin")
	}
	return usr, true, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) QueryStudents(ctx context.Context, search string) ([]User, error) {
	filter := QueryFilter{Role: RoleStudent, Search: search}
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *service) CountStudents(ctx context.Context) (int, error) {
	return svc.repo.CountUsers(ctx, QueryFilter{Role: RoleStudent})
}
