package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Session types offered to students.
var SessionTypes = []string{"Regular", "Evening", "Weekend"}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	Level        string    `json:"level" db:"level"`
	Programme    string    `json:"programme" db:"programme"`
	Department   string    `json:"department" db:"department"`
	SessionType  string    `json:"session_type" db:"session_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Identity is the authenticated principal an operation runs on behalf of.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// NewStudent contains information needed to register a student.
type NewStudent struct {
	Name            string `json:"name" validate:"required,notblank,max=100"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Level           string `json:"level" validate:"required,max=20"`
	Programme       string `json:"programme" validate:"required,max=100"`
	Department      string `json:"department" validate:"omitempty,max=100"`
	SessionType     string `json:"session_type" validate:"omitempty,sessiontype"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Level = core.CleanString(ns.Level)
	ns.Programme = core.CleanString(ns.Programme)
	ns.Department = core.CleanString(ns.Department)
	ns.SessionType = core.CleanString(ns.SessionType)
	return core.Validate.Struct(ns)
}

// NewUser is used by the admin CLI to add students or admins.
type NewUser struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return core.Validate.Struct(nu)
}

type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// user attributes checked by the similarity policy
	name, email string
}

func (cp *ChangePassword) Validate(usr User) error {
	cp.name, cp.email = usr.Name, usr.Email
	return core.Validate.Struct(cp)
}

type QueryFilter struct {
	Role   Role   `query:"role"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
