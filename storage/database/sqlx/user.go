package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

const userColumns = "id, name, email, password_hash, role, level, programme, department, session_type, created_at, updated_at"

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Level        string    `db:"level"`
	Programme    string    `db:"programme"`
	Department   string    `db:"department"`
	SessionType  string    `db:"session_type"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: []byte(r.PasswordHash),
		Role:         user.Role(r.Role),
		Level:        r.Level,
		Programme:    r.Programme,
		Department:   r.Department,
		SessionType:  r.SessionType,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repo{exec: exec}}
}

func (r *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := r.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.exec.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, string(usr.PasswordHash), string(usr.Role),
		usr.Level, usr.Programme, usr.Department, usr.SessionType,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (r *userRepository) get(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	q := r.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := sqlx.GetContext(ctx, r.exec, &row, q, arg); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "selecting user")
	}
	return row.toUser(), nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.get(ctx, "email = ?", email)
}

func userWhere(filter user.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(filter.Role))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	where, args := userWhere(filter)
	var rows []userRow
	q := r.rebind(`SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY seq`)
	if err := sqlx.SelectContext(ctx, r.exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (r *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	where, args := userWhere(filter)
	var n int
	if err := sqlx.GetContext(ctx, r.exec, &n, r.rebind(`SELECT COUNT(*) FROM users`+where), args...); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return n, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := r.rebind(`UPDATE users SET name = ?, password_hash = ?, level = ?, programme = ?, department = ?, session_type = ?, updated_at = ? WHERE id = ?`)
	res, err := r.exec.ExecContext(ctx, q,
		usr.Name, string(usr.PasswordHash), usr.Level, usr.Programme, usr.Department, usr.SessionType,
		usr.UpdatedAt.UTC(), usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return r.GetUserByID(ctx, usr.ID)
}
