package inmemdb

import (
	"context"
	"strings"

	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	u := usr
	repo.db.users = append(repo.db.users, &u)
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if u := repo.db.userByID(id); u != nil {
		return *u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, u := range repo.db.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func matchUser(u *user.User, filter user.QueryFilter) bool {
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		return strings.Contains(strings.ToLower(u.Name), s) || strings.Contains(strings.ToLower(u.Email), s)
	}
	return true
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		if matchUser(u, filter) {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	users, err := repo.QueryUsers(ctx, filter)
	return len(users), err
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// only save mutable fields
	origUsr := repo.db.userByID(usr.ID)
	if origUsr == nil {
		return user.User{}, user.ErrNotFound
	}
	origUsr.Name = usr.Name
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	origUsr.Level = usr.Level
	origUsr.Programme = usr.Programme
	origUsr.Department = usr.Department
	origUsr.SessionType = usr.SessionType
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}
