package sqlxrepos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	"github.com/sintimjnr/gctu-project-submission-system/testutil"
)

var base = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func TestUserRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, repo, "Admin", "admin@gctu.edu.gh", "admin-Pass-1", user.RoleAdmin, base)
	ama := testutil.CreateUser(t, repo, "Ama Mensah", "ama@live.gctu.edu.gh", "kente-Cloth-42", user.RoleStudent, base.Add(time.Minute))
	kofi := testutil.CreateUser(t, repo, "Kofi Boateng", "kofi@live.gctu.edu.gh", "", user.RoleStudent, base.Add(2*time.Minute))

	t.Run("duplicate email", func(t *testing.T) {
		dup := ama
		dup.ID = "another-id"
		_, err := repo.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, ama.ID)
		require.NoError(t, err)
		assert.Equal(t, ama.Email, got.Email)
		assert.Equal(t, "BSc. Computer Science", got.Programme)
		assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))
		assert.NoError(t, got.CheckPassword("kente-Cloth-42"))

		got, err = repo.GetUserByEmail(ctx, admin.Email)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, got.Role)

		_, err = repo.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, user.ErrNotFound)
		_, err = repo.GetUserByEmail(ctx, "missing@gctu.edu.gh")
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name   string
			filter user.QueryFilter
			want   []string
		}{
			{"all", user.QueryFilter{}, []string{admin.ID, ama.ID, kofi.ID}},
			{"students", user.QueryFilter{Role: user.RoleStudent}, []string{ama.ID, kofi.ID}},
			{"search name", user.QueryFilter{Role: user.RoleStudent, Search: "MENSAH"}, []string{ama.ID}},
			{"search email", user.QueryFilter{Search: "kofi@"}, []string{kofi.ID}},
			{"no match", user.QueryFilter{Search: "zzz"}, []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tt.filter)
				require.NoError(t, err)
				ids := make([]string, 0, len(users))
				for _, u := range users {
					ids = append(ids, u.ID)
				}
				assert.Equal(t, tt.want, ids)

				n, err := repo.CountUsers(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, len(tt.want), n)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		upd := kofi
		upd.Name = "Kofi B. Boateng"
		upd.Level = "300"
		upd.Role = user.RoleAdmin // not mutable
		upd.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, upd.SetPassword("new-Secret-7"))

		got, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "Kofi B. Boateng", got.Name)
		assert.Equal(t, "300", got.Level)
		assert.Equal(t, user.RoleStudent, got.Role)
		assert.NoError(t, got.CheckPassword("new-Secret-7"))

		upd.ID = "missing"
		_, err = repo.UpdateUser(ctx, upd)
		assert.ErrorIs(t, err, user.ErrNotFound)
	})
}

func TestProjectRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	users := NewUserRepository(db)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	ama := testutil.CreateUser(t, users, "Ama Mensah", "ama@live.gctu.edu.gh", "", user.RoleStudent)
	kofi := testutil.CreateUser(t, users, "Kofi Boateng", "kofi@live.gctu.edu.gh", "", user.RoleStudent)

	p1 := testutil.CreateProject(t, repo, ama, "Campus Map", project.StatusPending, base)
	p2 := testutil.CreateProject(t, repo, kofi, "Hostel Booking", project.StatusApproved, base.Add(time.Minute))
	p3 := testutil.CreateProject(t, repo, ama, "Library Kiosk", project.StatusRejected, base.Add(2*time.Minute))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetProjectByID(ctx, p2.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hostel Booking", got.Title)
		assert.Equal(t, "Kofi Boateng", got.StudentName)
		assert.Equal(t, project.StatusApproved, got.Status)
		assert.Empty(t, got.File)
		assert.Empty(t, got.Feedback)

		_, err = repo.GetProjectByID(ctx, "missing")
		assert.ErrorIs(t, err, project.ErrNotFound)
	})

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name   string
			filter project.QueryFilter
			want   []string
		}{
			{"all", project.QueryFilter{}, []string{p1.ID, p2.ID, p3.ID}},
			{"student", project.QueryFilter{StudentID: ama.ID}, []string{p1.ID, p3.ID}},
			{"status", project.QueryFilter{Status: project.StatusApproved}, []string{p2.ID}},
			{"student and status", project.QueryFilter{StudentID: ama.ID, Status: project.StatusApproved}, []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ps, err := repo.QueryProjects(ctx, tt.filter)
				require.NoError(t, err)
				ids := make([]string, 0, len(ps))
				for _, p := range ps {
					ids = append(ids, p.ID)
				}
				assert.Equal(t, tt.want, ids)

				n, err := repo.CountProjects(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, len(tt.want), n)
			})
		}
	})

	t.Run("compare and swap", func(t *testing.T) {
		cur, err := repo.GetProjectByID(ctx, p3.ID)
		require.NoError(t, err)

		cur.Status = project.StatusPending
		cur.File = ama.ID + "_kiosk.pdf"
		cur.UpdatedAt = base.Add(time.Hour)
		updated, err := repo.UpdateProject(ctx, cur)
		require.NoError(t, err)
		assert.Equal(t, cur.Version+1, updated.Version)

		// cur still carries the old version
		_, err = repo.UpdateProject(ctx, cur)
		assert.ErrorIs(t, err, project.ErrConflict)

		missing := cur
		missing.ID = "missing"
		_, err = repo.UpdateProject(ctx, missing)
		assert.ErrorIs(t, err, project.ErrNotFound)

		got, err := repo.GetProjectByID(ctx, p3.ID)
		require.NoError(t, err)
		assert.Equal(t, project.StatusPending, got.Status)
		assert.Equal(t, updated.Version, got.Version)
	})

	t.Run("file references", func(t *testing.T) {
		key := ama.ID + "_kiosk.pdf"
		n, err := repo.CountFileReferences(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, repo.DeleteProject(ctx, p3.ID))
		n, err = repo.CountFileReferences(ctx, key)
		require.NoError(t, err)
		assert.Zero(t, n)

		assert.ErrorIs(t, repo.DeleteProject(ctx, p3.ID), project.ErrNotFound)
	})
}

func TestDeadlineRepository(t *testing.T) {
	repo := NewDeadlineRepository(testutil.OpenDB(t))
	ctx := context.Background()

	_, err := repo.GetDeadline(ctx)
	require.ErrorIs(t, err, deadline.ErrNotSet)

	first := time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)
	require.NoError(t, repo.SetDeadline(ctx, first))
	got, err := repo.GetDeadline(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(first), "got %v", got)

	second := first.Add(48 * time.Hour)
	require.NoError(t, repo.SetDeadline(ctx, second.In(time.FixedZone("WAT", 3600))))
	got, err = repo.GetDeadline(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(second), "got %v", got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestInsertionOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	users := NewUserRepository(db)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	var wantUsers, wantProjects []string
	for i := 0; i < 8; i++ {
		usr := testutil.CreateUser(t, users, fmt.Sprintf("Student %d", i), fmt.Sprintf("student%d@live.gctu.edu.gh", i), "", user.RoleStudent, base)
		p := testutil.CreateProject(t, repo, usr, fmt.Sprintf("Project %d", i), project.StatusPending, base)
		wantUsers = append(wantUsers, usr.ID)
		wantProjects = append(wantProjects, p.ID)
	}

	t.Run("users", func(t *testing.T) {
		got, err := users.QueryUsers(ctx, user.QueryFilter{Role: user.RoleStudent})
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, u := range got {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, wantUsers, ids)
	})

	t.Run("projects", func(t *testing.T) {
		got, err := repo.QueryProjects(ctx, project.QueryFilter{})
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, wantProjects, ids)
	})

	t.Run("delete keeps order", func(t *testing.T) {
		require.NoError(t, repo.DeleteProject(ctx, wantProjects[3]))
		p := testutil.CreateProject(t, repo, testutil.CreateUser(t, users, "Late", "late@live.gctu.edu.gh", "", user.RoleStudent, base), "Late Entry", project.StatusPending, base)

		got, err := repo.QueryProjects(ctx, project.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, got, 8)
		assert.Equal(t, wantProjects[0], got[0].ID)
		assert.Equal(t, p.ID, got[len(got)-1].ID)
	})
}
