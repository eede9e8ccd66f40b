package deadline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	inmemdb "github.com/sintimjnr/gctu-project-submission-system/storage/database/inmem"
	"github.com/sintimjnr/gctu-project-submission-system/testutil"
)

var (
	admin   = user.Identity{ID: "a1", Name: "Admin", Role: user.RoleAdmin}
	student = user.Identity{ID: "s1", Name: "Ama", Role: user.RoleStudent}
)

func setup(t *testing.T) (deadline.Service, deadline.Repository, *core.Config) {
	conf := testutil.NewConfig(t)
	conf.Deadline.Default = "2026-02-12T23:59"
	repo := inmemdb.NewDeadlineRepository(inmemdb.Open())
	svc, err := deadline.NewService(repo, testutil.NewLogger(conf), conf)
	require.NoError(t, err)
	return svc, repo, conf
}

func mockNow(t *testing.T, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func TestParseInput(t *testing.T) {
	wat := time.FixedZone("WAT", 3600)
	tests := []struct {
		name    string
		input   string
		loc     *time.Location
		want    time.Time
		wantErr bool
	}{
		{name: "T separator", input: "2026-02-12T23:59", loc: time.UTC, want: time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)},
		{name: "space separator", input: " 2026-02-12 23:59 ", loc: time.UTC, want: time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)},
		{name: "nil location is UTC", input: "2026-02-12T23:59", loc: nil, want: time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)},
		{name: "local time converted to UTC", input: "2026-02-12T23:59", loc: wat, want: time.Date(2026, 2, 12, 22, 59, 0, 0, time.UTC)},
		{name: "empty", input: "", wantErr: true},
		{name: "seconds not accepted", input: "2026-02-12T23:59:00", wantErr: true},
		{name: "day first", input: "12-02-2026 23:59", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deadline.ParseInput(tt.input, tt.loc)
			if tt.wantErr {
				fields, ok := core.FieldErrors(err)
				require.True(t, ok, "want a field error, got %v", err)
				assert.Contains(t, fields, "deadline")
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v; want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestService_Check(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, admin, time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "a minute before", now: time.Date(2026, 2, 12, 23, 58, 0, 0, time.UTC)},
		{name: "at the deadline", now: time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)},
		{name: "two minutes after", now: time.Date(2026, 2, 13, 0, 1, 0, 0, time.UTC), wantErr: deadline.ErrExceeded},
		{name: "one nanosecond after", now: time.Date(2026, 2, 12, 23, 59, 0, 1, time.UTC), wantErr: deadline.ErrExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Check(ctx, tt.now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Seed(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	_, err := repo.GetDeadline(ctx)
	require.ErrorIs(t, err, deadline.ErrNotSet)

	seeded, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	got, err := repo.GetDeadline(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)))

	// an existing deadline is never overwritten
	later := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetDeadline(ctx, later))
	seeded, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(later))
}

func TestService_GetSeedsDefault(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC)))

	stored, err := repo.GetDeadline(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Equal(got))
}

func TestService_Set(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	mockNow(t, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))

	t.Run("admin only", func(t *testing.T) {
		_, err := svc.Set(ctx, student, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("zero time", func(t *testing.T) {
		_, err := svc.Set(ctx, admin, time.Time{})
		_, ok := core.FieldErrors(err)
		assert.True(t, ok, "want a field error, got %v", err)
	})

	t.Run("truncated to the minute", func(t *testing.T) {
		chg, err := svc.Set(ctx, admin, time.Date(2026, 3, 1, 8, 30, 45, 999, time.UTC))
		require.NoError(t, err)
		assert.False(t, chg.InPast)
		assert.True(t, chg.Deadline.Equal(time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)))
	})

	t.Run("past deadline accepted with a warning", func(t *testing.T) {
		chg, err := svc.Set(ctx, admin, time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, chg.InPast)
		assert.ErrorIs(t, svc.Check(ctx, core.NowFunc()), deadline.ErrExceeded)
	})
}

func TestNewService_badDefault(t *testing.T) {
	conf := testutil.NewConfig(t)
	conf.Deadline.Default = "next friday"
	_, err := deadline.NewService(inmemdb.NewDeadlineRepository(inmemdb.Open()), testutil.NewLogger(conf), conf)
	assert.Error(t, err)
}
