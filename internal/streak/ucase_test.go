package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivity(t *testing.T, conn driver.ITransactionalDB, userID string, days ...civil.Date) {
	t.Helper()
	ctx := testutil.Context(t)
	for _, d := range days {
		at := d.In(time.UTC).Add(9 * time.Hour)
		require.NoError(t, MergeActivity(ctx, conn, userID, d, 1, 15, at))
	}
}

func TestMergeActivityIncrements(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)
	repo := NewStreakRepository(conn)
	day := civil.Date{Year: 2024, Month: 3, Day: 10}
	first := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	second := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	require.NoError(t, MergeActivity(ctx, conn, "u1", day, 1, 10, first))
	require.NoError(t, MergeActivity(ctx, conn, "u1", day, 1, 25, second))

	entries, err := repo.ListActivity(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, day, entries[0].Day)
	assert.Equal(t, 2, entries[0].LessonsCompleted)
	assert.Equal(t, 35, entries[0].TimeSpent)
	assert.Equal(t, second, entries[0].LastActivity)
}

func TestRecomputeStreak(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)
	clk := testutil.Clock(2024, 3, 10, 18)
	today := civil.DateOf(clk.Now())
	uc := NewStreakUseCase(NewStreakRepository(conn), clk, nil)

	seedActivity(t, conn, "u1", today, today.AddDays(-1), today.AddDays(-5), today.AddDays(-6), today.AddDays(-7))
	seedActivity(t, conn, "u2", today.AddDays(-3))

	record, err := uc.RecomputeStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, record.CurrentStreak)
	assert.Equal(t, 3, record.LongestStreak)
	assert.Equal(t, clk.Now(), record.LastActivityDate)
	assert.Len(t, record.ActiveDates, 5)
	assert.Equal(t, today, record.ActiveDates[0])

	stored, err := uc.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, record.CurrentStreak, stored.CurrentStreak)
	assert.Equal(t, record.LongestStreak, stored.LongestStreak)
	assert.Equal(t, record.ActiveDates, stored.ActiveDates)
	assert.Equal(t, record.LastActivityDate, stored.LastActivityDate)
}

func TestRecomputeStreakWithoutActivity(t *testing.T) {
	conn := testutil.DB(t)
	uc := NewStreakUseCase(NewStreakRepository(conn), testutil.Clock(2024, 3, 10, 12), nil)

	record, err := uc.RecomputeStreak(testutil.Context(t), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, record.CurrentStreak)
	assert.Equal(t, 0, record.LongestStreak)
}

func TestGetStreakNeverComputed(t *testing.T) {
	conn := testutil.DB(t)
	uc := NewStreakUseCase(NewStreakRepository(conn), testutil.Clock(2024, 3, 10, 12), nil)

	record, err := uc.GetStreak(testutil.Context(t), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, record.CurrentStreak)
	assert.Empty(t, record.ActiveDates)
}

func TestRecomputeAllDecaysMissedDays(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)
	clk := testutil.Clock(2024, 3, 10, 12)
	today := civil.DateOf(clk.Now())
	uc := NewStreakUseCase(NewStreakRepository(conn), clk, nil)

	seedActivity(t, conn, "u1", today, today.AddDays(-1))
	seedActivity(t, conn, "u2", today.AddDays(-1))

	n, err := uc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u1, err := uc.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, u1.CurrentStreak)

	// two days later without any activity
	clk.Advance(48 * time.Hour)
	_, err = uc.RecomputeAll(ctx)
	require.NoError(t, err)

	u1, err = uc.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u1.CurrentStreak)
	assert.Equal(t, 2, u1.LongestStreak)
}

type failingRepo struct {
	StreakRepository
}

func (failingRepo) ListActivity(ctx context.Context, userID string) ([]*ActivityEntry, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) ListActiveUsers(ctx context.Context) ([]string, error) {
	return []string{"u1", "u2"}, nil
}

func TestRecomputeAllSkipsFailures(t *testing.T) {
	uc := NewStreakUseCase(failingRepo{}, testutil.Clock(2024, 3, 10, 12), nil)

	n, err := uc.RecomputeAll(testutil.Context(t))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	conn := testutil.DB(t)
	repo := NewStreakRepository(conn)
	require.NoError(t, conn.Close(context.Background()))

	_, err := repo.ListActivity(testutil.Context(t), "u1")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
