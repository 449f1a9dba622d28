package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/streak"
	"github.com/abdabkim/webdevacademy/internal/testutil"
)

type fakeRefresher struct {
	n     int
	err   error
	calls int
}

func (f *fakeRefresher) RecomputeAll(ctx context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

func TestRefreshStreaks(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeRefresher
		want int
	}{
		{"ok", &fakeRefresher{n: 3}, 3},
		{"partial failure", &fakeRefresher{n: 1, err: errors.New("store down")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.fake, zaptest.NewLogger(t), time.Minute)
			assert.Equal(t, tt.want, s.RefreshStreaks(context.Background()))
			assert.Equal(t, 1, tt.fake.calls)
		})
	}
}

func TestStart(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, zap.NewNop(), time.Minute)
	require.NoError(t, s.Start("03:00"))
	defer s.Stop()

	next := s.NextRun().UTC()
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestStartRejectsBadTime(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, zap.NewNop(), time.Minute)
	assert.Error(t, s.Start("25:99"))
}

func TestRefreshDecaysStreak(t *testing.T) {
	ctx := testutil.Context(t)
	conn := testutil.DB(t)
	clk := testutil.Clock(2024, 3, 10, 9)
	repo := streak.NewStreakRepository(conn)
	uc := streak.NewStreakUseCase(repo, clk, nil)

	require.NoError(t, streak.MergeActivity(ctx, conn, "u1", clock.Today(clk), 1, 5, clk.Now()))
	_, err := uc.RecomputeStreak(ctx, "u1")
	require.NoError(t, err)

	clk.Advance(48 * time.Hour)
	s := NewScheduler(uc, zaptest.NewLogger(t), time.Minute)
	assert.Equal(t, 1, s.RefreshStreaks(ctx))

	record, err := uc.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, record.CurrentStreak)
	assert.Equal(t, 1, record.LongestStreak)
}
