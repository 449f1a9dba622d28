package streak

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// StreakUseCaseImpl ...
type StreakUseCaseImpl struct {
	StreakRepository StreakRepository
	Clock            clock.Clock
	Metrics          *metrics.Metrics
}

var _ StreakUseCase = &StreakUseCaseImpl{}

// NewStreakUseCase ...
func NewStreakUseCase(
	StreakRepository StreakRepository,
	Clock clock.Clock,
	Metrics *metrics.Metrics,
) *StreakUseCaseImpl {
	return &StreakUseCaseImpl{StreakRepository, Clock, Metrics}
}

// RecomputeStreak rebuild the user's streak from the full activity history and persist it
func (su *StreakUseCaseImpl) RecomputeStreak(ctx context.Context, userID string) (record *StreakRecord, err error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCaseImpl.RecomputeStreak", "service")
	defer apmSpan.End()
	defer func() { su.Metrics.StreakRecomputed(err) }()

	entries, err := su.StreakRepository.ListActivity(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := su.Clock.Now()
	active := make(map[civil.Date]bool, len(entries))
	for _, e := range entries {
		active[e.Day] = true
	}
	days := SortedDays(active)
	result := Compute(days, clock.Today(su.Clock))

	record = &StreakRecord{
		UserID:           userID,
		CurrentStreak:    result.Current,
		LongestStreak:    result.Longest,
		LastActivityDate: now,
		ActiveDates:      days,
	}
	if err = su.StreakRepository.SaveStreak(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetStreak persisted streak, a zero record when none was computed yet
func (su *StreakUseCaseImpl) GetStreak(ctx context.Context, userID string) (*StreakRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCaseImpl.GetStreak", "service")
	defer apmSpan.End()

	record, err := su.StreakRepository.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &StreakRecord{UserID: userID, ActiveDates: []civil.Date{}}, nil
	}
	return record, nil
}

// ListActivity daily activity of the user, oldest first
func (su *StreakUseCaseImpl) ListActivity(ctx context.Context, userID string) ([]*ActivityEntry, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCaseImpl.ListActivity", "service")
	defer apmSpan.End()

	entries, err := su.StreakRepository.ListActivity(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*ActivityEntry{}
	}
	return entries, nil
}

// RecomputeAll recompute the streak of every user with activity, so a missed day decays
// the current streak without waiting for the next completion. A failing user is logged
// and skipped; the count of refreshed users is returned.
func (su *StreakUseCaseImpl) RecomputeAll(ctx context.Context) (int, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCaseImpl.RecomputeAll", "service")
	defer apmSpan.End()

	logger := logging.ExtractLoggerFromContext(ctx)
	users, err := su.StreakRepository.ListActiveUsers(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := su.RecomputeStreak(ctx, userID); err != nil {
			logger.Warn("Failed to recompute streak", zap.String("user.id", userID), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
