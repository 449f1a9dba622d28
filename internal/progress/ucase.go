package progress

import (
	"context"
	"fmt"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/clock"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// ProgressUseCaseImpl ...
type ProgressUseCaseImpl struct {
	ProgressRepository ProgressRepository
	StreakTracker      StreakTracker
	Clock              clock.Clock
	Metrics            *metrics.Metrics
}

var _ ProgressUseCase = &ProgressUseCaseImpl{}

// NewProgressUseCase ...
func NewProgressUseCase(
	ProgressRepository ProgressRepository,
	StreakTracker StreakTracker,
	Clock clock.Clock,
	Metrics *metrics.Metrics,
) *ProgressUseCaseImpl {
	return &ProgressUseCaseImpl{
		ProgressRepository: ProgressRepository,
		StreakTracker:      StreakTracker,
		Clock:              Clock,
		Metrics:            Metrics,
	}
}

// StartCourse create an empty progress record. An existing record is only replaced when
// allowReset is set, otherwise ErrCourseAlreadyStarted is returned.
func (pu *ProgressUseCaseImpl) StartCourse(ctx context.Context, userID, courseID, courseName string, totalLessons int, allowReset bool) (*ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.StartCourse", "service")
	defer apmSpan.End()

	record, err := NewProgressRecord(userID, courseID, courseName, totalLessons, pu.Clock.Now())
	if err != nil {
		return nil, err
	}

	repo := pu.ProgressRepository
	if allowReset {
		err = repo.ReplaceProgress(ctx, record)
	} else {
		err = repo.CreateProgress(ctx, record)
	}
	if err != nil {
		return nil, err
	}
	pu.Metrics.CourseStarted(courseID)
	return record, nil
}

// CompleteLesson mark lessonID completed. Completing an already completed lesson returns
// the stored record without writing anything.
//
// The progress record, the audit entry and the day's activity are committed together;
// the streak is recomputed afterwards and a failure there only gets logged.
func (pu *ProgressUseCaseImpl) CompleteLesson(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.CompleteLesson", "service")
	defer apmSpan.End()

	if timeSpent < 0 {
		return nil, fmt.Errorf("%w: negative time spent %d", domain.ErrInvariantViolation, timeSpent)
	}

	current, err := pu.ProgressRepository.GetProgress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrCourseNotStarted
	}

	now := pu.Clock.Now()
	next, changed, err := ApplyCompletion(current, lessonID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	err = pu.ProgressRepository.CommitCompletion(ctx, next, &LessonCompletion{
		UserID:      userID,
		CourseID:    courseID,
		LessonID:    lessonID,
		CompletedAt: now,
		TimeSpent:   timeSpent,
	})
	if err != nil {
		return nil, err
	}

	pu.Metrics.LessonCompleted(courseID)
	if next.IsCompleted && !current.IsCompleted {
		pu.Metrics.CourseCompleted(courseID)
	}
	if _, err := pu.StreakTracker.RecomputeStreak(ctx, userID); err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("Failed to recompute streak after completion",
			zap.String("user.id", userID),
			zap.String("course.id", courseID),
			zap.Error(err),
		)
	}
	return next, nil
}

// GetProgress ErrCourseNotStarted when there is no record
func (pu *ProgressUseCaseImpl) GetProgress(ctx context.Context, userID, courseID string) (*ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.GetProgress", "service")
	defer apmSpan.End()

	record, err := pu.ProgressRepository.GetProgress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrCourseNotStarted
	}
	return record, nil
}

// ListProgress every started course of the user
func (pu *ProgressUseCaseImpl) ListProgress(ctx context.Context, userID string) ([]*ProgressRecord, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.ListProgress", "service")
	defer apmSpan.End()

	return pu.ProgressRepository.ListProgress(ctx, userID)
}

// ProgressMap started courses keyed by course id
func (pu *ProgressUseCaseImpl) ProgressMap(ctx context.Context, userID string) (map[string]*ProgressRecord, error) {
	records, err := pu.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*ProgressRecord, len(records))
	for _, r := range records {
		m[r.CourseID] = r
	}
	return m, nil
}

// ListCompletions audit entries of one course
func (pu *ProgressUseCaseImpl) ListCompletions(ctx context.Context, userID, courseID string) ([]*LessonCompletion, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.ListCompletions", "service")
	defer apmSpan.End()

	return pu.ProgressRepository.ListCompletions(ctx, userID, courseID)
}

// DashboardStats summarize every course of the user together with the stored streak
func (pu *ProgressUseCaseImpl) DashboardStats(ctx context.Context, userID string) (*DashboardStats, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.DashboardStats", "service")
	defer apmSpan.End()

	records, err := pu.ProgressRepository.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := Summarize(records)

	record, err := pu.StreakTracker.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.LearningStreak = record.CurrentStreak
	return stats, nil
}

// Summarize stats over records, without the streak
func Summarize(records []*ProgressRecord) *DashboardStats {
	stats := &DashboardStats{CoursesStarted: len(records)}
	for _, r := range records {
		stats.LessonsCompleted += len(r.CompletedLessons)
		if r.Level > stats.CurrentLevel {
			stats.CurrentLevel = r.Level
		}
		if r.IsCompleted {
			stats.CompletedCourses++
		}
	}
	return stats
}
