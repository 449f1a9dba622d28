package progress

import (
	"context"
	"time"

	"github.com/abdabkim/webdevacademy/internal/streak"
)

// ProgressRecord a user's standing in one course
type ProgressRecord struct {
	UserID           string     `json:"-"`
	CourseID         string     `json:"course_id"`
	CourseName       string     `json:"course_name"`
	Level            int        `json:"level"`
	CompletedLessons []string   `json:"completed_lessons"` // completion order, no duplicates
	TotalLessons     int        `json:"total_lessons"`
	StartedAt        time.Time  `json:"started_at"`
	LastAccessed     time.Time  `json:"last_accessed"`
	IsCompleted      bool       `json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// LessonCompletion audit entry written with every first-time lesson completion
type LessonCompletion struct {
	UserID      string    `json:"-"`
	CourseID    string    `json:"course_id"`
	LessonID    string    `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
	TimeSpent   int       `json:"time_spent"` // minutes
}

// DashboardStats summary over every course of a user
type DashboardStats struct {
	CoursesStarted   int `json:"courses_started"`
	LessonsCompleted int `json:"lessons_completed"`
	CurrentLevel     int `json:"current_level"` // highest level reached in any course
	LearningStreak   int `json:"learning_streak"`
	CompletedCourses int `json:"completed_courses"`
}

type ProgressRepository interface {
	// GetProgress nil when the course was never started
	GetProgress(ctx context.Context, userID, courseID string) (*ProgressRecord, error)
	ListProgress(ctx context.Context, userID string) ([]*ProgressRecord, error)
	// CreateProgress fails with ErrCourseAlreadyStarted when a record exists
	CreateProgress(ctx context.Context, record *ProgressRecord) error
	// ReplaceProgress create or overwrite the record
	ReplaceProgress(ctx context.Context, record *ProgressRecord) error
	// CommitCompletion write the record, its audit entry and the day's activity atomically
	CommitCompletion(ctx context.Context, record *ProgressRecord, completion *LessonCompletion) error
	ListCompletions(ctx context.Context, userID, courseID string) ([]*LessonCompletion, error)
}

// StreakTracker streak operations the progress flow depends on
type StreakTracker interface {
	RecomputeStreak(ctx context.Context, userID string) (*streak.StreakRecord, error)
	GetStreak(ctx context.Context, userID string) (*streak.StreakRecord, error)
}

type ProgressUseCase interface {
	StartCourse(ctx context.Context, userID, courseID, courseName string, totalLessons int, allowReset bool) (*ProgressRecord, error)
	CompleteLesson(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*ProgressRecord, error)
	GetProgress(ctx context.Context, userID, courseID string) (*ProgressRecord, error)
	ListProgress(ctx context.Context, userID string) ([]*ProgressRecord, error)
	ProgressMap(ctx context.Context, userID string) (map[string]*ProgressRecord, error)
	ListCompletions(ctx context.Context, userID, courseID string) ([]*LessonCompletion, error)
	DashboardStats(ctx context.Context, userID string) (*DashboardStats, error)
}
