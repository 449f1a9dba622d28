package streak

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

// ActivityEntry learning done by a user on one calendar day
type ActivityEntry struct {
	Day              civil.Date `json:"date"`
	LessonsCompleted int        `json:"lessons_completed"`
	TimeSpent        int        `json:"time_spent"` // minutes
	LastActivity     time.Time  `json:"last_activity"`
}

// StreakRecord derived streak statistics of a user
type StreakRecord struct {
	UserID           string       `json:"-"`
	CurrentStreak    int          `json:"current_streak"`
	LongestStreak    int          `json:"longest_streak"`
	LastActivityDate time.Time    `json:"last_activity_date"`
	ActiveDates      []civil.Date `json:"active_dates"`
}

type StreakRepository interface {
	// ListActivity every activity entry of the user, oldest first
	ListActivity(ctx context.Context, userID string) ([]*ActivityEntry, error)
	// GetStreak nil when the streak was never computed
	GetStreak(ctx context.Context, userID string) (*StreakRecord, error)
	SaveStreak(ctx context.Context, record *StreakRecord) error
	// ListActiveUsers users having at least one activity entry
	ListActiveUsers(ctx context.Context) ([]string, error)
}

type StreakUseCase interface {
	RecomputeStreak(ctx context.Context, userID string) (*StreakRecord, error)
	GetStreak(ctx context.Context, userID string) (*StreakRecord, error)
	ListActivity(ctx context.Context, userID string) ([]*ActivityEntry, error)
	RecomputeAll(ctx context.Context) (int, error)
}
