package streak

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
)

type StreakSQL struct {
	Conn driver.ITransactionalDB
}

var _ StreakRepository = &StreakSQL{}

func NewStreakRepository(Conn driver.ITransactionalDB) *StreakSQL {
	return &StreakSQL{Conn}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

var upsertActivity = &driver.UpsertStatement{
	Table:   "activity",
	Keys:    []string{"user_id", "day"},
	Columns: []string{"user_id", "day", "lessons_completed", "time_spent", "last_activity"},
	Add:     []string{"lessons_completed", "time_spent"},
}

var upsertStreak = &driver.UpsertStatement{
	Table:   "streak",
	Keys:    []string{"user_id"},
	Columns: []string{"user_id", "current_streak", "longest_streak", "last_activity", "active_dates"},
}

// MergeActivity add lessons and minutes to the user's entry for day, creating it when absent.
//
// conn is usually a transaction shared with the progress write.
func MergeActivity(ctx context.Context, conn driver.ITransactionalDB, userID string, day civil.Date, lessons, timeSpent int, at time.Time) error {
	return driver.Upsert(ctx, conn, upsertActivity,
		userID, day.String(), lessons, timeSpent, driver.Millis(at))
}

func (repo *StreakSQL) ListActivity(ctx context.Context, userID string) ([]*ActivityEntry, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT day, lessons_completed, time_spent, last_activity
FROM activity
WHERE user_id = $1
ORDER BY day ASC`, userID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var result []*ActivityEntry
	for rows.Next() {
		var (
			day  string
			last int64
		)
		item := new(ActivityEntry)
		if err := rows.Scan(&day, &item.LessonsCompleted, &item.TimeSpent, &last); err != nil {
			return nil, storeError(err)
		}
		if item.Day, err = civil.ParseDate(day); err != nil {
			return nil, fmt.Errorf("%w: activity day %q: %v", domain.ErrInvariantViolation, day, err)
		}
		item.LastActivity = driver.FromMillis(last)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (repo *StreakSQL) GetStreak(ctx context.Context, userID string) (*StreakRecord, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT current_streak, longest_streak, last_activity, active_dates
FROM streak
WHERE user_id = $1`, userID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, storeError(err)
		}
		return nil, nil
	}
	var (
		last  int64
		dates string
	)
	record := &StreakRecord{UserID: userID}
	if err := rows.Scan(&record.CurrentStreak, &record.LongestStreak, &last, &dates); err != nil {
		return nil, storeError(err)
	}
	record.LastActivityDate = driver.FromMillis(last)
	if err := json.Unmarshal([]byte(dates), &record.ActiveDates); err != nil {
		return nil, fmt.Errorf("%w: active dates of %s: %v", domain.ErrInvariantViolation, userID, err)
	}
	return record, nil
}

func (repo *StreakSQL) SaveStreak(ctx context.Context, record *StreakRecord) error {
	dates, err := json.Marshal(record.ActiveDates)
	if err != nil {
		return err
	}
	last := driver.Millis(record.LastActivityDate)
	err = driver.Upsert(ctx, repo.Conn, upsertStreak,
		record.UserID, record.CurrentStreak, record.LongestStreak, last, string(dates))
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (repo *StreakSQL) ListActiveUsers(ctx context.Context) ([]string, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT DISTINCT user_id FROM activity ORDER BY user_id`)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError(err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return users, nil
}
