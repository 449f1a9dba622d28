package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/streak"
)

type ProgressSQL struct {
	Conn driver.ITransactionalDB
}

var _ ProgressRepository = &ProgressSQL{}

func NewProgressRepository(Conn driver.ITransactionalDB) *ProgressSQL {
	return &ProgressSQL{Conn}
}

const progressColumns = `course_id, course_name, level, completed_lessons, total_lessons,
started_at, last_accessed, is_completed, completed_at`

func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrInvariantViolation) ||
		errors.Is(err, domain.ErrCourseNotStarted) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanProgress(rows driver.ISQLRows, userID string) (*ProgressRecord, error) {
	var (
		completed               string
		startedAt, lastAccessed int64
		isCompleted             int
		completedAt             sql.NullInt64
	)
	record := &ProgressRecord{UserID: userID}
	err := rows.Scan(&record.CourseID, &record.CourseName, &record.Level, &completed, &record.TotalLessons,
		&startedAt, &lastAccessed, &isCompleted, &completedAt)
	if err != nil {
		return nil, storeError(err)
	}
	if err := json.Unmarshal([]byte(completed), &record.CompletedLessons); err != nil {
		return nil, fmt.Errorf("%w: completed lessons of %s/%s: %v", domain.ErrInvariantViolation, userID, record.CourseID, err)
	}
	if record.CompletedLessons == nil {
		record.CompletedLessons = []string{}
	}
	record.StartedAt = driver.FromMillis(startedAt)
	record.LastAccessed = driver.FromMillis(lastAccessed)
	record.IsCompleted = isCompleted != 0
	record.CompletedAt = driver.FromNullMillis(completedAt)
	return record, nil
}

func progressArgs(record *ProgressRecord) ([]interface{}, error) {
	completed, err := json.Marshal(record.CompletedLessons)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		record.CourseName,
		record.Level,
		string(completed),
		record.TotalLessons,
		driver.Millis(record.StartedAt),
		driver.Millis(record.LastAccessed),
		boolInt(record.IsCompleted),
		driver.NullMillis(record.CompletedAt),
		record.UserID,
		record.CourseID,
	}, nil
}

const updateProgress = `UPDATE course_progress
SET course_name = $1, level = $2, completed_lessons = $3, total_lessons = $4,
    started_at = $5, last_accessed = $6, is_completed = $7, completed_at = $8
WHERE user_id = $9 AND course_id = $10`

var upsertProgress = &driver.UpsertStatement{
	Table: "course_progress",
	Keys:  []string{"user_id", "course_id"},
	Columns: []string{"course_name", "level", "completed_lessons", "total_lessons",
		"started_at", "last_accessed", "is_completed", "completed_at", "user_id", "course_id"},
}

var upsertCompletion = &driver.UpsertStatement{
	Table:   "lesson_completion",
	Keys:    []string{"user_id", "course_id", "lesson_id"},
	Columns: []string{"user_id", "course_id", "lesson_id", "completed_at", "time_spent"},
}

const insertProgress = `INSERT INTO course_progress (course_name, level, completed_lessons, total_lessons,
    started_at, last_accessed, is_completed, completed_at, user_id, course_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (repo *ProgressSQL) GetProgress(ctx context.Context, userID, courseID string) (*ProgressRecord, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+progressColumns+`
FROM course_progress
WHERE user_id = $1 AND course_id = $2`, userID, courseID)
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
	return scanProgress(rows, userID)
}

func (repo *ProgressSQL) ListProgress(ctx context.Context, userID string) ([]*ProgressRecord, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT `+progressColumns+`
FROM course_progress
WHERE user_id = $1
ORDER BY started_at ASC, course_id ASC`, userID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []*ProgressRecord{}
	for rows.Next() {
		record, err := scanProgress(rows, userID)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (repo *ProgressSQL) CreateProgress(ctx context.Context, record *ProgressRecord) error {
	args, err := progressArgs(record)
	if err != nil {
		return err
	}
	_, err = repo.Conn.ExecContext(ctx, insertProgress, args...)
	if driver.IsDuplicateKey(err) {
		return domain.ErrCourseAlreadyStarted
	}
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (repo *ProgressSQL) ReplaceProgress(ctx context.Context, record *ProgressRecord) error {
	args, err := progressArgs(record)
	if err != nil {
		return err
	}
	if err := driver.Upsert(ctx, repo.Conn, upsertProgress, args...); err != nil {
		return storeError(err)
	}
	return nil
}

func (repo *ProgressSQL) CommitCompletion(ctx context.Context, record *ProgressRecord, completion *LessonCompletion) error {
	args, err := progressArgs(record)
	if err != nil {
		return err
	}
	day := civil.DateOf(completion.CompletedAt.UTC())

	err = driver.WithTx(ctx, repo.Conn, &driver.TxOptions{
		Isolation:      sql.LevelRepeatableRead,
		AccessMode:     driver.AccessReadWrite,
		DeferrableMode: driver.NotDeferrable,
	}, func(tx driver.ITransactionalDB) error {
		res, err := tx.ExecContext(ctx, updateProgress, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrCourseNotStarted
		}

		err = driver.Upsert(ctx, tx, upsertCompletion,
			record.UserID, completion.CourseID, completion.LessonID,
			driver.Millis(completion.CompletedAt), completion.TimeSpent)
		if err != nil {
			return err
		}

		return streak.MergeActivity(ctx, tx, record.UserID, day, 1, completion.TimeSpent, completion.CompletedAt)
	})
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (repo *ProgressSQL) ListCompletions(ctx context.Context, userID, courseID string) ([]*LessonCompletion, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT course_id, lesson_id, completed_at, time_spent
FROM lesson_completion
WHERE user_id = $1 AND course_id = $2
ORDER BY completed_at ASC, lesson_id ASC`, userID, courseID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	result := []*LessonCompletion{}
	for rows.Next() {
		var completedAt int64
		item := &LessonCompletion{UserID: userID}
		if err := rows.Scan(&item.CourseID, &item.LessonID, &completedAt, &item.TimeSpent); err != nil {
			return nil, storeError(err)
		}
		item.CompletedAt = driver.FromMillis(completedAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}
