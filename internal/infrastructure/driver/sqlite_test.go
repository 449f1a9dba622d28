package driver_test

import (
	"errors"
	"testing"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countActivity(t *testing.T, conn driver.ITransactionalDB, userID string) (lessons int) {
	t.Helper()
	rows, err := conn.QueryContext(testutil.Context(t), `SELECT lessons_completed FROM activity WHERE user_id = $1`, userID)
	require.NoError(t, err)
	defer rows.Close()
	if rows.Next() {
		require.NoError(t, rows.Scan(&lessons))
	}
	return
}

func TestSQLiteDuplicateKey(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)

	insert := `INSERT INTO activity (user_id, day, lessons_completed, time_spent, last_activity) VALUES ($1, $2, $3, $4, $5)`
	_, err := conn.ExecContext(ctx, insert, "u1", "2024-03-01", 1, 10, 0)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, insert, "u1", "2024-03-01", 1, 10, 0)
	require.Error(t, err)
	assert.True(t, driver.IsDuplicateKey(err))
}

var mergeActivity = &driver.UpsertStatement{
	Table:   "activity",
	Keys:    []string{"user_id", "day"},
	Columns: []string{"user_id", "day", "lessons_completed", "time_spent", "last_activity"},
	Add:     []string{"lessons_completed"},
}

func TestUpsert(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)

	require.NoError(t, driver.Upsert(ctx, conn, mergeActivity, "u1", "2024-03-01", 1, 0, 0))
	assert.Equal(t, 1, countActivity(t, conn, "u1"))

	require.NoError(t, driver.Upsert(ctx, conn, mergeActivity, "u1", "2024-03-01", 2, 0, 0))
	assert.Equal(t, 3, countActivity(t, conn, "u1"))

	assert.Error(t, driver.Upsert(ctx, conn, mergeActivity, "u1", "2024-03-01"))
}

func TestUpsertConflictInsideTx(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)
	require.NoError(t, driver.Upsert(ctx, conn, mergeActivity, "u1", "2024-03-01", 1, 0, 0))

	err := driver.WithTx(ctx, conn, nil, func(tx driver.ITransactionalDB) error {
		if err := driver.Upsert(ctx, tx, mergeActivity, "u1", "2024-03-01", 1, 0, 0); err != nil {
			return err
		}
		// the transaction stays usable after the conflict
		_, err := tx.ExecContext(ctx, `UPDATE activity SET time_spent = 7 WHERE user_id = $1`, "u1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countActivity(t, conn, "u1"))
}

func TestWithTxRollsBack(t *testing.T) {
	conn := testutil.DB(t)
	ctx := testutil.Context(t)
	boom := errors.New("boom")

	err := driver.WithTx(ctx, conn, nil, func(tx driver.ITransactionalDB) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO activity (user_id, day, lessons_completed, time_spent, last_activity) VALUES ($1, $2, 5, 0, 0)`, "u1", "2024-03-01")
		require.NoError(t, err)
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, countActivity(t, conn, "u1"))

	err = driver.WithTx(ctx, conn, nil, func(tx driver.ITransactionalDB) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO activity (user_id, day, lessons_completed, time_spent, last_activity) VALUES ($1, $2, 5, 0, 0)`, "u1", "2024-03-01")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 5, countActivity(t, conn, "u1"))
}
