package driver

import (
	"database/sql"
	"time"
)

// timestamps are stored as BIGINT unix milliseconds on every driver

// Millis t as unix milliseconds
func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FromMillis UTC time from unix milliseconds
func FromMillis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}

// NullMillis nullable timestamp column value
func NullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: Millis(*t), Valid: true}
}

// FromNullMillis nil for NULL
func FromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := FromMillis(v.Int64)
	return &t
}
