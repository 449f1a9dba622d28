package driver

import (
	"database/sql"
	"strings"

	// sqlite driver, registers "sqlite"
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:      DriverSQLite,
	rewrite:   sqliteAdapter,
	txOptions: sqliteTxOptionAdapter,
}

// NewSQLiteConn Returns a SQLite handle. dsn is a file path or ":memory:".
//
// sqlite allows a single writer, so the pool is capped at one connection. This also keeps
// an in-memory database alive across calls.
func NewSQLiteConn(dsn string, cfg *DBConfig) (ITransactionalDB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	if strings.HasPrefix(dsn, ":memory:") {
		conn.SetConnMaxLifetime(0)
		conn.SetMaxIdleConns(1)
	}
	return &SQLWrapper{conn, sqliteDialect}, nil
}

// sqlite transactions are serializable, isolation and access flags are left to the engine
func sqliteTxOptionAdapter(opts *TxOptions) *sql.TxOptions {
	return nil
}

func sqliteAdapter(query string) string {
	query = DollarPlaceholderPattern.ReplaceAllString(query, "?$1")
	query = SpacePattern.ReplaceAllString(query, " ")
	return query
}
