package driver

import (
	"database/sql"
	"strings"

	// mysql driver
	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name:      DriverMySQL,
	rewrite:   mysqlAdapter,
	txOptions: defaultTxOptionAdapter,
}

// NewMySQLConn Returns a MySQL connection pool
func NewMySQLConn(dsn string, cfg *DBConfig) (ITransactionalDB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(int(cfg.MaxConn))
	return &SQLWrapper{conn, mysqlDialect}, nil
}

func mysqlAdapter(query string) string {
	query = strings.Replace(query, "\"", "`", -1)
	query = DollarPlaceholderPattern.ReplaceAllString(query, "?")
	query = SpacePattern.ReplaceAllString(query, " ")
	return query
}
