package driver

import (
	"context"
	"fmt"
	"strings"
)

// UpsertStatement single row insert that updates the existing row on a key conflict
type UpsertStatement struct {
	Table   string
	Keys    []string // conflict target, must be covered by a primary or unique key
	Columns []string // inserted columns in argument order, keys included
	Add     []string // non key columns incremented by the new value instead of overwritten
}

func (us *UpsertStatement) isKey(column string) bool {
	for _, k := range us.Keys {
		if k == column {
			return true
		}
	}
	return false
}

func (us *UpsertStatement) isAdd(column string) bool {
	for _, a := range us.Add {
		if a == column {
			return true
		}
	}
	return false
}

// SQL render the statement for driver. The conflict is resolved by the database in the
// same statement, so it is safe inside a transaction on postgres where a failed insert
// aborts everything that follows.
func (us *UpsertStatement) SQL(driver string) (string, error) {
	if len(us.Keys) == 0 || len(us.Columns) == 0 {
		return "", fmt.Errorf("upsert into %s needs keys and columns", us.Table)
	}

	placeholders := make([]string, len(us.Columns))
	for i := range us.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		us.Table, strings.Join(us.Columns, ", "), strings.Join(placeholders, ", "))

	var sets []string
	for _, col := range us.Columns {
		if us.isKey(col) {
			continue
		}
		var newValue, current string
		switch driver {
		case DriverMySQL:
			newValue, current = "VALUES("+col+")", col
		case DriverPostgres, DriverSQLite:
			newValue, current = "EXCLUDED."+col, us.Table+"."+col
		default:
			return "", fmt.Errorf("Unsupported driver: %s", driver)
		}
		if us.isAdd(col) {
			sets = append(sets, fmt.Sprintf("%s = %s + %s", col, current, newValue))
		} else {
			sets = append(sets, fmt.Sprintf("%s = %s", col, newValue))
		}
	}

	switch driver {
	case DriverMySQL:
		if len(sets) == 0 {
			// no-op assignment keeps the statement valid
			sets = []string{us.Keys[0] + " = " + us.Keys[0]}
		}
		return insert + "\nON DUPLICATE KEY UPDATE " + strings.Join(sets, ", "), nil
	default:
		if len(sets) == 0 {
			return insert + "\nON CONFLICT (" + strings.Join(us.Keys, ", ") + ") DO NOTHING", nil
		}
		return insert + "\nON CONFLICT (" + strings.Join(us.Keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", "), nil
	}
}

// Upsert run stmt on conn with args given in stmt.Columns order
func Upsert(ctx context.Context, conn ITransactionalDB, stmt *UpsertStatement, args ...interface{}) error {
	if len(args) != len(stmt.Columns) {
		return fmt.Errorf("upsert into %s: %d args for %d columns", stmt.Table, len(args), len(stmt.Columns))
	}
	query, err := stmt.SQL(conn.Driver())
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, query, args...)
	return err
}
