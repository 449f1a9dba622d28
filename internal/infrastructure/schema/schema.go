package schema

import (
	"context"
	_ "embed" // schema document
	"fmt"
	"strings"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
)

//go:embed schema.sql
var document string

// Statements DDL statements in creation order
func Statements() []string {
	var stmts []string
	for _, raw := range strings.Split(document, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			stmts = append(stmts, strings.Join(lines, "\n"))
		}
	}
	return stmts
}

// Migrate create every table that does not exist yet
func Migrate(ctx context.Context, conn driver.ITransactionalDB) error {
	for _, stmt := range Statements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", conn.Driver(), err)
		}
	}
	return nil
}
