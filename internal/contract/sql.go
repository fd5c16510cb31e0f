package contract

import (
	"fmt"
	"regexp"

	"github.com/fanpulse/fanpulse/schema"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a table or column name is safe to splice into SQL.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// QuoteIdentifier returns the properly quoted table or column name for the given backend.
func QuoteIdentifier(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // PostgreSQL and SQLite
		return fmt.Sprintf("\"%s\"", name)
	}
}
