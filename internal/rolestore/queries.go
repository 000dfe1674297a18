// internal/rolestore/queries.go
package rolestore

import (
	"fmt"
	"regexp"

	"art-of-prompting/internal/common/config"
	"art-of-prompting/internal/common/database"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table names the role table and its two columns.
type Table struct {
	Name          string
	RoleColumn    string
	ContextColumn string
}

// DefaultTable is the layout written by the importer unless configured otherwise.
var DefaultTable = Table{Name: "role_contexts", RoleColumn: "role", ContextColumn: "context"}

// TableFromConfig reads the table layout from the database settings.
func TableFromConfig(cfg config.DatabaseConfig) Table {
	t := DefaultTable
	if cfg.Table != "" {
		t.Name = cfg.Table
	}
	if cfg.RoleColumn != "" {
		t.RoleColumn = cfg.RoleColumn
	}
	if cfg.ContextColumn != "" {
		t.ContextColumn = cfg.ContextColumn
	}
	return t
}

func (t Table) validate() error {
	for _, ident := range []string{t.Name, t.RoleColumn, t.ContextColumn} {
		if !identifierPattern.MatchString(ident) {
			return fmt.Errorf("invalid SQL identifier %q", ident)
		}
	}
	return nil
}

// statements holds the dialect-specific SQL for one table.
type statements struct {
	createTable string
	getContext  string
	listRoles   string
	upsert      string
	deleteAll   string
	count       string
}

func buildStatements(d database.Dialect, t Table) statements {
	tbl := d.QuoteIdent(t.Name)
	role := d.QuoteIdent(t.RoleColumn)
	ctx := d.QuoteIdent(t.ContextColumn)

	s := statements{
		getContext: fmt.Sprintf("SELECT COALESCE(%s, '') FROM %s WHERE %s = %s",
			ctx, tbl, role, d.Placeholder(1)),
		listRoles: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", role, tbl, role),
		deleteAll: fmt.Sprintf("DELETE FROM %s", tbl),
		count:     fmt.Sprintf("SELECT COUNT(*) FROM %s", tbl),
	}

	switch d {
	case database.DialectMySQL:
		s.createTable = fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) NOT NULL, %s TEXT, PRIMARY KEY (%s)) CHARACTER SET utf8mb4",
			tbl, role, ctx, role)
		s.upsert = fmt.Sprintf(
			"INSERT INTO %s (%s, %s) VALUES (?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
			tbl, role, ctx, ctx, ctx)
	default:
		s.createTable = fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) PRIMARY KEY, %s TEXT)",
			tbl, role, ctx)
		s.upsert = fmt.Sprintf(
			"INSERT INTO %s (%s, %s) VALUES (%s, %s) ON CONFLICT (%s) DO UPDATE SET %s = excluded.%s",
			tbl, role, ctx, d.Placeholder(1), d.Placeholder(2), role, ctx, ctx)
	}

	return s
}
