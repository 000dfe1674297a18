// internal/rolestore/store.go
package rolestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"art-of-prompting/internal/common/database"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/metrics"
	"art-of-prompting/internal/models"
)

// Store resolves role titles to their context descriptions.
type Store interface {
	GetContext(ctx context.Context, title string) (string, error)
	ListRoles(ctx context.Context) ([]string, error)
}

// SQLStore is the relational Store. It is also the write side used by the importer.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
	stmts   statements
	logger  logger.Logger
}

// NewSQLStore validates the table layout and prepares the dialect's statements.
func NewSQLStore(client *database.SQLClient, table Table, log logger.Logger) (*SQLStore, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	return &SQLStore{
		db:      client.DB,
		dialect: client.Dialect,
		stmts:   buildStatements(client.Dialect, table),
		logger: log.With(map[string]interface{}{
			"component": "rolestore",
			"table":     table.Name,
		}),
	}, nil
}

// EnsureSchema creates the role table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.stmts.createTable); err != nil {
		return apperrors.NewQueryExecutionFailedError("create_table", err)
	}
	return nil
}

// GetContext returns the description stored for title.
func (s *SQLStore) GetContext(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.NewValidationError("role is required")
	}

	metrics.RoleLookupsTotal.WithLabelValues("database").Inc()

	var description string
	err := s.db.QueryRowContext(ctx, s.stmts.getContext, title).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NewRoleNotFoundError(title)
	}
	if err != nil {
		s.logger.Error("context lookup failed", map[string]interface{}{
			"role":  title,
			"error": err.Error(),
		})
		return "", apperrors.NewQueryExecutionFailedError("get_context", err)
	}
	return description, nil
}

// ListRoles returns every role title in ascending order.
func (s *SQLStore) ListRoles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.stmts.listRoles)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list_roles", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("list_roles", err)
		}
		roles = append(roles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list_roles", err)
	}
	return roles, nil
}

// Count returns the number of stored roles.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.stmts.count).Scan(&n); err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("count", err)
	}
	return n, nil
}

// Upsert writes every record in one transaction, overwriting existing titles.
func (s *SQLStore) Upsert(ctx context.Context, records []models.RoleContext) (int, error) {
	return s.write(ctx, records, false)
}

// ReplaceAll deletes every stored role, then writes records, in one transaction.
func (s *SQLStore) ReplaceAll(ctx context.Context, records []models.RoleContext) (int, error) {
	return s.write(ctx, records, true)
}

func (s *SQLStore) write(ctx context.Context, records []models.RoleContext, truncate bool) (written int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if truncate {
		if _, err = tx.ExecContext(ctx, s.stmts.deleteAll); err != nil {
			return 0, apperrors.NewQueryExecutionFailedError("delete_all", err)
		}
	}

	for _, rec := range records {
		title := strings.TrimSpace(rec.Title)
		if title == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, s.stmts.upsert, title, rec.Description); err != nil {
			return 0, apperrors.NewQueryExecutionFailedError("upsert", fmt.Errorf("role %q: %w", title, err))
		}
		written++
	}

	if err = tx.Commit(); err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("commit", err)
	}

	s.logger.Info("roles written", map[string]interface{}{
		"written":  written,
		"replaced": truncate,
	})
	return written, nil
}
