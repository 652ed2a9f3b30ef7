// Package store persists Warbler users, messages, follows and likes in a
// relational database reached through database/sql.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType

	// passwordCost is the bcrypt cost used by Signup and UpdatePassword.
	passwordCost int
}

// Open connects to the database. driver is "sqlite3" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	} else {
		// One writer keeps sqlite from returning SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, driver: driver, sb: sb, passwordCost: bcrypt.DefaultCost}, nil
}

// sqliteDSN turns on foreign keys so cascading deletes work.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// SetPasswordCost overrides the bcrypt cost. Tests lower it to bcrypt.MinCost.
func (s *Store) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == "postgres" {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// exec runs a built statement.
func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

func (s *Store) count(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	row, err := s.queryRow(ctx, b)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
