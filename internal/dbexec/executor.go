// Package dbexec runs finished SQL statements against the relational store.
// Statements arrive already validated; this layer only executes and shapes rows.
package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/askdesk/askdesk/internal/observability"
)

// Row maps column name to scanned value for one result row.
type Row map[string]any

// Result carries the rows of one statement. Columns preserves the column
// order reported by the driver, which Row alone cannot.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Error wraps a driver failure during statement execution.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("execute sql: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open connects to the employee database and verifies the connection.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Executor executes SQL against a shared connection pool.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) HealthCheck(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Execute runs the statement and zips each row into a column-name-to-value
// mapping. Zero matching rows yields an empty Rows slice, not an error.
func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, &Error{Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, &Error{Err: fmt.Errorf("read columns: %w", err)}
	}

	result := Result{Columns: columns, Rows: make([]Row, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			observability.ObserveSQLExecution(time.Since(start), false)
			return Result{}, &Error{Err: fmt.Errorf("scan row: %w", err)}
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		observability.ObserveSQLExecution(time.Since(start), false)
		return Result{}, &Error{Err: fmt.Errorf("iterate rows: %w", err)}
	}

	observability.ObserveSQLExecution(time.Since(start), true)
	return result, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}
