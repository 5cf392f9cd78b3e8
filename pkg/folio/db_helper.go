package folio

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx executes a function within a database transaction with proper error handling.
// It automatically handles transaction rollback on error and commit on success.
// Panics are caught and result in a rollback followed by re-panic.
func (c *Core) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("transaction rollback failed on panic", "error", rbErr, "panic_value", p)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Error("transaction rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbError("failed to commit transaction", err)
	}

	return nil
}

func (c *Core) exec(ctx context.Context, q queryer, query string, args ...any) (sql.Result, error) {
	result, err := q.ExecContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, dbError("query execution failed", err)
	}
	return result, nil
}

func (c *Core) query(ctx context.Context, q queryer, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, dbError("query execution failed", err)
	}
	return rows, nil
}

func (c *Core) queryRow(ctx context.Context, q queryer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, c.rebind(query), args...)
}

// rebind rewrites '?' placeholders into the '$n' form postgres expects.
// Queries never contain literal question marks.
func (c *Core) rebind(query string) string {
	if c.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
