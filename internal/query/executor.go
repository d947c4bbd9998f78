package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-insight/apiserver/types"

	"github.com/lib/pq"
)

// QueryError reports a failed execution. It carries the template ID and a
// redacted description; bound parameter values are never echoed back.
type QueryError struct {
	TemplateID TemplateID
	Reason     string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %s", e.TemplateID, e.Reason)
}

// Executor runs built queries against the shared connection pool. Every
// statement it accepts is a read-only SELECT; nothing in this core mutates
// data.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
}

func NewExecutor(db *sql.DB, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{db: db, timeout: timeout}
}

// Execute runs one built query and returns its rows. Zero rows is a
// success with an empty ResultSet, never an error.
func (e *Executor) Execute(ctx context.Context, built BuiltQuery) (types.ResultSet, error) {
	if !isReadOnly(built.SQL) {
		return types.ResultSet{}, &QueryError{
			TemplateID: built.TemplateID,
			Reason:     "statement is not a read-only select",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, built.SQL, built.Args...)
	if err != nil {
		return types.ResultSet{}, &QueryError{TemplateID: built.TemplateID, Reason: redact(err)}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return types.ResultSet{}, &QueryError{TemplateID: built.TemplateID, Reason: redact(err)}
	}

	result := types.ResultSet{Columns: columns, Rows: []types.Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = new(any)
		}
		if err := rows.Scan(values...); err != nil {
			return types.ResultSet{}, &QueryError{TemplateID: built.TemplateID, Reason: redact(err)}
		}

		row := make(types.Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(*(values[i].(*any)))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return types.ResultSet{}, &QueryError{TemplateID: built.TemplateID, Reason: redact(err)}
	}

	return result, nil
}

// isReadOnly accepts a single SELECT (or WITH ... SELECT) statement and
// nothing else. Trailing semicolons are tolerated; stacked statements are
// not.
func isReadOnly(stmt string) bool {
	trimmed := strings.TrimSpace(stmt)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return false
	}

	fields := strings.Fields(strings.ToLower(trimmed))
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "select" || fields[0] == "with"
}

// redact summarizes a driver error without repeating anything that could
// contain sensitive bound values.
func redact(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "query timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "query canceled"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Sprintf("postgres error: %s", pqErr.Code.Name())
	}
	return "execution failed"
}

// normalizeValue converts driver byte slices to strings so result rows
// serialize as text rather than base64.
func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
