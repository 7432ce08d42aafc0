package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventhub/internal/domain"
)

// PostgreSQL error codes mapped to domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool { return pqCode(err) == uniqueViolation }

// violatedConstraint returns the constraint name carried by a pq error.
func violatedConstraint(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Constraint
	}
	return ""
}

func isForeignKeyViolation(err error) bool { return pqCode(err) == foreignKeyViolation }

// mapErr translates driver errors to domain sentinels: no rows to ErrNotFound,
// unique violations to onConflict and foreign key violations to ErrInvalidInput.
func mapErr(err error, onConflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case onConflict != nil && isUniqueViolation(err):
		return onConflict
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced record does not exist", domain.ErrInvalidInput)
	}
	return err
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// queryArgs accumulates positional arguments and hands out $n placeholders.
type queryArgs []any

func (a *queryArgs) bind(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// whereClause joins its conditions with AND.
type whereClause []string

func (w whereClause) String() string {
	if len(w) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w, " AND ")
}

// likePattern escapes LIKE wildcards and wraps s in % for a contains match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// pageClause appends LIMIT/OFFSET placeholders for params.
func pageClause(args *queryArgs, params domain.PaginationParams) string {
	return fmt.Sprintf(" LIMIT %s OFFSET %s", args.bind(params.Limit()), args.bind(params.Offset()))
}

// execAffected runs an Exec and returns ErrNotFound when no row was affected.
func execAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL, used to clear optional foreign keys.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// stringArray wraps a string slice for = ANY($n) comparisons.
func stringArray(values []string) any {
	return pq.Array(values)
}
