// Package postgres implements the record store over a wide PostgreSQL
// table: one row per record, one column per external field. Column drift
// maps directly onto the schema-drift error contract, with SQLSTATE 42703
// (undefined_column) carrying the offending name.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lib/pq"

	"docket/internal/checklist/models"
	"docket/internal/checklist/ports"
	dErrors "docket/pkg/domain-errors"
)

// identifierPattern restricts field names to what the migration tooling
// produces; anything else never reaches SQL text.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// undefinedColumnMessage matches lib/pq's message for 42703 when the
// structured Column attribute is not populated.
var undefinedColumnMessage = regexp.MustCompile(`column "([^"]+)"`)

// PostgresRecordStore reads and writes case records in a wide table.
type PostgresRecordStore struct {
	db         *sql.DB
	table      string
	fieldLimit int
}

// Option configures the store.
type Option func(*PostgresRecordStore)

// WithFieldLimit bounds the number of fields per call.
func WithFieldLimit(limit int) Option {
	return func(s *PostgresRecordStore) {
		s.fieldLimit = limit
	}
}

// NewPostgres constructs a PostgreSQL-backed record store over the given
// table.
func NewPostgres(db *sql.DB, table string, opts ...Option) *PostgresRecordStore {
	s := &PostgresRecordStore{db: db, table: table, fieldLimit: 100}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch reads the requested fields of one record. Requested fields are
// intersected with the live column set first, so reads tolerate drift:
// a renamed or dropped column is simply absent from the bag.
func (s *PostgresRecordStore) Fetch(ctx context.Context, recordID string, fields []string) (models.PropertyBag, error) {
	if s.fieldLimit > 0 && len(fields) > s.fieldLimit {
		return nil, dErrors.New(dErrors.CodeBadRequest, "too many fields in one call")
	}

	live, err := s.liveColumns(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read record schema")
	}

	var selected []string
	for _, field := range fields {
		if !identifierPattern.MatchString(field) {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid field name %q", field))
		}
		if live[field] {
			selected = append(selected, field)
		}
	}
	cols := make([]string, 0, len(selected)+1)
	cols = append(cols, "record_id")
	for _, field := range selected {
		cols = append(cols, pq.QuoteIdentifier(field))
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE record_id = $1",
		strings.Join(cols, ", "), pq.QuoteIdentifier(s.table))

	row := s.db.QueryRowContext(ctx, query, recordID)
	values := make([]any, len(selected)+1)
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch record")
	}

	bag := make(models.PropertyBag, len(selected))
	for i, field := range selected {
		bag[field] = normalizeValue(values[i+1])
	}
	return bag, nil
}

// Update writes the field batch to one record. An undefined column maps
// onto *ports.SchemaError so the caller's elimination-and-retry loop can
// recover; a vanished record maps onto CodeNotFound.
func (s *PostgresRecordStore) Update(ctx context.Context, recordID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if s.fieldLimit > 0 && len(fields) > s.fieldLimit {
		return dErrors.New(dErrors.CodeBadRequest, "too many fields in one call")
	}

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	// Deterministic SQL text keeps logs and tests stable.
	sort.Strings(names)
	for i, field := range names {
		if !identifierPattern.MatchString(field) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid field name %q", field))
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(field), i+1))
		args = append(args, fields[field])
	}
	args = append(args, recordID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE record_id = $%d",
		pq.QuoteIdentifier(s.table), strings.Join(assignments, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if missing, ok := undefinedColumns(err); ok {
			return &ports.SchemaError{Missing: missing}
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update record")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update record")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return nil
}

func (s *PostgresRecordStore) FieldLimit() int {
	return s.fieldLimit
}

// liveColumns reads the table's current column set from the catalog.
func (s *PostgresRecordStore) liveColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, s.table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// undefinedColumns extracts missing field names from an undefined_column
// error. The structured Column attribute is preferred; the quoted name in
// the message is the fallback. Postgres reports one column per error, so
// the slice has a single element here and elimination proceeds one field
// per retry.
func undefinedColumns(err error) ([]string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "42703" {
		return nil, false
	}
	if pqErr.Column != "" {
		return []string{pqErr.Column}, true
	}
	if m := undefinedColumnMessage.FindStringSubmatch(pqErr.Message); m != nil {
		return []string{m[1]}, true
	}
	return nil, false
}

// normalizeValue converts driver values to the bag's scalar types.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return t
	}
}
