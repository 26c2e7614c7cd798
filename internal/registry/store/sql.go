package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"arefa/internal/platform/database"
)

// sqliteTime is fixed width so that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// Table describes how one record type maps onto a table. Values and
// Targets must follow Columns order; the id column is implicit.
type Table[T any] struct {
	Name      string
	Columns   []string
	Immutable []string
	New       func() T
	Values    func(T) []any
	Targets   func(T) []any
}

// SQLStore persists records through database/sql on PostgreSQL or SQLite.
type SQLStore[T Entity[T]] struct {
	db      *sql.DB
	dialect database.Dialect
	table   Table[T]
}

// NewSQL constructs a store for table on db.
func NewSQL[T Entity[T]](db *sql.DB, dialect database.Dialect, table Table[T]) *SQLStore[T] {
	return &SQLStore[T]{db: db, dialect: dialect, table: table}
}

func (s *SQLStore[T]) Create(ctx context.Context, rec T) error {
	cols := s.table.Columns
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		s.table.Name, strings.Join(cols, ", "), strings.Join(s.placeholders(len(cols)), ", "))

	var id int64
	if err := s.db.QueryRowContext(ctx, query, s.args(rec)...).Scan(&id); err != nil {
		return fmt.Errorf("insert into %s: %w", s.table.Name, err)
	}
	rec.SetID(id)
	return nil
}

func (s *SQLStore[T]) Get(ctx context.Context, id int64) (T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = %s`, s.selectList(), s.table.Name, s.placeholder(1))
	rec, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("get from %s: %w", s.table.Name, err)
	}
	return rec, nil
}

// List returns every record, newest registration first.
func (s *SQLStore[T]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY date_enregistrement DESC, id DESC`, s.selectList(), s.table.Name)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table.Name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table.Name, err)
	}
	return out, nil
}

// Update writes every mutable column of rec.
func (s *SQLStore[T]) Update(ctx context.Context, rec T) error {
	skip := make(map[string]bool, len(s.table.Immutable))
	for _, c := range s.table.Immutable {
		skip[c] = true
	}

	values := s.args(rec)
	set := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+1)
	for i, col := range s.table.Columns {
		if skip[col] {
			continue
		}
		args = append(args, values[i])
		set = append(set, col+" = "+s.placeholder(len(args)))
	}
	args = append(args, rec.RecordID())
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = %s`,
		s.table.Name, strings.Join(set, ", "), s.placeholder(len(args)))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s rows: %w", s.table.Name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record and returns its last stored state.
func (s *SQLStore[T]) Delete(ctx context.Context, id int64) (T, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s RETURNING %s`, s.table.Name, s.placeholder(1), s.selectList())
	rec, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("delete from %s: %w", s.table.Name, err)
	}
	return rec, nil
}

func (s *SQLStore[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table.Name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table.Name, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore[T]) scan(row rowScanner) (T, error) {
	rec := s.table.New()
	var id int64
	targets := []any{&id}
	for _, t := range s.table.Targets(rec) {
		if p, ok := t.(*time.Time); ok {
			t = &timestamp{dst: p}
		}
		targets = append(targets, t)
	}
	if err := row.Scan(targets...); err != nil {
		var zero T
		return zero, err
	}
	rec.SetID(id)
	return rec, nil
}

func (s *SQLStore[T]) args(rec T) []any {
	values := s.table.Values(rec)
	for i, v := range values {
		if t, ok := v.(time.Time); ok {
			values[i] = s.timeArg(t)
		}
	}
	return values
}

func (s *SQLStore[T]) timeArg(t time.Time) any {
	if s.dialect == database.SQLite {
		return t.UTC().Format(sqliteTime)
	}
	return t.UTC()
}

func (s *SQLStore[T]) selectList() string {
	return "id, " + strings.Join(s.table.Columns, ", ")
}

func (s *SQLStore[T]) placeholder(n int) string {
	if s.dialect == database.SQLite {
		return "?" + strconv.Itoa(n)
	}
	return "$" + strconv.Itoa(n)
}

func (s *SQLStore[T]) placeholders(n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = s.placeholder(i + 1)
	}
	return out
}

// timestamp scans TIMESTAMPTZ values and the RFC 3339 text SQLite keeps.
type timestamp struct {
	dst *time.Time
}

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.dst = time.Time{}
		return nil
	case time.Time:
		*ts.dst = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	}
	return fmt.Errorf("unsupported timestamp value %T", src)
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
