package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/skulls/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS change_requests (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'PENDING',
	requested_by TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_change_requests_status ON change_requests(status);
`

const selectColumns = `id, title, description, status, requested_by, created_at, updated_at`

// Paging defaults for list queries.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// sortColumns maps the public sortBy names to table columns.
var sortColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"status":      "status",
	"requestedBy": "requested_by",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// Repository is the persistence contract the HTTP handlers depend on.
type Repository interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Get(ctx context.Context, id int64) (*ChangeRequest, error)
	Create(ctx context.Context, in Input) (*ChangeRequest, error)
	Update(ctx context.Context, id int64, in Input, ifMatch string) (*ChangeRequest, error)
	Delete(ctx context.Context, id int64) error
}

// Verify *Store satisfies Repository at compile time.
var _ Repository = (*Store)(nil)

// ListQuery selects one page of change requests.
type ListQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Status  Status
}

// Normalize applies defaults and clamps paging. Unknown sort fields and
// statuses are rejected with apperr.ErrValidation.
func (q *ListQuery) Normalize() error {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "id"
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return fmt.Errorf("%w: unknown sort field %q", apperr.ErrValidation, q.SortBy)
	}
	if strings.EqualFold(q.SortDir, "desc") || q.SortDir == "" {
		q.SortDir = "desc"
	} else {
		q.SortDir = "asc"
	}
	if q.Status != "" {
		st, ok := ParseStatus(string(q.Status))
		if !ok {
			return fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, q.Status)
		}
		q.Status = st
	}
	return nil
}

// ListResult is one page of change requests plus paging metadata.
type ListResult struct {
	Items []ChangeRequest
	Total int
	Query ListQuery
}

// TotalPages returns the number of pages for the result's page size.
func (r *ListResult) TotalPages() int {
	if r.Query.Size <= 0 {
		return 0
	}
	return (r.Total + r.Query.Size - 1) / r.Query.Size
}

// Store is the SQLite-backed Repository.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("backend: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("backend: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("backend: apply schema: %w", err)
	}
	return &Store{conn: conn, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChangeRequest(row rowScanner) (*ChangeRequest, error) {
	var (
		cr        ChangeRequest
		status    string
		updatedAt sql.NullTime
	)
	if err := row.Scan(&cr.ID, &cr.Title, &cr.Description, &status, &cr.RequestedBy, &cr.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	cr.Status = Status(status)
	cr.CreatedAt = cr.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		cr.UpdatedAt = &t
	}
	return &cr, nil
}

// List returns one page of change requests, optionally filtered by status.
func (s *Store) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM change_requests WHERE (? = '' OR status = ?)`,
		string(q.Status), string(q.Status)).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("backend: count: %w", err)
	}

	// Column and direction come from the whitelist above, never from input.
	order := sortColumns[q.SortBy] + " " + strings.ToUpper(q.SortDir)
	if q.SortBy != "id" {
		order += ", id " + strings.ToUpper(q.SortDir)
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM change_requests
		WHERE (? = '' OR status = ?)
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		string(q.Status), string(q.Status), q.Size, q.Page*q.Size)
	if err != nil {
		return nil, fmt.Errorf("backend: list: %w", err)
	}
	defer rows.Close()

	items := make([]ChangeRequest, 0, q.Size)
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("backend: scan: %w", err)
		}
		items = append(items, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Query: q}, nil
}

// Get returns one change request or apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*ChangeRequest, error) {
	return s.get(ctx, s.conn, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, q queryRower, id int64) (*ChangeRequest, error) {
	cr, err := scanChangeRequest(q.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM change_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("backend: get %d: %w", id, err)
	}
	return cr, nil
}

func validateInput(in *Input) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return nil
}

// Create validates and inserts a new change request.
func (s *Store) Create(ctx context.Context, in Input) (*ChangeRequest, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO change_requests (title, description, status, requested_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		in.Title, in.Description, string(in.Status), in.RequestedBy, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("backend: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("backend: insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces the writable fields of a change request. A non-empty
// ifMatch must equal the current ETag or apperr.ErrConflict is returned.
func (s *Store) Update(ctx context.Context, id int64, in Input, ifMatch string) (*ChangeRequest, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != ETag(current) {
		return nil, apperr.ErrConflict
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE change_requests
		SET title = ?, description = ?, status = ?, requested_by = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Description, string(in.Status), in.RequestedBy, s.now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("backend: update %d: %w", id, err)
	}
	updated, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("backend: commit: %w", err)
	}
	return updated, nil
}

// Delete removes a change request or returns apperr.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM change_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("backend: delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("backend: delete %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
