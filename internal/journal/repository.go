package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindRequest    = "request"
	KindConnection = "connection"
	KindEvent      = "event"
)

// Page size limits for List.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Entry is one journal row.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Event      string    `json:"event,omitempty"`
	Connected  *bool     `json:"connected,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Kind     string    // optional: request, connection or event
	Endpoint string    // optional: exact endpoint name
	Outcome  string    // optional: ok, transport_error, protocol_error
	Since    time.Time // optional: only entries at or after this instant
	Limit    int       // default 50, max 500
	Offset   int       // pagination offset
}

// ListResult is a page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores and queries journal entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteRepository stores entries in the bridge_journal table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an entry. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.Kind == "" {
		return fmt.Errorf("journal entry kind is required")
	}
	if e.ID == "" {
		e.ID = "jrn-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	var connected any
	if e.Connected != nil {
		connected = *e.Connected
	}
	var duration any
	if e.Kind == KindRequest {
		duration = e.DurationMS
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bridge_journal (id, kind, endpoint, outcome, event, connected, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind,
		nullableString(e.Endpoint), nullableString(e.Outcome), nullableString(e.Event),
		connected, duration,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Endpoint != "" {
		conditions = append(conditions, "endpoint = ?")
		args = append(args, filter.Endpoint)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM bridge_journal " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	query := "SELECT id, kind, endpoint, outcome, event, connected, duration_ms, created_at FROM bridge_journal " + //nolint:gosec // WHERE built from parameterised conditions
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var endpoint, outcome, event sql.NullString
		var connected sql.NullBool
		var duration sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Kind, &endpoint, &outcome, &event, &connected, &duration, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Endpoint = endpoint.String
		e.Outcome = outcome.String
		e.Event = event.String
		if connected.Valid {
			c := connected.Bool
			e.Connected = &c
		}
		e.DurationMS = duration.Float64

		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Prune deletes entries older than before and returns how many were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM bridge_journal WHERE created_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return n, nil
}
