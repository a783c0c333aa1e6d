// Package sqldriver is the database/sql implementation of storage.Driver
// shared by the sqlite and postgres drivers. The two differ only in their
// Dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/ollamaui/pkg/decoder"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// Dialect holds what differs between SQL engines.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Schema is run once on open. It must be idempotent.
	Schema []string

	// Upsert inserts or replaces one row of ExchangeColumns, using ?
	// placeholders.
	Upsert string

	// NumberedParams rewrites ? placeholders to $1, $2, ...
	NumberedParams bool
}

// ExchangeColumns lists the exchanges table columns in the order Put binds
// them.
const ExchangeColumns = "id, model, messages, format, stream, content, raw, stats, error, created_at, duration_ms"

// UpsertOnConflict is an Upsert for engines that support ON CONFLICT.
const UpsertOnConflict = `INSERT INTO exchanges (` + ExchangeColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	model = excluded.model,
	messages = excluded.messages,
	format = excluded.format,
	stream = excluded.stream,
	content = excluded.content,
	raw = excluded.raw,
	stats = excluded.stats,
	error = excluded.error,
	created_at = excluded.created_at,
	duration_ms = excluded.duration_ms`

// Driver implements storage.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New runs the dialect's schema statements and returns a Driver. The caller
// hands ownership of db to the Driver.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}

	return &Driver{DB: db, dialect: dialect}, nil
}

// Put stores ex, replacing any row with the same ID.
func (d *Driver) Put(ctx context.Context, ex *storage.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}
	if ex.ID == "" {
		return errors.New("cannot store exchange without an id")
	}

	messages, err := json.Marshal(ex.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	stats := ""
	if ex.Stats != nil {
		b, err := json.Marshal(ex.Stats)
		if err != nil {
			return fmt.Errorf("encoding stats: %w", err)
		}
		stats = string(b)
	}

	_, err = d.DB.ExecContext(ctx, d.rebind(d.dialect.Upsert),
		ex.ID,
		ex.Model,
		string(messages),
		string(ex.Format),
		ex.Stream,
		ex.Content,
		string(ex.Raw),
		stats,
		ex.Error,
		ex.CreatedAt.UnixNano(),
		ex.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("storing exchange %s: %w", ex.ID, err)
	}
	return nil
}

// Get retrieves an exchange by ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Exchange, error) {
	row := d.DB.QueryRowContext(ctx,
		d.rebind("SELECT "+ExchangeColumns+" FROM exchanges WHERE id = ?"), id)

	ex, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading exchange %s: %w", id, err)
	}
	return ex, nil
}

// List returns up to limit exchanges, newest first.
func (d *Driver) List(ctx context.Context, limit int) ([]*storage.Exchange, error) {
	query := "SELECT " + ExchangeColumns + " FROM exchanges ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer rows.Close()

	var out []*storage.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	return out, nil
}

// Count returns the number of stored exchanges.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exchanges: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(s scanner) (*storage.Exchange, error) {
	var (
		ex                           storage.Exchange
		messages, format, raw, stats string
		createdAt                    int64
	)

	err := s.Scan(
		&ex.ID,
		&ex.Model,
		&messages,
		&format,
		&ex.Stream,
		&ex.Content,
		&raw,
		&stats,
		&ex.Error,
		&createdAt,
		&ex.DurationMs,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messages), &ex.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	if format != "" {
		ex.Format = json.RawMessage(format)
	}
	if raw != "" {
		ex.Raw = json.RawMessage(raw)
	}
	if stats != "" {
		ex.Stats = &decoder.Stats{}
		if err := json.Unmarshal([]byte(stats), ex.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats: %w", err)
		}
	}
	ex.CreatedAt = time.Unix(0, createdAt).UTC()

	return &ex, nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (d *Driver) rebind(query string) string {
	if !d.dialect.NumberedParams {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
