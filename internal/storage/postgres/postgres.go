// Package postgres stores flight batches in Postgres using pgx v5. A full
// replace truncates the table and streams the new rows in with COPY.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// Config holds the destination settings.
type Config struct {
	Table     string   // possibly schema-qualified, e.g. "public.flights"
	Columns   []string // ordered text columns
	ChunkSize int
}

// Store is the Postgres destination table.
type Store struct {
	pool *pgxpool.Pool
	cfg  Config
	log  logger.Logger
}

func New(pool *pgxpool.Pool, cfg Config, log logger.Logger) *Store {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = models.FlightColumns
	}
	return &Store{pool: pool, cfg: cfg, log: log}
}

// CreateTableSQL renders the DDL for the destination table.
func CreateTableSQL(table string, columns []string) string {
	defs := make([]string, 0, len(columns)+2)
	defs = append(defs, `"id" SERIAL PRIMARY KEY`)
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" TEXT")
	}
	defs = append(defs, `"created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP`)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quoteFQN(table), strings.Join(defs, ",\n  "))
}

func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, CreateTableSQL(s.cfg.Table, s.cfg.Columns)); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", s.cfg.Table, err)
	}
	return nil
}

// ReplaceAll swaps the table contents for b inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, b *models.Batch) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+quoteFQN(s.cfg.Table)+" RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("postgres: truncate: %w", err)
	}

	ident := tableIdentifier(s.cfg.Table)
	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		return tx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	}
	total, err := LoadBatches(ctx, s.cfg.Columns, Rows(b, s.cfg.Columns), s.cfg.ChunkSize, copyFn)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	s.log.Debug("Replaced table contents", "table", s.cfg.Table, "rows", total)
	return total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteFQN(s.cfg.Table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CopyFn writes one batch of positional rows and reports how many were stored.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches splits rows into batches of at most size rows and hands each to
// copyFn in order. It stops at the first error; the returned count covers the
// batches written before it.
func LoadBatches(ctx context.Context, columns []string, rows [][]any, size int, copyFn CopyFn) (int64, error) {
	if copyFn == nil {
		return 0, fmt.Errorf("postgres: copyFn must not be nil")
	}
	var total int64
	for _, batch := range Chunk(rows, size) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := copyFn(ctx, columns, batch)
		if err != nil {
			return total, fmt.Errorf("postgres: copy rows %d-%d: %w", total, total+int64(len(batch)), err)
		}
		total += n
	}
	return total, nil
}

// Rows renders b as positional text rows in column order.
func Rows(b *models.Batch, columns []string) [][]any {
	out := make([][]any, 0, b.Len())
	for _, r := range b.Records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = utils.ToText(r[c])
		}
		out = append(out, row)
	}
	return out
}

// Chunk splits rows into slices of at most size rows.
func Chunk(rows [][]any, size int) [][][]any {
	if size < 1 {
		size = 1
	}
	var out [][][]any
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func tableIdentifier(table string) pgx.Identifier {
	var parts pgx.Identifier
	for _, p := range strings.Split(table, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(table string) string {
	return tableIdentifier(table).Sanitize()
}
