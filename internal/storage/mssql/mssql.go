// Package mssql stores flight batches in SQL Server through database/sql and
// go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// Config holds the destination settings.
type Config struct {
	Table     string
	Columns   []string
	ChunkSize int
}

// Store is the SQL Server destination table.
type Store struct {
	DB  *sql.DB
	cfg Config
	log logger.Logger
}

// MaxParams is the SQL Server limit on parameters in one request.
const MaxParams = 2100

// New returns a store for db. ChunkSize is capped so one INSERT stays under
// MaxParams.
func New(db *sql.DB, cfg Config, log logger.Logger) *Store {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = models.FlightColumns
	}
	if limit := MaxChunkSize(len(cfg.Columns)); cfg.ChunkSize > limit {
		log.Warn("Chunk size exceeds SQL Server parameter limit, capping",
			"requested", cfg.ChunkSize, "cap", limit, "columns", len(cfg.Columns))
		cfg.ChunkSize = limit
	}
	return &Store{DB: db, cfg: cfg, log: log}
}

// MaxChunkSize is the largest number of rows one INSERT can carry for the
// given column count.
func MaxChunkSize(columns int) int {
	if columns < 1 {
		columns = 1
	}
	return (MaxParams - 1) / columns
}

// CreateTableSQL renders the idempotent DDL for the destination table.
func CreateTableSQL(table string, columns []string) string {
	defs := make([]string, 0, len(columns)+2)
	defs = append(defs, "[id] INT IDENTITY(1,1) PRIMARY KEY")
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" NVARCHAR(MAX)")
	}
	defs = append(defs, "[created_at] DATETIME2 DEFAULT SYSUTCDATETIME()")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(table, "'", "''"), quoteFQN(table), strings.Join(defs, ", "))
}

// InsertSQL renders a multi-row INSERT for rows records using @pN placeholders.
func InsertSQL(table string, columns []string, rows int) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdent(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteFQN(table), strings.Join(cols, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		placeholders := make([]string, len(columns))
		for i := range columns {
			placeholders[i] = fmt.Sprintf("@p%d", n)
			n++
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	return sb.String()
}

func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, CreateTableSQL(s.cfg.Table, s.cfg.Columns)); err != nil {
		return fmt.Errorf("mssql: create table %s: %w", s.cfg.Table, err)
	}
	return nil
}

// ReplaceAll truncates the table and inserts b in chunks, all in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, b *models.Batch) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+quoteFQN(s.cfg.Table)); err != nil {
		return 0, fmt.Errorf("mssql: truncate: %w", err)
	}

	execFn := func(ctx context.Context, query string, args []any) (int64, error) {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}
	total, err := LoadBatches(ctx, s.cfg.Table, s.cfg.Columns, Rows(b, s.cfg.Columns), s.cfg.ChunkSize, execFn)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	s.log.Debug("Replaced table contents", "table", s.cfg.Table, "rows", total)
	return total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteFQN(s.cfg.Table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("mssql: count: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// ExecFn runs one INSERT statement and reports the rows it affected.
type ExecFn func(ctx context.Context, query string, args []any) (int64, error)

// LoadBatches inserts rows in batches of at most size rows, one multi-row
// INSERT per batch. It stops at the first error.
func LoadBatches(ctx context.Context, table string, columns []string, rows [][]any, size int, execFn ExecFn) (int64, error) {
	if execFn == nil {
		return 0, fmt.Errorf("mssql: execFn must not be nil")
	}
	if size < 1 {
		size = 1
	}
	var total int64
	for start := 0; start < len(rows); start += size {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		for _, r := range batch {
			args = append(args, r...)
		}
		n, err := execFn(ctx, InsertSQL(table, columns, len(batch)), args)
		if err != nil {
			return total, fmt.Errorf("mssql: insert rows %d-%d: %w", start, end, err)
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

func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func quoteFQN(table string) string {
	parts := strings.Split(table, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, quoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}
