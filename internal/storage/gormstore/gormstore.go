// Package gormstore stores flight batches through gorm, on either the
// postgres or the sqlite dialector.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// FlightRow is one row of the destination table.
type FlightRow struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FlightDate        string    `gorm:"column:flight_date;type:text" json:"flight_date"`
	FlightStatus      string    `gorm:"column:flight_status;type:text" json:"flight_status"`
	DepartureAirport  string    `gorm:"column:departure_airport;type:text" json:"departure_airport"`
	DepartureTimezone string    `gorm:"column:departure_timezone;type:text" json:"departure_timezone"`
	ArrivalAirport    string    `gorm:"column:arrival_airport;type:text" json:"arrival_airport"`
	ArrivalTimezone   string    `gorm:"column:arrival_timezone;type:text" json:"arrival_timezone"`
	ArrivalTerminal   string    `gorm:"column:arrival_terminal;type:text" json:"arrival_terminal"`
	AirlineName       string    `gorm:"column:airline_name;type:text" json:"airline_name"`
	FlightNumber      string    `gorm:"column:flight_number;type:text" json:"flight_number"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// FromRecord builds a row from a transformed record.
func FromRecord(r models.Record) FlightRow {
	return FlightRow{
		FlightDate:        utils.ToText(r[models.FlightDate]),
		FlightStatus:      utils.ToText(r[models.FlightStatus]),
		DepartureAirport:  utils.ToText(r[models.DepartureAirport]),
		DepartureTimezone: utils.ToText(r[models.DepartureTimezone]),
		ArrivalAirport:    utils.ToText(r[models.ArrivalAirport]),
		ArrivalTimezone:   utils.ToText(r[models.ArrivalTimezone]),
		ArrivalTerminal:   utils.ToText(r[models.ArrivalTerminal]),
		AirlineName:       utils.ToText(r[models.AirlineName]),
		FlightNumber:      utils.ToText(r[models.FlightNumber]),
	}
}

// Store is the gorm-backed destination table.
type Store struct {
	db        *gorm.DB
	table     string
	chunkSize int
	log       logger.Logger
}

func New(db *gorm.DB, table string, chunkSize int, log logger.Logger) *Store {
	if chunkSize < 1 {
		chunkSize = 100
	}
	return &Store{db: db, table: table, chunkSize: chunkSize, log: log}
}

func (s *Store) EnsureTable(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.table).AutoMigrate(&FlightRow{}); err != nil {
		return fmt.Errorf("gorm: migrate %s: %w", s.table, err)
	}
	return nil
}

// ReplaceAll drops and recreates the table, then inserts b in batches. The
// recreated table restarts its ids at 1.
func (s *Store) ReplaceAll(ctx context.Context, b *models.Batch) (int64, error) {
	rows := make([]FlightRow, 0, b.Len())
	for _, r := range b.Records {
		rows = append(rows, FromRecord(r))
	}

	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(s.table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
		if err := tx.Table(s.table).AutoMigrate(&FlightRow{}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		res := tx.Table(s.table).CreateInBatches(rows, s.chunkSize)
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		total = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("gorm: replace %s: %w", s.table, err)
	}
	s.log.Debug("Replaced table contents", "table", s.table, "rows", total)
	return total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(s.table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("gorm: count: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
