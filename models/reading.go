package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReadingSource represents how a reading entered the system
type ReadingSource string

const (
	ReadingSourceManual ReadingSource = "manual"
	ReadingSourceImport ReadingSource = "import"
)

// Reading represents a timestamped observation of a pack's current ticket index.
// Readings are append-only: they are never mutated or deleted.
type Reading struct {
	ID           int64         `db:"id"`
	StoreID      int64         `db:"store_id"`
	PackID       int64         `db:"pack_id"`
	BoxLabel     string        `db:"box_label"`
	TicketNumber int           `db:"ticket_number"`
	ReadingTS    time.Time     `db:"reading_ts"`
	UserID       int64         `db:"user_id"`
	Source       ReadingSource `db:"source"`
	Note         string        `db:"note"`
	CreatedAt    time.Time     `db:"created_at"`
}

// ReadingResult is the outcome of ingesting a single reading
type ReadingResult struct {
	Reading   *Reading
	SoldDelta int
	Anomalies []*Anomaly
}

// DayReading is a reading joined to its pack and game with the
// immediately-preceding ticket number for the same pack, as produced
// by the per-pack lookback query used for day aggregation.
type DayReading struct {
	Reading
	PrevTicket     *int
	GameID         int64
	GameCode       string
	TicketPrice    decimal.Decimal
	CommissionRate decimal.Decimal
}
