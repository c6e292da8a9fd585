package models

import (
	"fmt"
	"time"
)

// AnomalyType represents the kind of irregularity detected in a reading sequence
type AnomalyType string

const (
	AnomalyTypeStall      AnomalyType = "stall"
	AnomalyTypeRegression AnomalyType = "regression"
	AnomalyTypeSwap       AnomalyType = "swap"
	AnomalyTypeOutlier    AnomalyType = "outlier"
)

// AnomalySeverity represents how urgently an anomaly needs review
type AnomalySeverity string

const (
	AnomalySeverityLow    AnomalySeverity = "low"
	AnomalySeverityMedium AnomalySeverity = "medium"
	AnomalySeverityHigh   AnomalySeverity = "high"
)

// SeverityRank maps severities to an explicit ordering. Listing must use
// this map, never lexical ordering, which would sort medium above low
// incorrectly relative to high.
var SeverityRank = map[AnomalySeverity]int{
	AnomalySeverityHigh:   2,
	AnomalySeverityMedium: 1,
	AnomalySeverityLow:    0,
}

// AnomalyStatus represents the review lifecycle state of an anomaly
type AnomalyStatus string

const (
	AnomalyStatusOpen         AnomalyStatus = "open"
	AnomalyStatusAcknowledged AnomalyStatus = "acknowledged"
	AnomalyStatusResolved     AnomalyStatus = "resolved"
)

// Anomaly represents a detected irregularity requiring human review before day close
type Anomaly struct {
	ID           int64           `db:"id"`
	StoreID      int64           `db:"store_id"`
	PackID       int64           `db:"pack_id"`
	BoxLabel     string          `db:"box_label"`
	ReadingID    *int64          `db:"reading_id"`
	Date         time.Time       `db:"date"`
	Type         AnomalyType     `db:"type"`
	Severity     AnomalySeverity `db:"severity"`
	Detail       string          `db:"detail"`
	Status       AnomalyStatus   `db:"status"`
	ResolvedBy   *int64          `db:"resolved_by"`
	ResolvedNote *string         `db:"resolved_note"`
	ResolvedTS   *time.Time      `db:"resolved_ts"`
	CreatedAt    time.Time       `db:"created_at"`
}

// IsOpen checks if the anomaly still needs review
func (a *Anomaly) IsOpen() bool {
	return a.Status == AnomalyStatusOpen
}

// Finding is a single detector result for one reading. The structured
// fields are the source of truth; Detail derives prose from them.
type Finding struct {
	Type       AnomalyType
	Severity   AnomalySeverity
	PrevTicket int
	NewTicket  int
	AvgDelta   float64 // populated for outlier findings only
}

// Detail renders a human-readable description of the finding
func (f Finding) Detail() string {
	switch f.Type {
	case AnomalyTypeStall:
		return fmt.Sprintf("ticket index unchanged at %d since previous reading", f.NewTicket)
	case AnomalyTypeRegression:
		return fmt.Sprintf("ticket index decreased from %d to %d", f.PrevTicket, f.NewTicket)
	case AnomalyTypeSwap:
		return "another active pack occupies the same box slot"
	case AnomalyTypeOutlier:
		return fmt.Sprintf("sold delta %d exceeds twice the recent average of %.1f", f.NewTicket-f.PrevTicket, f.AvgDelta)
	}
	return string(f.Type)
}

// AnomalyFilter narrows anomaly listing
type AnomalyFilter struct {
	StoreID  int64
	Status   *AnomalyStatus
	Type     *AnomalyType
	Severity *AnomalySeverity
	DateFrom *time.Time
	DateTo   *time.Time
}
