package service

import (
	"fmt"
	"time"
)

// NotFoundError indicates a referenced entity does not exist. Callers can
// distinguish it from transient failures with errors.As.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// ValidationError indicates a request failed input validation before any
// persistence began
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BlockedByAnomalyError indicates GL posting was attempted while open
// high-severity anomalies block the day under the effective policy
type BlockedByAnomalyError struct {
	StoreID       int64
	Date          time.Time
	OpenHighCount int
}

func (e *BlockedByAnomalyError) Error() string {
	return fmt.Sprintf("GL posting blocked for store %d on %s: %d open high-severity anomalies",
		e.StoreID, e.Date.Format("2006-01-02"), e.OpenHighCount)
}

// DayLockedError indicates a write was attempted against a locked
// instant-day aggregate
type DayLockedError struct {
	StoreID int64
	Date    time.Time
}

func (e *DayLockedError) Error() string {
	return fmt.Sprintf("instant day for store %d on %s is locked",
		e.StoreID, e.Date.Format("2006-01-02"))
}
