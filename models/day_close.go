package models

import (
	"github.com/shopspring/decimal"
)

// DayClosePreview is everything a reviewer needs before authorizing GL
// posting for one store-date.
type DayClosePreview struct {
	InstantDay      *InstantDay
	DrawDay         *DrawDay
	TotalCommission decimal.Decimal
	Anomalies       []*Anomaly
	Warnings        []string
	OpenHighCount   int
	CanPost         bool
}
