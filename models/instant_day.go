package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstantDay is the daily scratch-off sales aggregate for one store-date.
// Overwritten on each recompute until locked; immutable afterwards.
type InstantDay struct {
	ID                int64           `db:"id"`
	StoreID           int64           `db:"store_id"`
	Date              time.Time       `db:"date"`
	InstantFaceSales  decimal.Decimal `db:"instant_face_sales"`
	InstantPayouts    decimal.Decimal `db:"instant_payouts"`
	InstantReturns    decimal.Decimal `db:"instant_returns"`
	InstantNetSaleOps decimal.Decimal `db:"instant_net_sale_ops"`
	InstantCommission decimal.Decimal `db:"instant_commission"`
	IsLocked          bool            `db:"is_locked"`
	LockedBy          *int64          `db:"locked_by"`
	LockedAt          *time.Time      `db:"locked_at"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`

	// Per-game breakdown, owned 1:1 with the aggregate row
	Games []*InstantDayGame
}

// InstantDayGame is the per-game slice of a day aggregate
type InstantDayGame struct {
	ID           int64           `db:"id"`
	InstantDayID int64           `db:"instant_day_id"`
	GameID       int64           `db:"game_id"`
	GameCode     string          `db:"game_code"`
	TicketsSold  int             `db:"tickets_sold"`
	Sales        decimal.Decimal `db:"sales"`
	Commission   decimal.Decimal `db:"commission"`
}

// DrawDay is the daily aggregate for drawn/online games for one store-date,
// computed entirely outside this system and read here as data.
type DrawDay struct {
	ID               int64           `db:"id"`
	StoreID          int64           `db:"store_id"`
	Date             time.Time       `db:"date"`
	TotalSales       decimal.Decimal `db:"total_sales"`
	TotalCashed      decimal.Decimal `db:"total_cashed"`
	Adjustments      decimal.Decimal `db:"adjustments"`
	NetSale          decimal.Decimal `db:"net_sale"`
	CommissionAmount decimal.Decimal `db:"commission_amount"`
}
