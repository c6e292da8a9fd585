package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game represents a scratch-off game definition. Reference data owned by
// the lottery operator; packs of a game share its price and pack size.
type Game struct {
	ID             int64           `db:"id"`
	GameCode       string          `db:"game_code"`
	Name           string          `db:"name"`
	TicketPrice    decimal.Decimal `db:"ticket_price"`
	TicketsPerPack int             `db:"tickets_per_pack"`
	CommissionRate decimal.Decimal `db:"commission_rate"`
	CreatedAt      time.Time       `db:"created_at"`
}

// LastTicketIndex returns the highest sellable ticket index for this game's packs
func (g *Game) LastTicketIndex() int {
	return g.TicketsPerPack - 1
}

// Store represents a retail location selling lottery products
type Store struct {
	ID        int64     `db:"id"`
	StoreCode string    `db:"store_code"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
