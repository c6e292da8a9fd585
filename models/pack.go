package models

import (
	"time"
)

// PackStatus represents the lifecycle state of a pack
type PackStatus string

const (
	PackStatusInactive PackStatus = "inactive"
	PackStatusActive   PackStatus = "active"
	PackStatusSoldOut  PackStatus = "sold_out"
)

// Pack represents a physical bundle of scratch-off tickets assigned to a dispenser box
type Pack struct {
	ID            int64      `db:"id"`
	PackCode      string     `db:"pack_code"`
	GameID        int64      `db:"game_id"`
	StoreID       int64      `db:"store_id"`
	BoxLabel      string     `db:"box_label"`
	StartTicket   int        `db:"start_ticket"`
	CurrentTicket int        `db:"current_ticket"`
	Status        PackStatus `db:"status"`
	ActivatedAt   *time.Time `db:"activated_at"`
	SoldOutAt     *time.Time `db:"sold_out_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// IsActive checks if the pack is currently live in its box
func (p *Pack) IsActive() bool {
	return p.Status == PackStatusActive
}

// IsSoldOut checks if the pack has reached its last sellable ticket
func (p *Pack) IsSoldOut() bool {
	return p.Status == PackStatusSoldOut
}
