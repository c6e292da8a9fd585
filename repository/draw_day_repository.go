package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
)

// DrawDayRepository implements the service.DrawDayRepository interface.
// Rows are written by the external draw-game system; this side only
// reads them.
type DrawDayRepository struct {
	q queryable
}

// NewDrawDayRepository creates a new draw day repository
func NewDrawDayRepository(db *database.DB) *DrawDayRepository {
	return &DrawDayRepository{q: db.Pool}
}

// newDrawDayRepositoryWithTx creates a new draw day repository with a transaction
func newDrawDayRepositoryWithTx(tx queryable) *DrawDayRepository {
	return &DrawDayRepository{q: tx}
}

// Get returns the draw-day figures for a store-date, nil when the
// external system has not supplied them yet
func (r *DrawDayRepository) Get(ctx context.Context, storeID int64, date time.Time) (*models.DrawDay, error) {
	query := `
		SELECT id, store_id, date, total_sales, total_cashed, adjustments, net_sale, commission_amount
		FROM draw_days
		WHERE store_id = $1 AND date = $2
	`

	var day models.DrawDay
	err := r.q.QueryRow(ctx, query, storeID, date).Scan(
		&day.ID,
		&day.StoreID,
		&day.Date,
		&day.TotalSales,
		&day.TotalCashed,
		&day.Adjustments,
		&day.NetSale,
		&day.CommissionAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draw day: %w", err)
	}

	return &day, nil
}
