package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
	"scratchtrack/service"
)

// InstantDayRepository implements the service.InstantDayRepository interface
type InstantDayRepository struct {
	q queryable
}

// NewInstantDayRepository creates a new instant day repository
func NewInstantDayRepository(db *database.DB) *InstantDayRepository {
	return &InstantDayRepository{q: db.Pool}
}

// newInstantDayRepositoryWithTx creates a new instant day repository with a transaction
func newInstantDayRepositoryWithTx(tx queryable) *InstantDayRepository {
	return &InstantDayRepository{q: tx}
}

// Get retrieves the aggregate with its per-game breakdown
func (r *InstantDayRepository) Get(ctx context.Context, storeID int64, date time.Time) (*models.InstantDay, error) {
	query := `
		SELECT id, store_id, date, instant_face_sales, instant_payouts, instant_returns,
		       instant_net_sale_ops, instant_commission, is_locked, locked_by, locked_at,
		       created_at, updated_at
		FROM instant_days
		WHERE store_id = $1 AND date = $2
	`

	var day models.InstantDay
	err := r.q.QueryRow(ctx, query, storeID, date).Scan(
		&day.ID,
		&day.StoreID,
		&day.Date,
		&day.InstantFaceSales,
		&day.InstantPayouts,
		&day.InstantReturns,
		&day.InstantNetSaleOps,
		&day.InstantCommission,
		&day.IsLocked,
		&day.LockedBy,
		&day.LockedAt,
		&day.CreatedAt,
		&day.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get instant day: %w", err)
	}

	games, err := r.getGames(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	day.Games = games

	return &day, nil
}

// CreateOrUpdate upserts the aggregate row and replaces its breakdown
// rows. The caller's transaction makes the delete-then-insert atomic: a
// partial failure can never commit an aggregate with a stale or missing
// breakdown. Fails with DayLockedError once the day is locked.
func (r *InstantDayRepository) CreateOrUpdate(ctx context.Context, day *models.InstantDay) error {
	var locked bool
	err := r.q.QueryRow(ctx,
		`SELECT is_locked FROM instant_days WHERE store_id = $1 AND date = $2`,
		day.StoreID, day.Date,
	).Scan(&locked)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check instant day lock: %w", err)
	}
	if locked {
		return &service.DayLockedError{StoreID: day.StoreID, Date: day.Date}
	}

	upsert := `
		INSERT INTO instant_days
			(store_id, date, instant_face_sales, instant_payouts, instant_returns,
			 instant_net_sale_ops, instant_commission)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (store_id, date)
		DO UPDATE SET
			instant_face_sales = EXCLUDED.instant_face_sales,
			instant_payouts = EXCLUDED.instant_payouts,
			instant_returns = EXCLUDED.instant_returns,
			instant_net_sale_ops = EXCLUDED.instant_net_sale_ops,
			instant_commission = EXCLUDED.instant_commission,
			updated_at = CURRENT_TIMESTAMP
		WHERE instant_days.is_locked = FALSE
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, upsert,
		day.StoreID,
		day.Date,
		day.InstantFaceSales,
		day.InstantPayouts,
		day.InstantReturns,
		day.InstantNetSaleOps,
		day.InstantCommission,
	).Scan(&day.ID, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		// The conditional upsert returns no row when the day was locked
		// between the check above and the write.
		if errors.Is(err, pgx.ErrNoRows) {
			return &service.DayLockedError{StoreID: day.StoreID, Date: day.Date}
		}
		return fmt.Errorf("failed to upsert instant day: %w", err)
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM instant_day_games WHERE instant_day_id = $1`, day.ID); err != nil {
		return fmt.Errorf("failed to clear instant day breakdown: %w", err)
	}

	for _, game := range day.Games {
		err := r.q.QueryRow(ctx, `
			INSERT INTO instant_day_games (instant_day_id, game_id, tickets_sold, sales, commission)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, day.ID, game.GameID, game.TicketsSold, game.Sales, game.Commission).Scan(&game.ID)
		if err != nil {
			return fmt.Errorf("failed to insert breakdown for game %d: %w", game.GameID, err)
		}
		game.InstantDayID = day.ID
	}

	return nil
}

// Lock freezes the store-date aggregate. A missing aggregate row is
// created first so a day with no computed totals can still be closed.
func (r *InstantDayRepository) Lock(ctx context.Context, storeID int64, date time.Time, lockedBy int64) error {
	query := `
		INSERT INTO instant_days (store_id, date, is_locked, locked_by, locked_at)
		VALUES ($1, $2, TRUE, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (store_id, date)
		DO UPDATE SET
			is_locked = TRUE,
			locked_by = EXCLUDED.locked_by,
			locked_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE instant_days.is_locked = FALSE
	`

	tag, err := r.q.Exec(ctx, query, storeID, date, lockedBy)
	if err != nil {
		return fmt.Errorf("failed to lock instant day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &service.DayLockedError{StoreID: storeID, Date: date}
	}

	return nil
}

func (r *InstantDayRepository) getGames(ctx context.Context, instantDayID int64) ([]*models.InstantDayGame, error) {
	query := `
		SELECT idg.id, idg.instant_day_id, idg.game_id, g.game_code, idg.tickets_sold, idg.sales, idg.commission
		FROM instant_day_games idg
		JOIN games g ON g.id = idg.game_id
		WHERE idg.instant_day_id = $1
		ORDER BY g.game_code
	`

	rows, err := r.q.Query(ctx, query, instantDayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instant day breakdown: %w", err)
	}
	defer rows.Close()

	var games []*models.InstantDayGame
	for rows.Next() {
		var game models.InstantDayGame
		err := rows.Scan(
			&game.ID,
			&game.InstantDayID,
			&game.GameID,
			&game.GameCode,
			&game.TicketsSold,
			&game.Sales,
			&game.Commission,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instant day breakdown: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instant day breakdown: %w", err)
	}

	return games, nil
}
