package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
)

const packColumns = `id, pack_code, game_id, store_id, box_label, start_ticket,
	current_ticket, status, activated_at, sold_out_at, created_at, updated_at`

// PackRepository implements the service.PackRepository interface
type PackRepository struct {
	q queryable
}

// NewPackRepository creates a new pack repository
func NewPackRepository(db *database.DB) *PackRepository {
	return &PackRepository{q: db.Pool}
}

// newPackRepositoryWithTx creates a new pack repository with a transaction
func newPackRepositoryWithTx(tx queryable) *PackRepository {
	return &PackRepository{q: tx}
}

// Create registers a new pack
func (r *PackRepository) Create(ctx context.Context, pack *models.Pack) error {
	query := `
		INSERT INTO packs (pack_code, game_id, store_id, box_label, start_ticket, current_ticket, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		pack.PackCode,
		pack.GameID,
		pack.StoreID,
		pack.BoxLabel,
		pack.StartTicket,
		pack.CurrentTicket,
		pack.Status,
	).Scan(&pack.ID, &pack.CreatedAt, &pack.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create pack %s: %w", pack.PackCode, err)
	}

	return nil
}

// GetByID retrieves a pack by its ID
func (r *PackRepository) GetByID(ctx context.Context, id int64) (*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByCode retrieves a pack by its human pack code within a store
func (r *PackRepository) GetByCode(ctx context.Context, storeID int64, packCode string) (*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE store_id = $1 AND pack_code = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, storeID, packCode))
}

// GetForUpdate retrieves a pack by ID holding a row lock until the
// transaction ends. Concurrent ingestion for the same pack queues here.
func (r *PackRepository) GetForUpdate(ctx context.Context, id int64) (*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetActiveInBox returns active, not sold-out packs occupying the given
// box slot, excluding the given pack ID
func (r *PackRepository) GetActiveInBox(ctx context.Context, storeID int64, boxLabel string, excludePackID int64) ([]*models.Pack, error) {
	query := `
		SELECT ` + packColumns + `
		FROM packs
		WHERE store_id = $1 AND box_label = $2 AND id != $3
		  AND status = 'active' AND sold_out_at IS NULL
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, storeID, boxLabel, excludePackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active packs in box %s: %w", boxLabel, err)
	}
	defer rows.Close()

	var packs []*models.Pack
	for rows.Next() {
		pack, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate packs: %w", err)
	}

	return packs, nil
}

// ApplyReading updates the pack's current ticket and, when soldOut,
// flips its status and stamps sold_out_at
func (r *PackRepository) ApplyReading(ctx context.Context, packID int64, ticketNumber int, soldOut bool) error {
	query := `
		UPDATE packs
		SET current_ticket = $2,
		    status = CASE WHEN $3 THEN 'sold_out' ELSE status END,
		    sold_out_at = CASE WHEN $3 AND sold_out_at IS NULL THEN CURRENT_TIMESTAMP ELSE sold_out_at END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, packID, ticketNumber, soldOut)
	if err != nil {
		return fmt.Errorf("failed to apply reading to pack %d: %w", packID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pack %d not found", packID)
	}

	return nil
}

// Activate transitions a pack into a box slot as the live pack
func (r *PackRepository) Activate(ctx context.Context, packID int64, boxLabel string) error {
	query := `
		UPDATE packs
		SET status = 'active',
		    box_label = $2,
		    activated_at = COALESCE(activated_at, CURRENT_TIMESTAMP),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, packID, boxLabel)
	if err != nil {
		return fmt.Errorf("failed to activate pack %d: %w", packID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pack %d not found", packID)
	}

	return nil
}

func (r *PackRepository) scanOne(row pgx.Row) (*models.Pack, error) {
	pack, err := scanPack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	return pack, nil
}

func (r *PackRepository) scanRow(rows pgx.Rows) (*models.Pack, error) {
	pack, err := scanPack(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pack: %w", err)
	}
	return pack, nil
}

func scanPack(row pgx.Row) (*models.Pack, error) {
	var pack models.Pack
	err := row.Scan(
		&pack.ID,
		&pack.PackCode,
		&pack.GameID,
		&pack.StoreID,
		&pack.BoxLabel,
		&pack.StartTicket,
		&pack.CurrentTicket,
		&pack.Status,
		&pack.ActivatedAt,
		&pack.SoldOutAt,
		&pack.CreatedAt,
		&pack.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pack, nil
}
