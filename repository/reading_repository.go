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

// ReadingRepository implements the service.ReadingRepository interface.
// The reading log is append-only: there is deliberately no update or
// delete here.
type ReadingRepository struct {
	q queryable
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *database.DB) *ReadingRepository {
	return &ReadingRepository{q: db.Pool}
}

// newReadingRepositoryWithTx creates a new reading repository with a transaction
func newReadingRepositoryWithTx(tx queryable) *ReadingRepository {
	return &ReadingRepository{q: tx}
}

// Create appends a new reading
func (r *ReadingRepository) Create(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (store_id, pack_id, box_label, ticket_number, reading_ts, user_id, source, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		reading.StoreID,
		reading.PackID,
		reading.BoxLabel,
		reading.TicketNumber,
		reading.ReadingTS,
		reading.UserID,
		reading.Source,
		reading.Note,
	).Scan(&reading.ID, &reading.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create reading for pack %d: %w", reading.PackID, err)
	}

	return nil
}

// GetLastBefore returns the pack's most recent reading strictly before
// the given timestamp
func (r *ReadingRepository) GetLastBefore(ctx context.Context, packID int64, before time.Time) (*models.Reading, error) {
	query := `
		SELECT id, store_id, pack_id, box_label, ticket_number, reading_ts, user_id, source, note, created_at
		FROM readings
		WHERE pack_id = $1 AND reading_ts < $2
		ORDER BY reading_ts DESC
		LIMIT 1
	`

	reading, err := scanReading(r.q.QueryRow(ctx, query, packID, before))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous reading for pack %d: %w", packID, err)
	}

	return reading, nil
}

// GetRecentForPack returns up to limit readings ordered by reading_ts descending
func (r *ReadingRepository) GetRecentForPack(ctx context.Context, packID int64, limit int) ([]*models.Reading, error) {
	query := `
		SELECT id, store_id, pack_id, box_label, ticket_number, reading_ts, user_id, source, note, created_at
		FROM readings
		WHERE pack_id = $1
		ORDER BY reading_ts DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, packID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent readings for pack %d: %w", packID, err)
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}

// ListForDay returns all readings for a store on a date joined to pack
// and game, each with the immediately-preceding ticket number for its
// pack. The LAG window is partitioned per pack and ordered by
// reading_ts, so the lookback never crosses pack boundaries; it may
// reach before the day's start, which is what makes the first reading
// of the day count sales since the previous day's last reading.
func (r *ReadingRepository) ListForDay(ctx context.Context, storeID int64, date time.Time) ([]*models.DayReading, error) {
	query := `
		SELECT id, store_id, pack_id, box_label, ticket_number, reading_ts, user_id, source, note, created_at,
		       prev_ticket, game_id, game_code, ticket_price, commission_rate
		FROM (
			SELECT r.id, r.store_id, r.pack_id, r.box_label, r.ticket_number, r.reading_ts,
			       r.user_id, r.source, r.note, r.created_at,
			       LAG(r.ticket_number) OVER (PARTITION BY r.pack_id ORDER BY r.reading_ts) AS prev_ticket,
			       g.id AS game_id, g.game_code, g.ticket_price, g.commission_rate
			FROM readings r
			JOIN packs p ON p.id = r.pack_id
			JOIN games g ON g.id = p.game_id
			WHERE r.store_id = $1
			  AND r.reading_ts < $3
		) windowed
		WHERE reading_ts >= $2
		ORDER BY reading_ts
	`

	start := date.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 1)

	rows, err := r.q.Query(ctx, query, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings for store %d on %s: %w", storeID, start.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var result []*models.DayReading
	for rows.Next() {
		var dr models.DayReading
		err := rows.Scan(
			&dr.ID,
			&dr.StoreID,
			&dr.PackID,
			&dr.BoxLabel,
			&dr.TicketNumber,
			&dr.ReadingTS,
			&dr.UserID,
			&dr.Source,
			&dr.Note,
			&dr.CreatedAt,
			&dr.PrevTicket,
			&dr.GameID,
			&dr.GameCode,
			&dr.TicketPrice,
			&dr.CommissionRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day reading: %w", err)
		}
		result = append(result, &dr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate day readings: %w", err)
	}

	return result, nil
}

func scanReading(row pgx.Row) (*models.Reading, error) {
	var reading models.Reading
	err := row.Scan(
		&reading.ID,
		&reading.StoreID,
		&reading.PackID,
		&reading.BoxLabel,
		&reading.TicketNumber,
		&reading.ReadingTS,
		&reading.UserID,
		&reading.Source,
		&reading.Note,
		&reading.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
