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

const anomalyColumns = `id, store_id, pack_id, box_label, reading_id, date, type, severity,
	detail, status, resolved_by, resolved_note, resolved_ts, created_at`

// AnomalyRepository implements the service.AnomalyRepository interface
type AnomalyRepository struct {
	q queryable
}

// NewAnomalyRepository creates a new anomaly repository
func NewAnomalyRepository(db *database.DB) *AnomalyRepository {
	return &AnomalyRepository{q: db.Pool}
}

// newAnomalyRepositoryWithTx creates a new anomaly repository with a transaction
func newAnomalyRepositoryWithTx(tx queryable) *AnomalyRepository {
	return &AnomalyRepository{q: tx}
}

// Create persists a new anomaly
func (r *AnomalyRepository) Create(ctx context.Context, anomaly *models.Anomaly) error {
	query := `
		INSERT INTO anomalies (store_id, pack_id, box_label, reading_id, date, type, severity, detail, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		anomaly.StoreID,
		anomaly.PackID,
		anomaly.BoxLabel,
		anomaly.ReadingID,
		anomaly.Date,
		anomaly.Type,
		anomaly.Severity,
		anomaly.Detail,
		anomaly.Status,
	).Scan(&anomaly.ID, &anomaly.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create anomaly for pack %d: %w", anomaly.PackID, err)
	}

	return nil
}

// GetByID retrieves an anomaly by its ID
func (r *AnomalyRepository) GetByID(ctx context.Context, id int64) (*models.Anomaly, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE id = $1`

	anomaly, err := scanAnomaly(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get anomaly %d: %w", id, err)
	}

	return anomaly, nil
}

// Update persists lifecycle changes
func (r *AnomalyRepository) Update(ctx context.Context, anomaly *models.Anomaly) error {
	query := `
		UPDATE anomalies
		SET status = $2, resolved_by = $3, resolved_note = $4, resolved_ts = $5
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		anomaly.ID,
		anomaly.Status,
		anomaly.ResolvedBy,
		anomaly.ResolvedNote,
		anomaly.ResolvedTS,
	)
	if err != nil {
		return fmt.Errorf("failed to update anomaly %d: %w", anomaly.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("anomaly %d not found", anomaly.ID)
	}

	return nil
}

// List returns anomalies matching the filter. Ordering uses an explicit
// severity rank so high sorts above medium above low; the enum values
// would misorder lexically.
func (r *AnomalyRepository) List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE store_id = $1`
	args := []any{filter.StoreID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += `
		ORDER BY date DESC,
		         CASE severity WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC,
		         created_at DESC
	`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies for store %d: %w", filter.StoreID, err)
	}
	defer rows.Close()

	var anomalies []*models.Anomaly
	for rows.Next() {
		anomaly, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		anomalies = append(anomalies, anomaly)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}

	return anomalies, nil
}

// CountOpenHighSeverity counts open high-severity anomalies for a store,
// optionally restricted to one date
func (r *AnomalyRepository) CountOpenHighSeverity(ctx context.Context, storeID int64, date *time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM anomalies
		WHERE store_id = $1 AND status = 'open' AND severity = 'high'
	`
	args := []any{storeID}

	if date != nil {
		args = append(args, *date)
		query += fmt.Sprintf(" AND date = $%d", len(args))
	}

	var count int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open high-severity anomalies for store %d: %w", storeID, err)
	}

	return count, nil
}

func scanAnomaly(row pgx.Row) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	err := row.Scan(
		&anomaly.ID,
		&anomaly.StoreID,
		&anomaly.PackID,
		&anomaly.BoxLabel,
		&anomaly.ReadingID,
		&anomaly.Date,
		&anomaly.Type,
		&anomaly.Severity,
		&anomaly.Detail,
		&anomaly.Status,
		&anomaly.ResolvedBy,
		&anomaly.ResolvedNote,
		&anomaly.ResolvedTS,
		&anomaly.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &anomaly, nil
}
