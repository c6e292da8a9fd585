package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
)

// StorePolicyRepository implements the service.StorePolicyRepository interface
type StorePolicyRepository struct {
	q queryable
}

// NewStorePolicyRepository creates a new store policy repository
func NewStorePolicyRepository(db *database.DB) *StorePolicyRepository {
	return &StorePolicyRepository{q: db.Pool}
}

// newStorePolicyRepositoryWithTx creates a new store policy repository with a transaction
func newStorePolicyRepositoryWithTx(tx queryable) *StorePolicyRepository {
	return &StorePolicyRepository{q: tx}
}

// GetByStore returns the store's policy override, nil when the global
// default applies
func (r *StorePolicyRepository) GetByStore(ctx context.Context, storeID int64) (*models.StorePolicy, error) {
	query := `
		SELECT store_id, block_gl_posting_on_high_severity, regression_severity, created_at, updated_at
		FROM store_policies
		WHERE store_id = $1
	`

	var policy models.StorePolicy
	err := r.q.QueryRow(ctx, query, storeID).Scan(
		&policy.StoreID,
		&policy.BlockGLPostingOnHighSeverity,
		&policy.RegressionSeverity,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store policy: %w", err)
	}

	return &policy, nil
}

// Upsert creates or replaces a store's policy override
func (r *StorePolicyRepository) Upsert(ctx context.Context, policy *models.StorePolicy) error {
	query := `
		INSERT INTO store_policies (store_id, block_gl_posting_on_high_severity, regression_severity)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_id)
		DO UPDATE SET
			block_gl_posting_on_high_severity = EXCLUDED.block_gl_posting_on_high_severity,
			regression_severity = EXCLUDED.regression_severity,
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		policy.StoreID,
		policy.BlockGLPostingOnHighSeverity,
		policy.RegressionSeverity,
	).Scan(&policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert store policy for store %d: %w", policy.StoreID, err)
	}

	return nil
}
