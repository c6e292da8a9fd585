package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
)

// StoreRepository implements the service.StoreRepository interface
type StoreRepository struct {
	q queryable
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *database.DB) *StoreRepository {
	return &StoreRepository{q: db.Pool}
}

// newStoreRepositoryWithTx creates a new store repository with a transaction
func newStoreRepositoryWithTx(tx queryable) *StoreRepository {
	return &StoreRepository{q: tx}
}

// Create registers a new store
func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	query := `
		INSERT INTO stores (store_code, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, store.StoreCode, store.Name).Scan(&store.ID, &store.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create store %s: %w", store.StoreCode, err)
	}

	return nil
}

// GetByID retrieves a store by its ID
func (r *StoreRepository) GetByID(ctx context.Context, id int64) (*models.Store, error) {
	query := `SELECT id, store_code, name, created_at FROM stores WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a store by its human code
func (r *StoreRepository) GetByCode(ctx context.Context, storeCode string) (*models.Store, error) {
	query := `SELECT id, store_code, name, created_at FROM stores WHERE store_code = $1`
	return r.getOne(ctx, query, storeCode)
}

func (r *StoreRepository) getOne(ctx context.Context, query string, arg any) (*models.Store, error) {
	var store models.Store
	err := r.q.QueryRow(ctx, query, arg).Scan(&store.ID, &store.StoreCode, &store.Name, &store.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}
