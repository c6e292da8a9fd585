package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scratchtrack/database"
	"scratchtrack/models"
)

// GameRepository implements the service.GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Create registers a new game definition
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (game_code, name, ticket_price, tickets_per_pack, commission_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		game.GameCode,
		game.Name,
		game.TicketPrice,
		game.TicketsPerPack,
		game.CommissionRate,
	).Scan(&game.ID, &game.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.GameCode, err)
	}

	return nil
}

// GetByID retrieves a game by its ID
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	query := `
		SELECT id, game_code, name, ticket_price, tickets_per_pack, commission_rate, created_at
		FROM games WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a game by its human code
func (r *GameRepository) GetByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	query := `
		SELECT id, game_code, name, ticket_price, tickets_per_pack, commission_rate, created_at
		FROM games WHERE game_code = $1
	`
	return r.getOne(ctx, query, gameCode)
}

func (r *GameRepository) getOne(ctx context.Context, query string, arg any) (*models.Game, error) {
	var game models.Game
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&game.ID,
		&game.GameCode,
		&game.Name,
		&game.TicketPrice,
		&game.TicketsPerPack,
		&game.CommissionRate,
		&game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &game, nil
}
