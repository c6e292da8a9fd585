package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scratchtrack/database"
	"scratchtrack/events"
	"scratchtrack/service"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// repositories run standalone or inside a unit of work
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	packRepo         service.PackRepository
	readingRepo      service.ReadingRepository
	anomalyRepo      service.AnomalyRepository
	gameRepo         service.GameRepository
	storeRepo        service.StoreRepository
	instantDayRepo   service.InstantDayRepository
	drawDayRepo      service.DrawDayRepository
	storePolicyRepo  service.StorePolicyRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.packRepo = newPackRepositoryWithTx(tx)
	u.readingRepo = newReadingRepositoryWithTx(tx)
	u.anomalyRepo = newAnomalyRepositoryWithTx(tx)
	u.gameRepo = newGameRepositoryWithTx(tx)
	u.storeRepo = newStoreRepositoryWithTx(tx)
	u.instantDayRepo = newInstantDayRepositoryWithTx(tx)
	u.drawDayRepo = newDrawDayRepositoryWithTx(tx)
	u.storePolicyRepo = newStorePolicyRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// PackRepository returns the pack repository for this unit of work
func (u *unitOfWork) PackRepository() service.PackRepository {
	if u.packRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.packRepo
}

// ReadingRepository returns the reading repository for this unit of work
func (u *unitOfWork) ReadingRepository() service.ReadingRepository {
	if u.readingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.readingRepo
}

// AnomalyRepository returns the anomaly repository for this unit of work
func (u *unitOfWork) AnomalyRepository() service.AnomalyRepository {
	if u.anomalyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.anomalyRepo
}

// GameRepository returns the game repository for this unit of work
func (u *unitOfWork) GameRepository() service.GameRepository {
	if u.gameRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameRepo
}

// StoreRepository returns the store repository for this unit of work
func (u *unitOfWork) StoreRepository() service.StoreRepository {
	if u.storeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.storeRepo
}

// InstantDayRepository returns the instant day repository for this unit of work
func (u *unitOfWork) InstantDayRepository() service.InstantDayRepository {
	if u.instantDayRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.instantDayRepo
}

// DrawDayRepository returns the draw day repository for this unit of work
func (u *unitOfWork) DrawDayRepository() service.DrawDayRepository {
	if u.drawDayRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawDayRepo
}

// StorePolicyRepository returns the store policy repository for this unit of work
func (u *unitOfWork) StorePolicyRepository() service.StorePolicyRepository {
	if u.storePolicyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.storePolicyRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
