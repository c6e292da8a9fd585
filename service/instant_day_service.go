package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"scratchtrack/events"
	"scratchtrack/models"
)

type instantDayService struct {
	uowFactory UnitOfWorkFactory
}

// NewInstantDayService creates a new day aggregation service
func NewInstantDayService(uowFactory UnitOfWorkFactory) InstantDayService {
	return &instantDayService{uowFactory: uowFactory}
}

// ComputeDay computes total scratch-off tickets sold and commission per
// game for a store-date from the reading log. Read-only and idempotent:
// recomputing against unchanged readings yields identical totals.
func (s *instantDayService) ComputeDay(ctx context.Context, storeID int64, date time.Time) (*models.InstantDay, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	dayReadings, err := uow.ReadingRepository().ListForDay(ctx, storeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings for day: %w", err)
	}

	return buildDay(storeID, date, dayReadings), nil
}

// buildDay folds the day's readings into a per-game aggregate. State is
// local to the call: per-game totals live in a map built here, never in
// the service.
func buildDay(storeID int64, date time.Time, dayReadings []*models.DayReading) *models.InstantDay {
	type gameTotal struct {
		game        *models.InstantDayGame
		ticketPrice decimal.Decimal
		rate        decimal.Decimal
	}
	totals := make(map[int64]*gameTotal)
	var order []int64

	for _, dr := range dayReadings {
		// A pack's first reading ever carries no lookback value and
		// contributes zero: only deltas within the historical sequence
		// count, never the absolute ticket index.
		if dr.PrevTicket == nil {
			continue
		}
		sold := dr.TicketNumber - *dr.PrevTicket
		if sold < 0 {
			sold = 0
		}

		entry, ok := totals[dr.GameID]
		if !ok {
			entry = &gameTotal{
				game: &models.InstantDayGame{
					GameID:   dr.GameID,
					GameCode: dr.GameCode,
				},
				ticketPrice: dr.TicketPrice,
				rate:        dr.CommissionRate,
			}
			totals[dr.GameID] = entry
			order = append(order, dr.GameID)
		}
		entry.game.TicketsSold += sold
	}

	day := &models.InstantDay{
		StoreID:           storeID,
		Date:              NormalizeDate(date),
		InstantFaceSales:  decimal.Zero,
		InstantPayouts:    decimal.Zero,
		InstantReturns:    decimal.Zero,
		InstantCommission: decimal.Zero,
	}

	for _, gameID := range order {
		entry := totals[gameID]
		entry.game.Sales = entry.ticketPrice.Mul(decimal.NewFromInt(int64(entry.game.TicketsSold)))
		entry.game.Commission = entry.game.Sales.Mul(entry.rate)
		day.InstantFaceSales = day.InstantFaceSales.Add(entry.game.Sales)
		day.InstantCommission = day.InstantCommission.Add(entry.game.Commission)
		day.Games = append(day.Games, entry.game)
	}

	// Payouts and returns arrive later from physical cash counts; until
	// then net sale equals face sales.
	day.InstantNetSaleOps = day.InstantFaceSales

	return day
}

// CreateOrUpdate persists a computed aggregate, replacing any unlocked
// prior version for the store-date
func (s *instantDayService) CreateOrUpdate(ctx context.Context, day *models.InstantDay) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.InstantDayRepository().CreateOrUpdate(ctx, day); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LockDay freezes the store-date aggregate; every later write path for
// the store-date must be rejected
func (s *instantDayService) LockDay(ctx context.Context, storeID int64, date time.Time, lockedBy int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.InstantDayRepository().Lock(ctx, storeID, date, lockedBy); err != nil {
		return err
	}

	uow.EventBus().Publish(events.InstantDayLockedEvent{
		StoreID:  storeID,
		Date:     NormalizeDate(date),
		LockedBy: lockedBy,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
