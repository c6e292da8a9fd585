package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scratchtrack/models"
)

func dayReading(gameID int64, gameCode string, price, rate float64, prevTicket *int, ticket int) *models.DayReading {
	dr := &models.DayReading{
		PrevTicket:     prevTicket,
		GameID:         gameID,
		GameCode:       gameCode,
		TicketPrice:    decimal.NewFromFloat(price),
		CommissionRate: decimal.NewFromFloat(rate),
	}
	dr.TicketNumber = ticket
	return dr
}

func TestBuildDay_PerGameTotals(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 18), // 8 sold
		dayReading(10, "G100", 5, 0.06, intPtr(18), 25), // 7 sold
		dayReading(11, "G200", 10, 0.05, intPtr(3), 9),  // 6 sold
	}

	day := buildDay(1, date, readings)

	require.Len(t, day.Games, 2)
	assert.Equal(t, 15, day.Games[0].TicketsSold)
	assert.True(t, day.Games[0].Sales.Equal(decimal.NewFromInt(75)), "G100 sales: %s", day.Games[0].Sales)
	assert.True(t, day.Games[0].Commission.Equal(decimal.NewFromFloat(4.5)), "G100 commission: %s", day.Games[0].Commission)

	assert.Equal(t, 6, day.Games[1].TicketsSold)
	assert.True(t, day.Games[1].Sales.Equal(decimal.NewFromInt(60)))
	assert.True(t, day.Games[1].Commission.Equal(decimal.NewFromInt(3)))

	assert.True(t, day.InstantFaceSales.Equal(decimal.NewFromInt(135)))
	assert.True(t, day.InstantCommission.Equal(decimal.NewFromFloat(7.5)))
	assert.True(t, day.InstantNetSaleOps.Equal(day.InstantFaceSales))
	assert.False(t, day.IsLocked)
}

func TestBuildDay_FirstReadingContributesZero(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, nil, 40), // baseline, no lookback
	}

	day := buildDay(1, date, readings)

	assert.Empty(t, day.Games)
	assert.True(t, day.InstantFaceSales.IsZero())
	assert.True(t, day.InstantCommission.IsZero())
}

func TestBuildDay_RegressedReadingCountsAsZero(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(35), 20), // regression
		dayReading(10, "G100", 5, 0.06, intPtr(20), 24), // 4 sold
	}

	day := buildDay(1, date, readings)

	require.Len(t, day.Games, 1)
	assert.Equal(t, 4, day.Games[0].TicketsSold)
	assert.True(t, day.InstantFaceSales.Equal(decimal.NewFromInt(20)))
}

func TestBuildDay_Idempotent(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 18),
		dayReading(11, "G200", 10, 0.05, intPtr(3), 9),
	}

	first := buildDay(1, date, readings)
	second := buildDay(1, date, readings)

	assert.True(t, first.InstantFaceSales.Equal(second.InstantFaceSales))
	assert.True(t, first.InstantCommission.Equal(second.InstantCommission))
	require.Equal(t, len(first.Games), len(second.Games))
	for i := range first.Games {
		assert.Equal(t, first.Games[i].GameID, second.Games[i].GameID)
		assert.Equal(t, first.Games[i].TicketsSold, second.Games[i].TicketsSold)
	}
}

func TestInstantDayService_ComputeDay(t *testing.T) {
	ctx := context.Background()
	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	readingRepo := new(MockReadingRepository)
	uow.SetRepositories(nil, readingRepo, nil, nil, nil, nil, nil, nil)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	service := NewInstantDayService(factory)
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	readingRepo.On("ListForDay", ctx, int64(1), date).Return([]*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 18),
	}, nil)

	day, err := service.ComputeDay(ctx, 1, date)

	require.NoError(t, err)
	assert.Equal(t, int64(1), day.StoreID)
	assert.Equal(t, date, day.Date)
	require.Len(t, day.Games, 1)
	assert.Equal(t, 8, day.Games[0].TicketsSold)
	readingRepo.AssertExpectations(t)
}

func TestInstantDayService_LockDay_RejectedWhenAlreadyLocked(t *testing.T) {
	ctx := context.Background()
	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	instantDayRepo := new(MockInstantDayRepository)
	uow.SetRepositories(nil, nil, nil, nil, nil, instantDayRepo, nil, nil)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	service := NewInstantDayService(factory)
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lockedErr := &DayLockedError{StoreID: 1, Date: date}
	instantDayRepo.On("Lock", ctx, int64(1), date, int64(42)).Return(lockedErr)

	err := service.LockDay(ctx, 1, date, 42)

	var dayLocked *DayLockedError
	require.ErrorAs(t, err, &dayLocked)
	uow.AssertNotCalled(t, "Commit")
}
