package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scratchtrack/models"
	"scratchtrack/repository/testutil"
)

type dayCloseMocks struct {
	factory        *MockUnitOfWorkFactory
	uow            *MockUnitOfWork
	readingRepo    *MockReadingRepository
	anomalyRepo    *MockAnomalyRepository
	instantDayRepo *MockInstantDayRepository
	drawDayRepo    *MockDrawDayRepository
	policyRepo     *MockStorePolicyRepository
	ledger         *MockLedgerPoster
}

func newDayCloseMocks(ctx context.Context) *dayCloseMocks {
	m := &dayCloseMocks{
		factory:        new(MockUnitOfWorkFactory),
		uow:            new(MockUnitOfWork),
		readingRepo:    new(MockReadingRepository),
		anomalyRepo:    new(MockAnomalyRepository),
		instantDayRepo: new(MockInstantDayRepository),
		drawDayRepo:    new(MockDrawDayRepository),
		policyRepo:     new(MockStorePolicyRepository),
		ledger:         new(MockLedgerPoster),
	}
	m.uow.SetRepositories(nil, m.readingRepo, m.anomalyRepo, nil, nil, m.instantDayRepo, m.drawDayRepo, m.policyRepo)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil).Maybe()
	m.uow.On("Rollback").Return(nil)
	return m
}

// expectPreview wires the read path PreviewDayClose walks: readings,
// stored aggregate, draw day, open anomalies, blocking count and policy.
func (m *dayCloseMocks) expectPreview(ctx context.Context, storeID int64, day time.Time, readings []*models.DayReading, stored *models.InstantDay, draw *models.DrawDay, anomalies []*models.Anomaly, openHigh int) {
	m.readingRepo.On("ListForDay", ctx, storeID, day).Return(readings, nil)
	if stored == nil {
		m.instantDayRepo.On("Get", ctx, storeID, day).Return(nil, nil)
	} else {
		m.instantDayRepo.On("Get", ctx, storeID, day).Return(stored, nil)
	}
	if draw == nil {
		m.drawDayRepo.On("Get", ctx, storeID, day).Return(nil, nil)
	} else {
		m.drawDayRepo.On("Get", ctx, storeID, day).Return(draw, nil)
	}
	m.anomalyRepo.On("List", ctx, mock.MatchedBy(func(f models.AnomalyFilter) bool {
		return f.StoreID == storeID && f.Status != nil && *f.Status == models.AnomalyStatusOpen
	})).Return(anomalies, nil)
	m.anomalyRepo.On("CountOpenHighSeverity", ctx, storeID, &day).Return(openHigh, nil)
	m.policyRepo.On("GetByStore", ctx, storeID).Return(nil, nil)
}

func TestDayCloseService_Preview_CanPostWhenClean(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 30), // 20 sold, $100, $6 commission
	}
	draw := &models.DrawDay{StoreID: 1, Date: day, CommissionAmount: decimal.NewFromInt(4)}

	m.expectPreview(ctx, 1, day, readings, nil, draw, nil, 0)

	preview, err := service.PreviewDayClose(ctx, 1, day)

	require.NoError(t, err)
	assert.True(t, preview.CanPost)
	assert.Empty(t, preview.Warnings)
	assert.Equal(t, 0, preview.OpenHighCount)
	assert.True(t, preview.InstantDay.InstantCommission.Equal(decimal.NewFromInt(6)))
	assert.True(t, preview.TotalCommission.Equal(decimal.NewFromInt(10)), "instant + draw commission: %s", preview.TotalCommission)
}

func TestDayCloseService_Preview_BlockedByOpenHigh(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	open := []*models.Anomaly{
		testutil.CreateTestAnomaly(1, 5, models.AnomalyTypeSwap, models.AnomalySeverityHigh, day),
	}

	m.expectPreview(ctx, 1, day, nil, nil, nil, open, 1)

	preview, err := service.PreviewDayClose(ctx, 1, day)

	require.NoError(t, err)
	assert.False(t, preview.CanPost)
	assert.Equal(t, 1, preview.OpenHighCount)
	require.NotEmpty(t, preview.Warnings)
	assert.Contains(t, preview.Warnings[0], "block GL posting")
}

func TestDayCloseService_Preview_MediumSeverityWarnsButAllowsPosting(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	open := []*models.Anomaly{
		testutil.CreateTestAnomaly(1, 5, models.AnomalyTypeOutlier, models.AnomalySeverityMedium, day),
	}

	m.expectPreview(ctx, 1, day, nil, nil, nil, open, 0)

	preview, err := service.PreviewDayClose(ctx, 1, day)

	require.NoError(t, err)
	assert.True(t, preview.CanPost)
	require.Len(t, preview.Warnings, 1)
	assert.Contains(t, preview.Warnings[0], "medium-severity")
}

func TestDayCloseService_Preview_PolicyOverrideDisablesBlocking(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	m.readingRepo.On("ListForDay", ctx, int64(1), day).Return(nil, nil)
	m.instantDayRepo.On("Get", ctx, int64(1), day).Return(nil, nil)
	m.drawDayRepo.On("Get", ctx, int64(1), day).Return(nil, nil)
	m.anomalyRepo.On("List", ctx, mock.AnythingOfType("models.AnomalyFilter")).Return(nil, nil)
	m.anomalyRepo.On("CountOpenHighSeverity", ctx, int64(1), &day).Return(3, nil)
	m.policyRepo.On("GetByStore", ctx, int64(1)).Return(&models.StorePolicy{
		StoreID:                      1,
		BlockGLPostingOnHighSeverity: false,
		RegressionSeverity:           models.AnomalySeverityHigh,
	}, nil)

	preview, err := service.PreviewDayClose(ctx, 1, day)

	require.NoError(t, err)
	assert.True(t, preview.CanPost)
	assert.Equal(t, 3, preview.OpenHighCount)
}

func TestDayCloseService_Preview_CarriesStoredPayouts(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(0), 20), // $100 face sales
	}
	stored := &models.InstantDay{
		ID:             33,
		StoreID:        1,
		Date:           day,
		InstantPayouts: decimal.NewFromInt(25),
		InstantReturns: decimal.NewFromInt(5),
	}

	m.expectPreview(ctx, 1, day, readings, stored, nil, nil, 0)

	preview, err := service.PreviewDayClose(ctx, 1, day)

	require.NoError(t, err)
	assert.Equal(t, int64(33), preview.InstantDay.ID)
	assert.True(t, preview.InstantDay.InstantPayouts.Equal(decimal.NewFromInt(25)))
	assert.True(t, preview.InstantDay.InstantNetSaleOps.Equal(decimal.NewFromInt(70)), "face - payouts - returns: %s", preview.InstantDay.InstantNetSaleOps)
}

func TestDayCloseService_PostGL_BlockedByAnomaly(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	open := []*models.Anomaly{
		testutil.CreateTestAnomaly(1, 5, models.AnomalyTypeRegression, models.AnomalySeverityHigh, day),
	}

	m.expectPreview(ctx, 1, day, nil, nil, nil, open, 1)

	entryID, err := service.PostGL(ctx, 1, day, 42)

	assert.Empty(t, entryID)
	var blocked *BlockedByAnomalyError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.OpenHighCount)
	m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
	m.instantDayRepo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	m.instantDayRepo.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDayCloseService_PostGL_RejectsLockedDay(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lockedBy := int64(42)
	lockedAt := day.Add(20 * time.Hour)
	stored := &models.InstantDay{
		ID:       33,
		StoreID:  1,
		Date:     day,
		IsLocked: true,
		LockedBy: &lockedBy,
		LockedAt: &lockedAt,
	}

	m.expectPreview(ctx, 1, day, nil, stored, nil, nil, 0)

	entryID, err := service.PostGL(ctx, 1, day, 42)

	assert.Empty(t, entryID)
	var dayLocked *DayLockedError
	require.ErrorAs(t, err, &dayLocked)
	m.ledger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}

func TestDayCloseService_PostGL_PostsBalancedJournalAndLocks(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	cfg := testConfig()
	service := NewDayCloseService(m.factory, cfg, m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 30), // $6 instant commission
	}
	draw := &models.DrawDay{StoreID: 1, Date: day, CommissionAmount: decimal.NewFromInt(4)}

	m.expectPreview(ctx, 1, day, readings, nil, draw, nil, 0)
	m.instantDayRepo.On("CreateOrUpdate", ctx, mock.AnythingOfType("*models.InstantDay")).Return(nil)
	m.ledger.On("Post", ctx, mock.MatchedBy(func(req *models.JournalRequest) bool {
		if !req.IsBalanced() || len(req.Lines) != 3 {
			return false
		}
		return req.Lines[0].AccountCode == cfg.ReceivableAccount &&
			req.Lines[0].Debit.Equal(decimal.NewFromInt(10)) &&
			req.Lines[1].AccountCode == cfg.InstantCommissionAccount &&
			req.Lines[1].Credit.Equal(decimal.NewFromInt(6)) &&
			req.Lines[2].AccountCode == cfg.DrawCommissionAccount &&
			req.Lines[2].Credit.Equal(decimal.NewFromInt(4))
	})).Return("JE-1001", nil)
	m.instantDayRepo.On("Lock", ctx, int64(1), day, int64(42)).Return(nil)

	entryID, err := service.PostGL(ctx, 1, day, 42)

	require.NoError(t, err)
	assert.Equal(t, "JE-1001", entryID)
	m.ledger.AssertExpectations(t)
	m.instantDayRepo.AssertExpectations(t)
}

func TestDayCloseService_PostGL_NoDrawLineWhenAbsent(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 30),
	}

	m.expectPreview(ctx, 1, day, readings, nil, nil, nil, 0)
	m.instantDayRepo.On("CreateOrUpdate", ctx, mock.AnythingOfType("*models.InstantDay")).Return(nil)
	m.ledger.On("Post", ctx, mock.MatchedBy(func(req *models.JournalRequest) bool {
		return req.IsBalanced() && len(req.Lines) == 2
	})).Return("JE-1002", nil)
	m.instantDayRepo.On("Lock", ctx, int64(1), day, int64(42)).Return(nil)

	entryID, err := service.PostGL(ctx, 1, day, 42)

	require.NoError(t, err)
	assert.Equal(t, "JE-1002", entryID)
}

func TestDayCloseService_PostGL_LedgerFailureLeavesDayUnlocked(t *testing.T) {
	ctx := context.Background()
	m := newDayCloseMocks(ctx)
	service := NewDayCloseService(m.factory, testConfig(), m.ledger)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []*models.DayReading{
		dayReading(10, "G100", 5, 0.06, intPtr(10), 30),
	}

	m.expectPreview(ctx, 1, day, readings, nil, nil, nil, 0)
	m.instantDayRepo.On("CreateOrUpdate", ctx, mock.AnythingOfType("*models.InstantDay")).Return(nil)
	m.ledger.On("Post", ctx, mock.AnythingOfType("*models.JournalRequest")).Return("", assert.AnError)

	entryID, err := service.PostGL(ctx, 1, day, 42)

	assert.Empty(t, entryID)
	require.Error(t, err)
	m.instantDayRepo.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
