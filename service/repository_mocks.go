package service

import (
	"context"
	"time"

	"scratchtrack/events"
	"scratchtrack/models"

	"github.com/stretchr/testify/mock"
)

// MockPackRepository is a mock implementation of PackRepository
type MockPackRepository struct {
	mock.Mock
}

func (m *MockPackRepository) Create(ctx context.Context, pack *models.Pack) error {
	args := m.Called(ctx, pack)
	return args.Error(0)
}

func (m *MockPackRepository) GetByID(ctx context.Context, id int64) (*models.Pack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pack), args.Error(1)
}

func (m *MockPackRepository) GetByCode(ctx context.Context, storeID int64, packCode string) (*models.Pack, error) {
	args := m.Called(ctx, storeID, packCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pack), args.Error(1)
}

func (m *MockPackRepository) GetForUpdate(ctx context.Context, id int64) (*models.Pack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pack), args.Error(1)
}

func (m *MockPackRepository) GetActiveInBox(ctx context.Context, storeID int64, boxLabel string, excludePackID int64) ([]*models.Pack, error) {
	args := m.Called(ctx, storeID, boxLabel, excludePackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pack), args.Error(1)
}

func (m *MockPackRepository) ApplyReading(ctx context.Context, packID int64, ticketNumber int, soldOut bool) error {
	args := m.Called(ctx, packID, ticketNumber, soldOut)
	return args.Error(0)
}

func (m *MockPackRepository) Activate(ctx context.Context, packID int64, boxLabel string) error {
	args := m.Called(ctx, packID, boxLabel)
	return args.Error(0)
}

// MockReadingRepository is a mock implementation of ReadingRepository
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) Create(ctx context.Context, reading *models.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) GetLastBefore(ctx context.Context, packID int64, before time.Time) (*models.Reading, error) {
	args := m.Called(ctx, packID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reading), args.Error(1)
}

func (m *MockReadingRepository) GetRecentForPack(ctx context.Context, packID int64, limit int) ([]*models.Reading, error) {
	args := m.Called(ctx, packID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reading), args.Error(1)
}

func (m *MockReadingRepository) ListForDay(ctx context.Context, storeID int64, date time.Time) ([]*models.DayReading, error) {
	args := m.Called(ctx, storeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DayReading), args.Error(1)
}

// MockAnomalyRepository is a mock implementation of AnomalyRepository
type MockAnomalyRepository struct {
	mock.Mock
}

func (m *MockAnomalyRepository) Create(ctx context.Context, anomaly *models.Anomaly) error {
	args := m.Called(ctx, anomaly)
	return args.Error(0)
}

func (m *MockAnomalyRepository) GetByID(ctx context.Context, id int64) (*models.Anomaly, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) Update(ctx context.Context, anomaly *models.Anomaly) error {
	args := m.Called(ctx, anomaly)
	return args.Error(0)
}

func (m *MockAnomalyRepository) List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) CountOpenHighSeverity(ctx context.Context, storeID int64, date *time.Time) (int, error) {
	args := m.Called(ctx, storeID, date)
	return args.Int(0), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	args := m.Called(ctx, gameCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

// MockStoreRepository is a mock implementation of StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) Create(ctx context.Context, store *models.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *MockStoreRepository) GetByID(ctx context.Context, id int64) (*models.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Store), args.Error(1)
}

func (m *MockStoreRepository) GetByCode(ctx context.Context, storeCode string) (*models.Store, error) {
	args := m.Called(ctx, storeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Store), args.Error(1)
}

// MockInstantDayRepository is a mock implementation of InstantDayRepository
type MockInstantDayRepository struct {
	mock.Mock
}

func (m *MockInstantDayRepository) Get(ctx context.Context, storeID int64, date time.Time) (*models.InstantDay, error) {
	args := m.Called(ctx, storeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InstantDay), args.Error(1)
}

func (m *MockInstantDayRepository) CreateOrUpdate(ctx context.Context, day *models.InstantDay) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *MockInstantDayRepository) Lock(ctx context.Context, storeID int64, date time.Time, lockedBy int64) error {
	args := m.Called(ctx, storeID, date, lockedBy)
	return args.Error(0)
}

// MockDrawDayRepository is a mock implementation of DrawDayRepository
type MockDrawDayRepository struct {
	mock.Mock
}

func (m *MockDrawDayRepository) Get(ctx context.Context, storeID int64, date time.Time) (*models.DrawDay, error) {
	args := m.Called(ctx, storeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawDay), args.Error(1)
}

// MockStorePolicyRepository is a mock implementation of StorePolicyRepository
type MockStorePolicyRepository struct {
	mock.Mock
}

func (m *MockStorePolicyRepository) GetByStore(ctx context.Context, storeID int64) (*models.StorePolicy, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StorePolicy), args.Error(1)
}

func (m *MockStorePolicyRepository) Upsert(ctx context.Context, policy *models.StorePolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

// MockLedgerPoster is a mock implementation of LedgerPoster
type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) Post(ctx context.Context, req *models.JournalRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// NoopEventPublisher swallows events in tests that do not assert on them
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; getters hand back whatever was injected
// without recording a call.
type MockUnitOfWork struct {
	mock.Mock

	packRepo        PackRepository
	readingRepo     ReadingRepository
	anomalyRepo     AnomalyRepository
	gameRepo        GameRepository
	storeRepo       StoreRepository
	instantDayRepo  InstantDayRepository
	drawDayRepo     DrawDayRepository
	storePolicyRepo StorePolicyRepository
	eventBus        EventPublisher
}

// SetRepositories configures the repositories this unit of work hands out.
// Pass nil for repositories the test does not touch.
func (m *MockUnitOfWork) SetRepositories(
	packRepo PackRepository,
	readingRepo ReadingRepository,
	anomalyRepo AnomalyRepository,
	gameRepo GameRepository,
	storeRepo StoreRepository,
	instantDayRepo InstantDayRepository,
	drawDayRepo DrawDayRepository,
	storePolicyRepo StorePolicyRepository,
) {
	m.packRepo = packRepo
	m.readingRepo = readingRepo
	m.anomalyRepo = anomalyRepo
	m.gameRepo = gameRepo
	m.storeRepo = storeRepo
	m.instantDayRepo = instantDayRepo
	m.drawDayRepo = drawDayRepo
	m.storePolicyRepo = storePolicyRepo
	m.eventBus = NoopEventPublisher{}
}

// SetEventBus overrides the event publisher for tests asserting on events
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) PackRepository() PackRepository {
	return m.packRepo
}

func (m *MockUnitOfWork) ReadingRepository() ReadingRepository {
	return m.readingRepo
}

func (m *MockUnitOfWork) AnomalyRepository() AnomalyRepository {
	return m.anomalyRepo
}

func (m *MockUnitOfWork) GameRepository() GameRepository {
	return m.gameRepo
}

func (m *MockUnitOfWork) StoreRepository() StoreRepository {
	return m.storeRepo
}

func (m *MockUnitOfWork) InstantDayRepository() InstantDayRepository {
	return m.instantDayRepo
}

func (m *MockUnitOfWork) DrawDayRepository() DrawDayRepository {
	return m.drawDayRepo
}

func (m *MockUnitOfWork) StorePolicyRepository() StorePolicyRepository {
	return m.storePolicyRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
