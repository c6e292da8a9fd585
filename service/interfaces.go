package service

import (
	"context"
	"time"

	"scratchtrack/events"
	"scratchtrack/models"
)

// PackRepository defines the interface for pack data access
type PackRepository interface {
	// Create registers a new pack
	Create(ctx context.Context, pack *models.Pack) error

	// GetByID retrieves a pack by its ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.Pack, error)

	// GetByCode retrieves a pack by its human pack code within a store
	GetByCode(ctx context.Context, storeID int64, packCode string) (*models.Pack, error)

	// GetForUpdate retrieves a pack by ID holding a row lock for the
	// rest of the transaction; serializes ingestion per pack
	GetForUpdate(ctx context.Context, id int64) (*models.Pack, error)

	// GetActiveInBox returns active, not sold-out packs occupying the
	// given box slot, excluding the given pack ID
	GetActiveInBox(ctx context.Context, storeID int64, boxLabel string, excludePackID int64) ([]*models.Pack, error)

	// ApplyReading updates the pack's current ticket and, when soldOut,
	// flips its status and stamps sold_out_at
	ApplyReading(ctx context.Context, packID int64, ticketNumber int, soldOut bool) error

	// Activate transitions an inactive pack into a box slot
	Activate(ctx context.Context, packID int64, boxLabel string) error
}

// ReadingRepository defines the interface for the append-only reading log
type ReadingRepository interface {
	// Create appends a new reading
	Create(ctx context.Context, reading *models.Reading) error

	// GetLastBefore returns the pack's most recent reading strictly
	// before the given timestamp, nil when the pack has none
	GetLastBefore(ctx context.Context, packID int64, before time.Time) (*models.Reading, error)

	// GetRecentForPack returns up to limit readings for a pack ordered
	// by reading_ts descending
	GetRecentForPack(ctx context.Context, packID int64, limit int) ([]*models.Reading, error)

	// ListForDay returns all readings for a store on a date joined to
	// pack and game, each carrying the immediately-preceding ticket
	// number for its pack (per-pack ordered lookback)
	ListForDay(ctx context.Context, storeID int64, date time.Time) ([]*models.DayReading, error)
}

// AnomalyRepository defines the interface for anomaly data access
type AnomalyRepository interface {
	// Create persists a new anomaly in open status
	Create(ctx context.Context, anomaly *models.Anomaly) error

	// GetByID retrieves an anomaly by its ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.Anomaly, error)

	// Update persists lifecycle changes (status, resolution fields)
	Update(ctx context.Context, anomaly *models.Anomaly) error

	// List returns anomalies matching the filter ordered by date desc,
	// severity rank desc, created_at desc
	List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error)

	// CountOpenHighSeverity counts open high-severity anomalies for a
	// store, optionally restricted to one date
	CountOpenHighSeverity(ctx context.Context, storeID int64, date *time.Time) (int, error)
}

// GameRepository defines the interface for game reference data
type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int64) (*models.Game, error)
	GetByCode(ctx context.Context, gameCode string) (*models.Game, error)
}

// StoreRepository defines the interface for store reference data
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id int64) (*models.Store, error)
	GetByCode(ctx context.Context, storeCode string) (*models.Store, error)
}

// InstantDayRepository defines the interface for day aggregate persistence
type InstantDayRepository interface {
	// Get retrieves the aggregate with its per-game breakdown, nil when
	// the store-date has not been computed yet
	Get(ctx context.Context, storeID int64, date time.Time) (*models.InstantDay, error)

	// CreateOrUpdate upserts the aggregate row and replaces its
	// breakdown rows. Fails with DayLockedError once the day is locked.
	CreateOrUpdate(ctx context.Context, day *models.InstantDay) error

	// Lock freezes the store-date aggregate
	Lock(ctx context.Context, storeID int64, date time.Time, lockedBy int64) error
}

// DrawDayRepository defines the interface for externally-computed draw-day figures
type DrawDayRepository interface {
	// Get returns the draw-day figures for a store-date, nil when the
	// external system has not supplied them
	Get(ctx context.Context, storeID int64, date time.Time) (*models.DrawDay, error)
}

// StorePolicyRepository defines the interface for per-store policy overrides
type StorePolicyRepository interface {
	// GetByStore returns the store's policy override, nil when the
	// global default applies
	GetByStore(ctx context.Context, storeID int64) (*models.StorePolicy, error)

	// Upsert creates or replaces a store's policy override
	Upsert(ctx context.Context, policy *models.StorePolicy) error
}

// PackService defines the interface for pack registration and activation
type PackService interface {
	// RegisterPack creates an inactive pack for a store and game
	RegisterPack(ctx context.Context, storeID int64, gameCode, packCode, boxLabel string) (*models.Pack, error)

	// ActivatePack puts a registered pack live in a box slot
	ActivatePack(ctx context.Context, storeID int64, packCode, boxLabel string) (*models.Pack, error)
}

// ReadingService defines the interface for reading ingestion
type ReadingService interface {
	// RecordReading appends a reading for a pack, computes the sold
	// delta, runs anomaly detection and updates the pack's state, all
	// within one transaction
	RecordReading(ctx context.Context, storeID int64, packCode, boxLabel string, ticketNumber int, userID int64, source models.ReadingSource, note string) (*models.ReadingResult, error)
}

// AnomalyService defines the interface for the anomaly review lifecycle
type AnomalyService interface {
	// Acknowledge marks an open anomaly as seen without closing it
	Acknowledge(ctx context.Context, anomalyID int64, by int64) (*models.Anomaly, error)

	// Resolve closes an open or acknowledged anomaly with a note
	Resolve(ctx context.Context, anomalyID int64, by int64, note string) (*models.Anomaly, error)

	// List returns anomalies matching the filter
	List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error)

	// CountOpenHighSeverity counts blocking anomalies for a store-date
	CountOpenHighSeverity(ctx context.Context, storeID int64, date *time.Time) (int, error)
}

// InstantDayService defines the interface for day aggregation
type InstantDayService interface {
	// ComputeDay computes the day aggregate from the reading log
	// without persisting it
	ComputeDay(ctx context.Context, storeID int64, date time.Time) (*models.InstantDay, error)

	// CreateOrUpdate persists a computed aggregate, replacing any
	// unlocked prior version for the store-date
	CreateOrUpdate(ctx context.Context, day *models.InstantDay) error

	// LockDay freezes the store-date aggregate
	LockDay(ctx context.Context, storeID int64, date time.Time, lockedBy int64) error
}

// DayCloseService defines the interface for the GL posting gate
type DayCloseService interface {
	// PreviewDayClose assembles totals, anomalies and policy into a
	// posting decision without side effects
	PreviewDayClose(ctx context.Context, storeID int64, date time.Time) (*models.DayClosePreview, error)

	// PostGL re-checks the gate, posts the commission journal through
	// the ledger collaborator and locks the day. Fails with
	// BlockedByAnomalyError when posting is not allowed.
	PostGL(ctx context.Context, storeID int64, date time.Time, postedBy int64) (string, error)
}

// LedgerPoster defines the external general-ledger collaborator
type LedgerPoster interface {
	// Post submits a balanced journal entry and returns its identifier
	Post(ctx context.Context, req *models.JournalRequest) (string, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	PackRepository() PackRepository
	ReadingRepository() ReadingRepository
	AnomalyRepository() AnomalyRepository
	GameRepository() GameRepository
	StoreRepository() StoreRepository
	InstantDayRepository() InstantDayRepository
	DrawDayRepository() DrawDayRepository
	StorePolicyRepository() StorePolicyRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
