package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	logrus "github.com/sirupsen/logrus"

	"scratchtrack/config"
	"scratchtrack/database"
	"scratchtrack/events"
	"scratchtrack/repository"
	"scratchtrack/service"
)

// App holds the wired application dependencies. Operator surfaces
// (import jobs, back-office API) attach to its services.
type App struct {
	DB       *database.DB
	EventBus *events.Bus

	PackService       service.PackService
	ReadingService    service.ReadingService
	AnomalyService    service.AnomalyService
	InstantDayService service.InstantDayService
	DayCloseService   service.DayCloseService
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting scratchtrack...")

	app, err := NewApp(ctx)
	if err != nil {
		return err
	}

	// Wait for context cancellation
	log.Printf("Service is running in %s mode...", config.Get().Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	app.DB.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// NewApp wires configuration, database, events and services
func NewApp(ctx context.Context) (*App, error) {
	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	registerEventLogging(eventBus)
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	app := &App{
		DB:                db,
		EventBus:          eventBus,
		PackService:       service.NewPackService(uowFactory),
		ReadingService:    service.NewReadingService(uowFactory, cfg),
		AnomalyService:    service.NewAnomalyService(uowFactory),
		InstantDayService: service.NewInstantDayService(uowFactory),
		DayCloseService:   service.NewDayCloseService(uowFactory, cfg, service.NewLoggingLedgerPoster()),
	}
	log.Println("Services initialized successfully")

	return app, nil
}

// registerEventLogging attaches audit-trail logging for the domain events
// that operators care about during a shift.
func registerEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypePackSoldOut, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.PackSoldOutEvent); ok {
			logrus.WithFields(logrus.Fields{
				"packID":  e.PackID,
				"storeID": e.StoreID,
			}).Info("Pack sold out")
		}
	})
	bus.Subscribe(events.EventTypeAnomalyDetected, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.AnomalyDetectedEvent); ok {
			logrus.WithFields(logrus.Fields{
				"anomalyID": e.AnomalyID,
				"storeID":   e.StoreID,
				"packID":    e.PackID,
				"type":      e.AnomalyType,
				"severity":  e.Severity,
			}).Warn("Anomaly detected")
		}
	})
	bus.Subscribe(events.EventTypeCommissionPosted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.CommissionPostedEvent); ok {
			logrus.WithFields(logrus.Fields{
				"storeID":         e.StoreID,
				"date":            e.Date.Format("2006-01-02"),
				"entryID":         e.EntryID,
				"totalCommission": e.TotalCommission.String(),
			}).Info("Commission posted to GL")
		}
	})
}
