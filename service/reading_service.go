package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"scratchtrack/config"
	"scratchtrack/events"
	"scratchtrack/models"
)

type readingService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewReadingService creates a new reading ingestion service
func NewReadingService(uowFactory UnitOfWorkFactory, cfg *config.Config) ReadingService {
	return &readingService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// RecordReading appends a reading for a pack, computes the sold delta,
// runs anomaly detection and updates the pack's state. The reading
// insert, anomaly inserts and pack update commit as one transaction; a
// failure anywhere leaves nothing persisted.
func (s *readingService) RecordReading(ctx context.Context, storeID int64, packCode, boxLabel string, ticketNumber int, userID int64, source models.ReadingSource, note string) (*models.ReadingResult, error) {
	// Validate inputs before touching storage
	if storeID <= 0 {
		return nil, &ValidationError{Field: "store_id", Reason: "must be positive"}
	}
	if packCode == "" {
		return nil, &ValidationError{Field: "pack_code", Reason: "must not be empty"}
	}
	if ticketNumber < 0 {
		return nil, &ValidationError{Field: "ticket_number", Reason: "must not be negative"}
	}
	if userID <= 0 {
		return nil, &ValidationError{Field: "user_id", Reason: "must be positive"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pack, err := uow.PackRepository().GetByCode(ctx, storeID, packCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pack: %w", err)
	}
	if pack == nil {
		return nil, &NotFoundError{Entity: "pack", Ref: packCode}
	}

	// Row lock serializes concurrent ingestion for the same pack: the
	// delta baseline and outlier history stay stable for the rest of
	// the transaction.
	pack, err = uow.PackRepository().GetForUpdate(ctx, pack.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pack: %w", err)
	}

	// Resolve the game once and carry it through; tickets_per_pack is
	// needed again for the sold-out check after the insert.
	game, err := uow.GameRepository().GetByID(ctx, pack.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, &NotFoundError{Entity: "game", Ref: fmt.Sprintf("%d", pack.GameID)}
	}

	if boxLabel == "" {
		boxLabel = pack.BoxLabel
	}

	now := time.Now().UTC()

	prev, err := uow.ReadingRepository().GetLastBefore(ctx, pack.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous reading: %w", err)
	}

	// History must be captured before the new reading is inserted so
	// the current observation never feeds its own outlier average.
	var priorDeltas []int
	var prevTicket *int
	if prev != nil {
		prevTicket = &prev.TicketNumber
		priorDeltas, err = s.priorDeltas(ctx, uow, pack.ID)
		if err != nil {
			return nil, err
		}
	}

	othersInBox, err := uow.PackRepository().GetActiveInBox(ctx, storeID, boxLabel, pack.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check box occupancy: %w", err)
	}

	reading := &models.Reading{
		StoreID:      storeID,
		PackID:       pack.ID,
		BoxLabel:     boxLabel,
		TicketNumber: ticketNumber,
		ReadingTS:    now,
		UserID:       userID,
		Source:       source,
		Note:         note,
	}
	if err := uow.ReadingRepository().Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}

	soldDelta := 0
	if prev != nil && ticketNumber > prev.TicketNumber {
		soldDelta = ticketNumber - prev.TicketNumber
	}

	detector := s.detectorFor(ctx, uow, storeID)
	findings := detector.Evaluate(ticketNumber, prevTicket, priorDeltas, othersInBox)

	anomalies := make([]*models.Anomaly, 0, len(findings))
	for _, finding := range findings {
		anomaly := &models.Anomaly{
			StoreID:   storeID,
			PackID:    pack.ID,
			BoxLabel:  boxLabel,
			ReadingID: &reading.ID,
			Date:      NormalizeDate(now),
			Type:      finding.Type,
			Severity:  finding.Severity,
			Detail:    finding.Detail(),
			Status:    models.AnomalyStatusOpen,
		}
		if err := uow.AnomalyRepository().Create(ctx, anomaly); err != nil {
			return nil, fmt.Errorf("failed to create %s anomaly: %w", finding.Type, err)
		}
		anomalies = append(anomalies, anomaly)

		uow.EventBus().Publish(events.AnomalyDetectedEvent{
			AnomalyID:   anomaly.ID,
			StoreID:     storeID,
			PackID:      pack.ID,
			AnomalyType: anomaly.Type,
			Severity:    anomaly.Severity,
		})
	}

	soldOut := ticketNumber >= game.LastTicketIndex()
	if err := uow.PackRepository().ApplyReading(ctx, pack.ID, ticketNumber, soldOut); err != nil {
		return nil, fmt.Errorf("failed to update pack state: %w", err)
	}
	if soldOut {
		uow.EventBus().Publish(events.PackSoldOutEvent{PackID: pack.ID, StoreID: storeID})
	}

	uow.EventBus().Publish(events.ReadingRecordedEvent{
		ReadingID:    reading.ID,
		StoreID:      storeID,
		PackID:       pack.ID,
		TicketNumber: ticketNumber,
		SoldDelta:    soldDelta,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(anomalies) > 0 {
		log.WithFields(log.Fields{
			"packCode":  packCode,
			"storeID":   storeID,
			"anomalies": len(anomalies),
		}).Info("Reading recorded with anomalies")
	}

	return &models.ReadingResult{
		Reading:   reading,
		SoldDelta: soldDelta,
		Anomalies: anomalies,
	}, nil
}

// priorDeltas returns the pack's recent consecutive-reading deltas,
// most recent first, bounded by the configured lookback
func (s *readingService) priorDeltas(ctx context.Context, uow UnitOfWork, packID int64) ([]int, error) {
	recent, err := uow.ReadingRepository().GetRecentForPack(ctx, packID, s.cfg.OutlierLookback+1)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading history: %w", err)
	}

	deltas := make([]int, 0, len(recent))
	for i := 0; i+1 < len(recent); i++ {
		deltas = append(deltas, recent[i].TicketNumber-recent[i+1].TicketNumber)
	}
	return deltas, nil
}

// detectorFor builds a detector using the store's policy override for
// regression severity when one exists, otherwise the global default
func (s *readingService) detectorFor(ctx context.Context, uow UnitOfWork, storeID int64) *Detector {
	severity := s.cfg.RegressionSeverity
	policy, err := uow.StorePolicyRepository().GetByStore(ctx, storeID)
	if err != nil {
		log.WithError(err).WithField("storeID", storeID).Warn("Failed to load store policy, using defaults")
	} else if policy != nil && policy.RegressionSeverity != "" {
		severity = policy.RegressionSeverity
	}
	return NewDetector(s.cfg.OutlierLookback, s.cfg.OutlierAbsoluteFloor, severity)
}
