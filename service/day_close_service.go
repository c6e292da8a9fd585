package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"scratchtrack/config"
	"scratchtrack/events"
	"scratchtrack/models"
)

type dayCloseService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	ledger     LedgerPoster
}

// NewDayCloseService creates a new day-close gate service
func NewDayCloseService(uowFactory UnitOfWorkFactory, cfg *config.Config, ledger LedgerPoster) DayCloseService {
	return &dayCloseService{
		uowFactory: uowFactory,
		cfg:        cfg,
		ledger:     ledger,
	}
}

// PreviewDayClose assembles instant totals, draw-day figures, open
// anomalies and policy into a posting decision. Read-only.
func (s *dayCloseService) PreviewDayClose(ctx context.Context, storeID int64, date time.Time) (*models.DayClosePreview, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	day := NormalizeDate(date)

	dayReadings, err := uow.ReadingRepository().ListForDay(ctx, storeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings for day: %w", err)
	}
	instant := buildDay(storeID, day, dayReadings)

	// Payouts and returns are entered externally against the stored
	// aggregate; carry them over so a recompute does not lose them.
	stored, err := uow.InstantDayRepository().Get(ctx, storeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get stored instant day: %w", err)
	}
	if stored != nil {
		instant.ID = stored.ID
		instant.InstantPayouts = stored.InstantPayouts
		instant.InstantReturns = stored.InstantReturns
		instant.InstantNetSaleOps = instant.InstantFaceSales.Sub(stored.InstantPayouts).Sub(stored.InstantReturns)
		instant.IsLocked = stored.IsLocked
		instant.LockedBy = stored.LockedBy
		instant.LockedAt = stored.LockedAt
	}

	// Draw-day figures are computed outside this system; their absence
	// is not an error, the day simply closes on instant sales alone.
	draw, err := uow.DrawDayRepository().Get(ctx, storeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw day: %w", err)
	}

	openStatus := models.AnomalyStatusOpen
	anomalies, err := uow.AnomalyRepository().List(ctx, models.AnomalyFilter{
		StoreID:  storeID,
		Status:   &openStatus,
		DateFrom: &day,
		DateTo:   &day,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open anomalies: %w", err)
	}

	openHigh, err := uow.AnomalyRepository().CountOpenHighSeverity(ctx, storeID, &day)
	if err != nil {
		return nil, fmt.Errorf("failed to count open high-severity anomalies: %w", err)
	}

	policy, err := s.resolvePolicy(ctx, uow, storeID)
	if err != nil {
		return nil, err
	}

	canPost := !(policy.BlockGLPostingOnHighSeverity && openHigh > 0)

	var warnings []string
	if !canPost {
		warnings = append(warnings, fmt.Sprintf("%d open high-severity anomalies block GL posting", openHigh))
	}
	openMedium := 0
	for _, a := range anomalies {
		if a.Severity == models.AnomalySeverityMedium {
			openMedium++
		}
	}
	if openMedium > 0 {
		warnings = append(warnings, fmt.Sprintf("%d open medium-severity anomalies need review", openMedium))
	}

	total := instant.InstantCommission
	if draw != nil {
		total = total.Add(draw.CommissionAmount)
	}

	return &models.DayClosePreview{
		InstantDay:      instant,
		DrawDay:         draw,
		TotalCommission: total,
		Anomalies:       anomalies,
		Warnings:        warnings,
		OpenHighCount:   openHigh,
		CanPost:         canPost,
	}, nil
}

// PostGL posts the day's commission to the general ledger. The gate is
// enforced here, not only at preview time: the preview re-runs
// internally and a blocked day fails before any ledger call or state
// change.
func (s *dayCloseService) PostGL(ctx context.Context, storeID int64, date time.Time, postedBy int64) (string, error) {
	day := NormalizeDate(date)

	preview, err := s.PreviewDayClose(ctx, storeID, day)
	if err != nil {
		return "", fmt.Errorf("failed to preview day close: %w", err)
	}
	if !preview.CanPost {
		return "", &BlockedByAnomalyError{
			StoreID:       storeID,
			Date:          day,
			OpenHighCount: preview.OpenHighCount,
		}
	}
	if preview.InstantDay.IsLocked {
		return "", &DayLockedError{StoreID: storeID, Date: day}
	}

	// Persist the aggregate that backs the posted amounts before
	// touching the ledger.
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.InstantDayRepository().CreateOrUpdate(ctx, preview.InstantDay); err != nil {
		return "", err
	}
	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	req := s.buildJournal(storeID, day, preview)
	entryID, err := s.ledger.Post(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to post journal entry: %w", err)
	}

	// Lock only after the ledger accepted the entry so a failed post
	// leaves the day open for another attempt.
	lockUow := s.uowFactory.Create()
	if err := lockUow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer lockUow.Rollback()

	if err := lockUow.InstantDayRepository().Lock(ctx, storeID, day, postedBy); err != nil {
		return "", err
	}

	lockUow.EventBus().Publish(events.InstantDayLockedEvent{StoreID: storeID, Date: day, LockedBy: postedBy})
	lockUow.EventBus().Publish(events.CommissionPostedEvent{
		StoreID:         storeID,
		Date:            day,
		EntryID:         entryID,
		TotalCommission: preview.TotalCommission,
	})

	if err := lockUow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"storeID": storeID,
		"date":    day.Format("2006-01-02"),
		"entryID": entryID,
	}).Info("Commission posted to GL")

	return entryID, nil
}

// buildJournal assembles the balanced commission entry: receivable debit
// for the total, credits split between instant and draw commission
// accounts
func (s *dayCloseService) buildJournal(storeID int64, day time.Time, preview *models.DayClosePreview) *models.JournalRequest {
	desc := fmt.Sprintf("Lottery commission %s store %d", day.Format("2006-01-02"), storeID)

	lines := []models.JournalLine{
		{
			AccountCode: s.cfg.ReceivableAccount,
			Description: "Commission receivable",
			Debit:       preview.TotalCommission,
			Credit:      decimal.Zero,
		},
		{
			AccountCode: s.cfg.InstantCommissionAccount,
			Description: "Instant ticket commission",
			Debit:       decimal.Zero,
			Credit:      preview.InstantDay.InstantCommission,
		},
	}
	if preview.DrawDay != nil && !preview.DrawDay.CommissionAmount.IsZero() {
		lines = append(lines, models.JournalLine{
			AccountCode: s.cfg.DrawCommissionAccount,
			Description: "Draw game commission",
			Debit:       decimal.Zero,
			Credit:      preview.DrawDay.CommissionAmount,
		})
	}

	return &models.JournalRequest{
		StoreID:     storeID,
		Date:        day,
		Description: desc,
		Lines:       lines,
	}
}

// resolvePolicy returns the store's policy override when present,
// otherwise the global default
func (s *dayCloseService) resolvePolicy(ctx context.Context, uow UnitOfWork, storeID int64) (*models.StorePolicy, error) {
	policy, err := uow.StorePolicyRepository().GetByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store policy: %w", err)
	}
	if policy == nil {
		return s.cfg.DefaultPolicy(), nil
	}
	return policy, nil
}
