package service

import (
	"context"
	"fmt"
	"time"

	"scratchtrack/models"
)

type anomalyService struct {
	uowFactory UnitOfWorkFactory
}

// NewAnomalyService creates a new anomaly lifecycle service
func NewAnomalyService(uowFactory UnitOfWorkFactory) AnomalyService {
	return &anomalyService{uowFactory: uowFactory}
}

// Acknowledge marks an open anomaly as seen. Acknowledging records who
// looked at it and when but leaves the resolution note unset.
func (s *anomalyService) Acknowledge(ctx context.Context, anomalyID int64, by int64) (*models.Anomaly, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	anomaly, err := uow.AnomalyRepository().GetByID(ctx, anomalyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get anomaly: %w", err)
	}
	if anomaly == nil {
		return nil, &NotFoundError{Entity: "anomaly", Ref: fmt.Sprintf("%d", anomalyID)}
	}

	if anomaly.Status != models.AnomalyStatusOpen {
		return nil, fmt.Errorf("anomaly %d is %s, only open anomalies can be acknowledged", anomalyID, anomaly.Status)
	}

	now := time.Now().UTC()
	anomaly.Status = models.AnomalyStatusAcknowledged
	anomaly.ResolvedBy = &by
	anomaly.ResolvedTS = &now

	if err := uow.AnomalyRepository().Update(ctx, anomaly); err != nil {
		return nil, fmt.Errorf("failed to update anomaly: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return anomaly, nil
}

// Resolve closes an open or acknowledged anomaly. Resolution is
// terminal: there is no transition back to open, and acknowledging first
// is optional.
func (s *anomalyService) Resolve(ctx context.Context, anomalyID int64, by int64, note string) (*models.Anomaly, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	anomaly, err := uow.AnomalyRepository().GetByID(ctx, anomalyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get anomaly: %w", err)
	}
	if anomaly == nil {
		return nil, &NotFoundError{Entity: "anomaly", Ref: fmt.Sprintf("%d", anomalyID)}
	}

	if anomaly.Status == models.AnomalyStatusResolved {
		return nil, fmt.Errorf("anomaly %d is already resolved", anomalyID)
	}

	now := time.Now().UTC()
	anomaly.Status = models.AnomalyStatusResolved
	anomaly.ResolvedBy = &by
	anomaly.ResolvedNote = &note
	anomaly.ResolvedTS = &now

	if err := uow.AnomalyRepository().Update(ctx, anomaly); err != nil {
		return nil, fmt.Errorf("failed to update anomaly: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return anomaly, nil
}

// List returns anomalies matching the filter
func (s *anomalyService) List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	anomalies, err := uow.AnomalyRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}

	return anomalies, nil
}

// CountOpenHighSeverity counts blocking anomalies for a store, optionally
// restricted to one date
func (s *anomalyService) CountOpenHighSeverity(ctx context.Context, storeID int64, date *time.Time) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	count, err := uow.AnomalyRepository().CountOpenHighSeverity(ctx, storeID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to count open high-severity anomalies: %w", err)
	}

	return count, nil
}
