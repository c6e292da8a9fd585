package service

import (
	"context"
	"fmt"

	"scratchtrack/models"
)

type packService struct {
	uowFactory UnitOfWorkFactory
}

// NewPackService creates a new pack registry service
func NewPackService(uowFactory UnitOfWorkFactory) PackService {
	return &packService{uowFactory: uowFactory}
}

// RegisterPack creates an inactive pack for a store and game
func (s *packService) RegisterPack(ctx context.Context, storeID int64, gameCode, packCode, boxLabel string) (*models.Pack, error) {
	if packCode == "" {
		return nil, &ValidationError{Field: "pack_code", Reason: "must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	game, err := uow.GameRepository().GetByCode(ctx, gameCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, &NotFoundError{Entity: "game", Ref: gameCode}
	}

	pack := &models.Pack{
		PackCode: packCode,
		GameID:   game.ID,
		StoreID:  storeID,
		BoxLabel: boxLabel,
		Status:   models.PackStatusInactive,
	}
	if err := uow.PackRepository().Create(ctx, pack); err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pack, nil
}

// ActivatePack puts a registered pack live in a box slot. Activation does
// not verify the slot is free: a forgotten close-out surfaces as a swap
// anomaly on the next reading rather than blocking the cashier here.
func (s *packService) ActivatePack(ctx context.Context, storeID int64, packCode, boxLabel string) (*models.Pack, error) {
	if boxLabel == "" {
		return nil, &ValidationError{Field: "box_label", Reason: "must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pack, err := uow.PackRepository().GetByCode(ctx, storeID, packCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	if pack == nil {
		return nil, &NotFoundError{Entity: "pack", Ref: packCode}
	}
	if pack.Status == models.PackStatusSoldOut {
		return nil, fmt.Errorf("pack %s is already sold out", packCode)
	}

	if err := uow.PackRepository().Activate(ctx, pack.ID, boxLabel); err != nil {
		return nil, fmt.Errorf("failed to activate pack: %w", err)
	}

	pack, err = uow.PackRepository().GetByID(ctx, pack.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload pack: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pack, nil
}
