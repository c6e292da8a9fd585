package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"scratchtrack/models"
)

// CreateTestStore creates a test store with default values
func CreateTestStore(storeCode string) *models.Store {
	return &models.Store{
		StoreCode: storeCode,
		Name:      "Test Store " + storeCode,
	}
}

// CreateTestGame creates a test game with default values: $5 tickets,
// 60 per pack, 6% commission
func CreateTestGame(gameCode string) *models.Game {
	return &models.Game{
		GameCode:       gameCode,
		Name:           "Test Game " + gameCode,
		TicketPrice:    decimal.NewFromInt(5),
		TicketsPerPack: 60,
		CommissionRate: decimal.NewFromFloat(0.06),
	}
}

// CreateTestGameWithDetails creates a test game with specific pricing
func CreateTestGameWithDetails(gameCode string, price float64, perPack int, rate float64) *models.Game {
	game := CreateTestGame(gameCode)
	game.TicketPrice = decimal.NewFromFloat(price)
	game.TicketsPerPack = perPack
	game.CommissionRate = decimal.NewFromFloat(rate)
	return game
}

// CreateTestPack creates an active test pack in the given box
func CreateTestPack(storeID, gameID int64, packCode, boxLabel string) *models.Pack {
	now := time.Now().UTC()
	return &models.Pack{
		PackCode:    packCode,
		GameID:      gameID,
		StoreID:     storeID,
		BoxLabel:    boxLabel,
		Status:      models.PackStatusActive,
		ActivatedAt: &now,
	}
}

// CreateTestReading creates a test reading for a pack
func CreateTestReading(storeID, packID int64, boxLabel string, ticketNumber int, ts time.Time) *models.Reading {
	return &models.Reading{
		StoreID:      storeID,
		PackID:       packID,
		BoxLabel:     boxLabel,
		TicketNumber: ticketNumber,
		ReadingTS:    ts,
		UserID:       1,
		Source:       models.ReadingSourceManual,
	}
}

// CreateTestAnomaly creates an open test anomaly
func CreateTestAnomaly(storeID, packID int64, anomalyType models.AnomalyType, severity models.AnomalySeverity, date time.Time) *models.Anomaly {
	return &models.Anomaly{
		StoreID:  storeID,
		PackID:   packID,
		BoxLabel: "A1",
		Date:     date,
		Type:     anomalyType,
		Severity: severity,
		Detail:   "test anomaly",
		Status:   models.AnomalyStatusOpen,
	}
}
