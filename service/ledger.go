package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"scratchtrack/models"
)

// loggingLedgerPoster is a stand-in ledger collaborator for environments
// without a bookkeeping backend. It validates balance, logs the entry
// and returns a generated identifier.
type loggingLedgerPoster struct{}

// NewLoggingLedgerPoster creates a ledger poster that only logs
func NewLoggingLedgerPoster() LedgerPoster {
	return &loggingLedgerPoster{}
}

func (p *loggingLedgerPoster) Post(ctx context.Context, req *models.JournalRequest) (string, error) {
	if !req.IsBalanced() {
		return "", fmt.Errorf("journal entry for store %d is not balanced", req.StoreID)
	}

	entryID := uuid.NewString()
	log.WithFields(log.Fields{
		"storeID": req.StoreID,
		"date":    req.Date.Format("2006-01-02"),
		"lines":   len(req.Lines),
		"entryID": entryID,
	}).Info("Journal entry posted")

	return entryID, nil
}
