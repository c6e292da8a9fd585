package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLine is one leg of a balanced journal entry
type JournalLine struct {
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalRequest is a balanced multi-line journal entry handed to the
// external ledger poster. This core decides the amounts; the bookkeeping
// mechanics live outside.
type JournalRequest struct {
	StoreID     int64
	Date        time.Time
	Description string
	Lines       []JournalLine
}

// IsBalanced checks that total debits equal total credits
func (r *JournalRequest) IsBalanced() bool {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range r.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit.Equal(credit)
}

// StorePolicy holds per-store overrides for day-close behavior. A missing
// row means the global defaults apply.
type StorePolicy struct {
	StoreID                      int64           `db:"store_id"`
	BlockGLPostingOnHighSeverity bool            `db:"block_gl_posting_on_high_severity"`
	RegressionSeverity           AnomalySeverity `db:"regression_severity"`
	CreatedAt                    time.Time       `db:"created_at"`
	UpdatedAt                    time.Time       `db:"updated_at"`
}
