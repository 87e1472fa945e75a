package additive

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amendment is an approved (or pending) contract amendment round for a budget.
// Amendments apply cumulatively, in session order.
type Amendment struct {
	ID            int
	BudgetID      int
	SessionNumber int
	// ApprovedOn is zero while the amendment is pending. Only approved
	// amendments contribute quantity deltas.
	ApprovedOn time.Time
}

func (a Amendment) IsApproved() bool {
	return !a.ApprovedOn.IsZero()
}

// LineEntry is one line of an amendment: a signed quantity adjustment matched
// to a budget item through the item's external (unit-price-table) code.
type LineEntry struct {
	ID          int
	AmendmentID int
	// ExternalCode matches BudgetItem.ExternalCode; falls back to a direct
	// item-code match when no item carries that external code.
	ExternalCode string
	// QuantityDelta is positive for added quantity, negative for suppression.
	QuantityDelta decimal.Decimal
	// SessionNumber is the amendment round that contributed this delta.
	SessionNumber int
}
