package execution

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeQuantity rejects a negative raw value before any clamp logic runs.
	ErrNegativeQuantity = errors.New("executed quantity must not be negative")
	// ErrMacroItem rejects writes against aggregation-only items.
	ErrMacroItem = errors.New("macro items cannot hold executed quantities")
	// ErrItemNotInBudget rejects writes against items of a different budget
	// than the report's.
	ErrItemNotInBudget = errors.New("budget item does not belong to the report's budget")
	// ErrReportApproved rejects writes against a frozen report. Approval can
	// land between enqueue and flush, so the gate is checked on both sides.
	ErrReportApproved = errors.New("report is approved and no longer accepts execution entries")
)

// overrunTolerance is used only for read-side overrun detection. The write-side
// clamp is exact decimal arithmetic.
var overrunTolerance = decimal.New(1, -4) // 1e-4

// Record is the ledger entry for one leaf budget item within one report.
// It is created lazily on the first write and updated in place afterwards.
type Record struct {
	ID              int
	ReportID        int
	BudgetItemID    int
	ExecutedToday   decimal.Decimal
	ProgressPercent int
	UpdatedAt       time.Time
}

// ClampWarning is surfaced when a requested value exceeded the available
// balance and was reduced. It is informational: the write still succeeds.
type ClampWarning struct {
	ItemId           int
	Requested        decimal.Decimal
	Clamped          decimal.Decimal
	AvailableBalance decimal.Decimal
}

// Message renders the user-facing text. Values are rounded to two decimal
// places for display only; stored quantities keep full precision.
func (w ClampWarning) Message() string {
	return "requested quantity " + w.Requested.StringFixed(2) +
		" exceeds the available balance; recorded " + w.Clamped.StringFixed(2)
}

// DerivedState is the full read-side view of one leaf item's execution.
type DerivedState struct {
	AccumulatedExecution decimal.Decimal
	ExecutedToday        decimal.Decimal
	TotalExecuted        decimal.Decimal
	AdjustedQuantity     decimal.Decimal
	// AvailableBalance is what can still be executed after today's entry,
	// max(0, adjusted - total). The write-path clamp uses the prior-periods
	// balance instead, which excludes today.
	AvailableBalance     decimal.Decimal
	PercentExecuted      int
	// ExceedsLimit flags totals beyond the adjusted quantity plus tolerance.
	// It can only become true through concurrent edits that bypassed the
	// transactional write path or through external data mutation.
	ExceedsLimit bool
}

// Result is returned by a ledger write: the persisted state plus an optional
// clamp warning.
type Result struct {
	State   DerivedState
	Warning *ClampWarning
}
