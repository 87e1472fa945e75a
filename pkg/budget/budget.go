package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemOrigin records the provenance of a budget line.
type ItemOrigin string

const (
	// OriginOriginal marks lines present in the contract as signed.
	OriginOriginal ItemOrigin = "original"
	// OriginAdditive marks lines whose quantity was changed by an amendment.
	OriginAdditive ItemOrigin = "additive"
	// OriginExtracontractual marks lines created entirely by an amendment. Their
	// quantity already reflects the amendment, so amendment deltas never apply
	// to them again.
	OriginExtracontractual ItemOrigin = "extracontractual"
)

type Budget struct {
	ID             int
	Name           string
	ContractNumber string
	CreatedAt      time.Time
}

// BudgetItem is one line of a hierarchical construction budget. Macro items
// aggregate their children and never carry an executed quantity of their own.
type BudgetItem struct {
	ID       int
	BudgetID int
	// ItemCode is the hierarchical identifier, e.g. "1.2.3", unique within a budget.
	ItemCode string
	// ParentCode references the containing macro item; empty for root-level items.
	ParentCode  string
	IsMacro     bool
	Description string
	Unit        string
	// Quantity is the contracted quantity, meaningful only for leaf items.
	Quantity decimal.Decimal
	Origin   ItemOrigin
	// ExternalCode is the unit-price-table reference used to match amendment
	// lines against this item. Distinct from ItemCode.
	ExternalCode string
}

func parseQuantity(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
