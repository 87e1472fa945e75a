package progress

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obralog/obralog/pkg/budget"
)

// ItemProgress is the projected execution state of one budget item within a
// report. Macro items carry values rolled up from their children; leaves
// mirror the execution ledger.
type ItemProgress struct {
	ItemId           int               `json:"itemId"`
	ItemCode         string            `json:"itemCode"`
	Description      string            `json:"description"`
	Unit             string            `json:"unit"`
	IsMacro          bool              `json:"isMacro"`
	Origin           budget.ItemOrigin `json:"origin"`
	AdjustedQuantity decimal.Decimal   `json:"adjustedQuantity"`
	ExecutedToday    decimal.Decimal   `json:"executedToday"`
	TotalExecuted    decimal.Decimal   `json:"totalExecuted"`
	AvailableBalance decimal.Decimal   `json:"availableBalance"`
	PercentExecuted  int               `json:"percentExecuted"`
	ExceedsLimit     bool              `json:"exceedsLimit"`
	Children         []*ItemProgress   `json:"children,omitempty"`
}

// View is the full progress projection of one report.
type View struct {
	ReportUid      string          `json:"reportUid"`
	BudgetId       int             `json:"budgetId"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	OverallPercent int             `json:"overallPercent"`
	Items          []*ItemProgress `json:"items"`
}
