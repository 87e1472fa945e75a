package progress

import (
	"github.com/shopspring/decimal"

	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/execution"
)

// Project turns the budget forest plus per-leaf ledger states into the
// report's progress view. Leaves mirror their derived state; macro items
// roll up the sums of their subtrees, so a parent's percentage reflects
// physical progress across all of its children.
func Project(nodes []*budget.TreeNode, states map[int]execution.DerivedState) []*ItemProgress {
	items := make([]*ItemProgress, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, projectNode(node, states))
	}
	return items
}

func projectNode(node *budget.TreeNode, states map[int]execution.DerivedState) *ItemProgress {
	item := &ItemProgress{
		ItemId:      node.Item.ID,
		ItemCode:    node.Item.ItemCode,
		Description: node.Item.Description,
		Unit:        node.Item.Unit,
		IsMacro:     node.Item.IsMacro,
		Origin:      node.Item.Origin,
	}
	for _, child := range node.Children {
		item.Children = append(item.Children, projectNode(child, states))
	}

	if node.Item.IsMacro {
		adjusted, executedToday, total := decimal.Zero, decimal.Zero, decimal.Zero
		for _, child := range item.Children {
			adjusted = adjusted.Add(child.AdjustedQuantity)
			executedToday = executedToday.Add(child.ExecutedToday)
			total = total.Add(child.TotalExecuted)
			if child.ExceedsLimit {
				item.ExceedsLimit = true
			}
		}
		available := adjusted.Sub(total)
		if available.IsNegative() {
			available = decimal.Zero
		}
		item.AdjustedQuantity = adjusted
		item.ExecutedToday = executedToday
		item.TotalExecuted = total
		item.AvailableBalance = available
		item.PercentExecuted = rollupPercent(total, adjusted)
		return item
	}

	state := states[node.Item.ID]
	item.AdjustedQuantity = state.AdjustedQuantity
	item.ExecutedToday = state.ExecutedToday
	item.TotalExecuted = state.TotalExecuted
	item.AvailableBalance = state.AvailableBalance
	item.PercentExecuted = state.PercentExecuted
	item.ExceedsLimit = state.ExceedsLimit
	return item
}

// OverallPercent aggregates the root items into a single figure for the
// whole report.
func OverallPercent(items []*ItemProgress) int {
	adjusted, total := decimal.Zero, decimal.Zero
	for _, item := range items {
		adjusted = adjusted.Add(item.AdjustedQuantity)
		total = total.Add(item.TotalExecuted)
	}
	return rollupPercent(total, adjusted)
}

func rollupPercent(total, adjusted decimal.Decimal) int {
	if !adjusted.IsPositive() {
		return 0
	}
	percent := total.Div(adjusted).Mul(decimal.NewFromInt(100)).Round(0)
	if percent.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return int(percent.IntPart())
}
