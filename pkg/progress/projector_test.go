package progress

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/execution"
)

func leafState(executedToday, total, adjusted string, percent int) execution.DerivedState {
	return execution.DerivedState{
		ExecutedToday:    decimal.RequireFromString(executedToday),
		TotalExecuted:    decimal.RequireFromString(total),
		AdjustedQuantity: decimal.RequireFromString(adjusted),
		AvailableBalance: decimal.RequireFromString(adjusted).Sub(decimal.RequireFromString(total)),
		PercentExecuted:  percent,
	}
}

func TestProject(t *testing.T) {
	t.Run("rolls macro items up from their children", func(t *testing.T) {
		// given
		tree := budget.BuildTree([]budget.BudgetItem{
			{ID: 1, ItemCode: "1", IsMacro: true, Description: "Fundacao"},
			{ID: 2, ItemCode: "1.1", ParentCode: "1", Quantity: decimal.NewFromInt(100)},
			{ID: 3, ItemCode: "1.2", ParentCode: "1", Quantity: decimal.NewFromInt(50)},
		})
		states := map[int]execution.DerivedState{
			2: leafState("10", "60", "100", 60),
			3: leafState("0", "30", "50", 60),
		}

		// when
		items := Project(tree, states)

		// then
		require.Len(t, items, 1)
		macro := items[0]
		assert.True(t, macro.IsMacro)
		assert.True(t, macro.AdjustedQuantity.Equal(decimal.NewFromInt(150)))
		assert.True(t, macro.TotalExecuted.Equal(decimal.NewFromInt(90)))
		assert.True(t, macro.ExecutedToday.Equal(decimal.NewFromInt(10)))
		assert.True(t, macro.AvailableBalance.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, 60, macro.PercentExecuted)
		require.Len(t, macro.Children, 2)
		assert.Equal(t, "1.1", macro.Children[0].ItemCode)
	})

	t.Run("rolls up across intermediate levels", func(t *testing.T) {
		// given
		tree := budget.BuildTree([]budget.BudgetItem{
			{ID: 1, ItemCode: "1", IsMacro: true},
			{ID: 2, ItemCode: "1.1", ParentCode: "1", IsMacro: true},
			{ID: 3, ItemCode: "1.1.1", ParentCode: "1.1"},
		})
		states := map[int]execution.DerivedState{
			3: leafState("5", "5", "20", 25),
		}

		// when
		items := Project(tree, states)

		// then
		require.Len(t, items, 1)
		assert.Equal(t, 25, items[0].PercentExecuted)
		assert.Equal(t, 25, items[0].Children[0].PercentExecuted)
	})

	t.Run("macro with no children reports zero progress", func(t *testing.T) {
		// given
		tree := budget.BuildTree([]budget.BudgetItem{
			{ID: 1, ItemCode: "9", IsMacro: true},
		})

		// when
		items := Project(tree, map[int]execution.DerivedState{})

		// then
		require.Len(t, items, 1)
		assert.Equal(t, 0, items[0].PercentExecuted)
		assert.True(t, items[0].AdjustedQuantity.IsZero())
	})

	t.Run("propagates overrun flags to ancestors", func(t *testing.T) {
		// given
		tree := budget.BuildTree([]budget.BudgetItem{
			{ID: 1, ItemCode: "1", IsMacro: true},
			{ID: 2, ItemCode: "1.1", ParentCode: "1"},
		})
		overrun := leafState("0", "121", "120", 100)
		overrun.ExceedsLimit = true
		states := map[int]execution.DerivedState{2: overrun}

		// when
		items := Project(tree, states)

		// then
		assert.True(t, items[0].ExceedsLimit)
	})

	t.Run("leaf without a state shows zero values", func(t *testing.T) {
		// given
		tree := budget.BuildTree([]budget.BudgetItem{
			{ID: 1, ItemCode: "1"},
		})

		// when
		items := Project(tree, map[int]execution.DerivedState{})

		// then
		require.Len(t, items, 1)
		assert.True(t, items[0].TotalExecuted.IsZero())
		assert.Equal(t, 0, items[0].PercentExecuted)
	})
}

func TestOverallPercent(t *testing.T) {
	t.Run("weights roots by adjusted quantity", func(t *testing.T) {
		items := []*ItemProgress{
			{AdjustedQuantity: decimal.NewFromInt(100), TotalExecuted: decimal.NewFromInt(100)},
			{AdjustedQuantity: decimal.NewFromInt(300), TotalExecuted: decimal.NewFromInt(0)},
		}
		assert.Equal(t, 25, OverallPercent(items))
	})

	t.Run("empty view yields zero", func(t *testing.T) {
		assert.Equal(t, 0, OverallPercent(nil))
	})
}
