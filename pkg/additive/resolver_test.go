package additive

import (
	"testing"

	"github.com/obralog/obralog/pkg/budget"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafItem(itemCode, externalCode string, quantity string, origin budget.ItemOrigin) budget.BudgetItem {
	return budget.BudgetItem{
		ItemCode:     itemCode,
		ExternalCode: externalCode,
		Quantity:     decimal.RequireFromString(quantity),
		Origin:       origin,
	}
}

func line(externalCode, delta string, session int) LineEntry {
	return LineEntry{
		ExternalCode:  externalCode,
		QuantityDelta: decimal.RequireFromString(delta),
		SessionNumber: session,
	}
}

func TestResolver_DeltaFor(t *testing.T) {
	t.Run("should accumulate deltas matched through the external code lookup", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{
			leafItem("1.1", "SINAPI-100", "100", budget.OriginOriginal),
			leafItem("1.2", "SINAPI-200", "50", budget.OriginOriginal),
		}
		entries := []LineEntry{
			line("SINAPI-100", "20", 1),
			line("SINAPI-100", "-5", 2),
			line("SINAPI-200", "10", 1),
		}

		// when
		resolver := NewResolver(items, entries)

		// then
		assert.True(t, resolver.DeltaFor(items[0]).Equal(decimal.RequireFromString("15")))
		assert.True(t, resolver.DeltaFor(items[1]).Equal(decimal.RequireFromString("10")))
	})

	t.Run("should trim whitespace on both sides of the lookup", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "  SINAPI-100 ", "100", budget.OriginOriginal)}
		entries := []LineEntry{line(" SINAPI-100", "20", 1)}

		// when
		resolver := NewResolver(items, entries)

		// then
		assert.True(t, resolver.DeltaFor(items[0]).Equal(decimal.RequireFromString("20")))
	})

	t.Run("should fall back to a direct item code match when the lookup misses", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "", "100", budget.OriginOriginal)}
		entries := []LineEntry{line("1.1", "7.5", 1)}

		// when
		resolver := NewResolver(items, entries)

		// then
		assert.True(t, resolver.DeltaFor(items[0]).Equal(decimal.RequireFromString("7.5")))
		assert.Empty(t, resolver.Unresolved())
	})

	t.Run("should always return zero for extracontractual items", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "SINAPI-100", "30", budget.OriginExtracontractual)}
		entries := []LineEntry{line("SINAPI-100", "20", 1)}

		// when
		resolver := NewResolver(items, entries)

		// then
		assert.True(t, resolver.DeltaFor(items[0]).IsZero())
	})

	t.Run("should keep unmatched lines as diagnostics without affecting deltas", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "SINAPI-100", "100", budget.OriginOriginal)}
		entries := []LineEntry{
			line("SINAPI-100", "20", 1),
			line("UNKNOWN-999", "50", 1),
		}

		// when
		resolver := NewResolver(items, entries)

		// then
		assert.True(t, resolver.DeltaFor(items[0]).Equal(decimal.RequireFromString("20")))
		require.Len(t, resolver.Unresolved(), 1)
		assert.Equal(t, "UNKNOWN-999", resolver.Unresolved()[0].ExternalCode)
	})
}

func TestResolver_AdjustedQuantity(t *testing.T) {
	t.Run("should add the net delta to the contracted quantity", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "SINAPI-100", "100", budget.OriginOriginal)}
		resolver := NewResolver(items, []LineEntry{line("SINAPI-100", "20", 1)})

		// when
		adjusted := resolver.AdjustedQuantity(items[0])

		// then
		assert.True(t, adjusted.Equal(decimal.RequireFromString("120")))
	})

	t.Run("should floor the adjusted quantity at zero on suppression", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "SINAPI-100", "10", budget.OriginOriginal)}
		resolver := NewResolver(items, []LineEntry{line("SINAPI-100", "-25", 1)})

		// when
		adjusted := resolver.AdjustedQuantity(items[0])

		// then
		assert.True(t, adjusted.IsZero())
	})

	t.Run("should keep extracontractual quantity untouched", func(t *testing.T) {
		// given
		items := []budget.BudgetItem{leafItem("1.1", "SINAPI-100", "30", budget.OriginExtracontractual)}
		resolver := NewResolver(items, []LineEntry{line("SINAPI-100", "20", 1)})

		// when
		adjusted := resolver.AdjustedQuantity(items[0])

		// then
		assert.True(t, adjusted.Equal(decimal.RequireFromString("30")))
	})
}
