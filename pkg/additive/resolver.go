package additive

import (
	"sort"
	"strings"

	"github.com/obralog/obralog/pkg/budget"
	"github.com/shopspring/decimal"
)

// Resolver computes, per budget item, the net signed quantity delta contributed
// by approved amendment lines. It is built once per budget from an immutable
// snapshot of items and line entries and is safe for concurrent reads.
type Resolver struct {
	deltasByItemCode map[string]decimal.Decimal
	unresolved       []LineEntry
}

// NewResolver builds the externalCode -> itemCode lookup (keys trimmed of
// whitespace) and accumulates each line's delta onto the resolved item code.
// A line whose external code matches no item's external code falls back to a
// direct item-code match. Lines that still resolve to no item are ignored for
// the delta computation but kept as integrity diagnostics (Unresolved).
func NewResolver(items []budget.BudgetItem, entries []LineEntry) *Resolver {
	lookup := make(map[string]string, len(items))
	knownItemCodes := make(map[string]bool, len(items))
	for _, item := range items {
		knownItemCodes[item.ItemCode] = true
		externalCode := strings.TrimSpace(item.ExternalCode)
		if externalCode == "" {
			continue
		}
		if _, exists := lookup[externalCode]; !exists {
			lookup[externalCode] = item.ItemCode
		}
	}

	// Amendments apply cumulatively in session order. The net sum does not
	// depend on it, but diagnostics keep a deterministic order.
	sorted := make([]LineEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SessionNumber < sorted[j].SessionNumber
	})

	r := &Resolver{deltasByItemCode: make(map[string]decimal.Decimal)}
	for _, entry := range sorted {
		code := strings.TrimSpace(entry.ExternalCode)
		itemCode, ok := lookup[code]
		if !ok {
			if !knownItemCodes[code] {
				r.unresolved = append(r.unresolved, entry)
				continue
			}
			itemCode = code
		}
		r.deltasByItemCode[itemCode] = r.deltasByItemCode[itemCode].Add(entry.QuantityDelta)
	}
	return r
}

// DeltaFor returns the net signed delta applicable to the item. Always zero for
// extracontractual items: their quantity already encodes the post-amendment
// value, so reapplying the delta would double-count.
func (r *Resolver) DeltaFor(item budget.BudgetItem) decimal.Decimal {
	if item.Origin == budget.OriginExtracontractual {
		return decimal.Zero
	}
	return r.deltasByItemCode[item.ItemCode]
}

// AdjustedQuantity returns the contracted quantity adjusted by the net delta,
// floored at zero: a suppression can never make a contracted quantity negative.
func (r *Resolver) AdjustedQuantity(item budget.BudgetItem) decimal.Decimal {
	adjusted := item.Quantity.Add(r.DeltaFor(item))
	if adjusted.IsNegative() {
		return decimal.Zero
	}
	return adjusted
}

// Unresolved returns the amendment lines that matched no budget item. They
// contribute to no delta; callers may surface them as integrity warnings.
func (r *Resolver) Unresolved() []LineEntry {
	return r.unresolved
}
