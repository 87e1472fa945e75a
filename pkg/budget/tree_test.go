package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(code, parent string, isMacro bool) BudgetItem {
	return BudgetItem{ItemCode: code, ParentCode: parent, IsMacro: isMacro}
}

func TestBuildTree(t *testing.T) {
	t.Run("should nest children under their parents", func(t *testing.T) {
		// given
		items := []BudgetItem{
			item("1.2", "1", false),
			item("1", "", true),
			item("1.1", "1", false),
			item("2", "", true),
			item("2.1", "2", false),
		}

		// when
		roots := BuildTree(items)

		// then
		require.Len(t, roots, 2)
		assert.Equal(t, "1", roots[0].Item.ItemCode)
		require.Len(t, roots[0].Children, 2)
		assert.Equal(t, "1.1", roots[0].Children[0].Item.ItemCode)
		assert.Equal(t, "1.2", roots[0].Children[1].Item.ItemCode)
		assert.Equal(t, "2", roots[1].Item.ItemCode)
		require.Len(t, roots[1].Children, 1)
	})

	t.Run("should promote orphans to root instead of dropping them", func(t *testing.T) {
		// given
		items := []BudgetItem{
			item("1", "", true),
			item("1.1", "1", false),
			item("3.5", "3", false), // parent "3" does not exist
		}

		// when
		roots := BuildTree(items)

		// then
		require.Len(t, roots, 2)
		assert.Equal(t, "1", roots[0].Item.ItemCode)
		assert.Equal(t, "3.5", roots[1].Item.ItemCode)
	})

	t.Run("should break parent code cycles instead of dropping the group", func(t *testing.T) {
		// given: "1" and "2" name each other as parent
		items := []BudgetItem{
			item("1", "2", false),
			item("2", "1", false),
		}

		// when
		roots := BuildTree(items)

		// then: the cycle is broken at one link and both items survive
		require.Len(t, roots, 1)
		assert.Equal(t, "2", roots[0].Item.ItemCode)
		require.Len(t, roots[0].Children, 1)
		assert.Equal(t, "1", roots[0].Children[0].Item.ItemCode)
	})

	t.Run("should keep every item of a longer cycle exactly once", func(t *testing.T) {
		// given: 1 → 2 → 3 → 1
		items := []BudgetItem{
			item("1", "3", false),
			item("2", "1", false),
			item("3", "2", false),
		}

		// when
		roots := BuildTree(items)

		// then
		seen := map[string]int{}
		Walk(roots, func(node *TreeNode) {
			seen[node.Item.ItemCode]++
		})
		require.Len(t, seen, len(items))
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
	})

	t.Run("should keep every input item exactly once", func(t *testing.T) {
		// given
		items := []BudgetItem{
			item("2.10", "2", false),
			item("2.2", "2", false),
			item("2", "", true),
			item("9.9.9", "9.9", false),
			item("1", "", true),
		}

		// when
		roots := BuildTree(items)

		// then
		seen := map[string]int{}
		Walk(roots, func(node *TreeNode) {
			seen[node.Item.ItemCode]++
		})
		require.Len(t, seen, len(items))
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
	})

	t.Run("should order siblings by natural item code order", func(t *testing.T) {
		// given
		items := []BudgetItem{
			item("1.10", "1", false),
			item("1.2", "1", false),
			item("1.1", "1", false),
			item("1", "", true),
		}

		// when
		roots := BuildTree(items)

		// then
		require.Len(t, roots, 1)
		codes := make([]string, 0, 3)
		for _, child := range roots[0].Children {
			codes = append(codes, child.Item.ItemCode)
		}
		assert.Equal(t, []string{"1.1", "1.2", "1.10"}, codes)
	})

	t.Run("should be total over empty input", func(t *testing.T) {
		assert.Empty(t, BuildTree(nil))
	})

	t.Run("should not attach an item to itself when parent code equals own code", func(t *testing.T) {
		// given
		items := []BudgetItem{item("1", "1", false)}

		// when
		roots := BuildTree(items)

		// then
		require.Len(t, roots, 1)
		assert.Empty(t, roots[0].Children)
	})
}

func TestLessItemCode(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"numeric segments compare numerically", "1.2", "1.10", true},
		{"equal prefixes order by depth", "1", "1.1", true},
		{"different roots", "2", "10", true},
		{"equal codes are not less", "1.2.3", "1.2.3", false},
		{"non-numeric falls back to lexicographic", "1.a", "1.b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lessItemCode(tt.a, tt.b))
		})
	}
}
