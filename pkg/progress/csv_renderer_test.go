package progress

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderView(t *testing.T) {
	t.Run("flattens the tree depth-first with a trailing total", func(t *testing.T) {
		// given
		view := View{
			ReportUid:      "rep-uid",
			OverallPercent: 45,
			Items: []*ItemProgress{
				{
					ItemCode: "1", Description: "Estrutura", IsMacro: true,
					AdjustedQuantity: decimal.NewFromInt(150),
					TotalExecuted:    decimal.NewFromInt(90),
					ExecutedToday:    decimal.NewFromInt(10),
					AvailableBalance: decimal.NewFromInt(60),
					PercentExecuted:  60,
					Children: []*ItemProgress{
						{
							ItemCode: "1.1", Description: "Concreto", Unit: "m3",
							AdjustedQuantity: decimal.NewFromInt(100),
							TotalExecuted:    decimal.NewFromInt(60),
							ExecutedToday:    decimal.NewFromInt(10),
							AvailableBalance: decimal.NewFromInt(40),
							PercentExecuted:  60,
						},
					},
				},
			},
		}

		// when
		rendered, err := NewCsvRenderer().RenderView(view)

		// then
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(rendered), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "Item,Description,Unit,Adjusted quantity,Executed today,Total executed,Available balance,% executed", lines[0])
		assert.Equal(t, "1,Estrutura,,150,10,90,60,60", lines[1])
		assert.Equal(t, "1.1,Concreto,m3,100,10,60,40,60", lines[2])
		assert.Equal(t, "TOTAL,,,,,,,45", lines[3])
	})

	t.Run("empty view still renders header and total", func(t *testing.T) {
		rendered, err := NewCsvRenderer().RenderView(View{})

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(rendered), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "TOTAL,,,,,,,0", lines[1])
	})
}
