package progress

import (
	"bytes"
	"encoding/csv"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderView(view View) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderView flattens the projected tree depth-first into CSV rows, one row
// per budget item, with the report total as the last line.
func (t *CsvRendererImpl) RenderView(view View) (string, error) {
	data := make([][]string, 0, 16)
	data = append(data, []string{
		"Item", "Description", "Unit",
		"Adjusted quantity", "Executed today", "Total executed",
		"Available balance", "% executed",
	})
	var appendRows func(items []*ItemProgress)
	appendRows = func(items []*ItemProgress) {
		for _, item := range items {
			data = append(data, []string{
				item.ItemCode,
				item.Description,
				item.Unit,
				item.AdjustedQuantity.String(),
				item.ExecutedToday.String(),
				item.TotalExecuted.String(),
				item.AvailableBalance.String(),
				strconv.Itoa(item.PercentExecuted),
			})
			appendRows(item.Children)
		}
	}
	appendRows(view.Items)
	data = append(data, []string{"TOTAL", "", "", "", "", "", "", strconv.Itoa(view.OverallPercent)})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
