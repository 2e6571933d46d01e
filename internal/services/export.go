package services

import (
	"encoding/json"
	"io"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/example/carcino/internal/history"
)

// ExportContentType is the MIME type of the history workbook.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHistory writes the medical history as a single sheet workbook.
func ExportHistory(w io.Writer, items []history.Item) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Medical History")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range []string{"ID", "Type", "Summary", "Date", "Details"} {
		headerRow.AddCell().SetValue(h)
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetValue(item.ID)
		row.AddCell().SetValue(string(item.Kind))
		row.AddCell().SetValue(item.Data)
		row.AddCell().SetValue(item.Date.Format(time.RFC3339))

		details := ""
		if item.Details != nil {
			if encoded, err := json.Marshal(item.Details); err == nil {
				details = string(encoded)
			}
		}
		row.AddCell().SetValue(details)
	}

	return file.Write(w)
}
