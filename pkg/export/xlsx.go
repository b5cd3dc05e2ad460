package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Pushparaj13811/plant-project-v/entities"
	"github.com/Pushparaj13811/plant-project-v/pkg/engine"
)

const SheetName = "Records"

// Layout is the column order of the sheet: general info, numeric inputs, then derived values.
type Layout struct {
	General    []engine.ColumnInfo
	Inputs     []engine.ColumnInfo
	Calculated []engine.ColumnInfo
}

// LayoutFrom splits the input columns by type and keeps the calculated columns as listed.
func LayoutFrom(input, calculated []engine.ColumnInfo) Layout {
	var l Layout
	for _, c := range input {
		if c.Type == engine.TypeNumber {
			l.Inputs = append(l.Inputs, c)
		} else {
			l.General = append(l.General, c)
		}
	}
	l.Calculated = calculated
	return l
}

// Header returns the first row of the sheet.
func (l Layout) Header() []string {
	h := []string{"ID", "Plant ID"}
	for _, group := range [][]engine.ColumnInfo{l.General, l.Inputs, l.Calculated} {
		for _, c := range group {
			h = append(h, c.Label)
		}
	}
	return append(h, "Errors")
}

// Row renders one record. Missing numbers are left blank.
func (l Layout) Row(r *entities.PlantRecord) []any {
	row := []any{r.ID, r.PlantID}
	text := r.Text()
	for _, c := range l.General {
		row = append(row, text[c.Name])
	}
	nums := r.Numbers()
	for _, c := range l.Inputs {
		row = append(row, cellValue(nums[c.Name]))
	}
	var (
		values map[string]*float64
		errs   map[string]string
	)
	if r.Calculated != nil {
		values, errs = r.Calculated.Values, r.Calculated.Errors
	}
	for _, c := range l.Calculated {
		row = append(row, cellValue(values[c.Name]))
	}
	return append(row, joinErrors(errs))
}

func cellValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func joinErrors(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + errs[k]
	}
	return strings.Join(parts, "; ")
}

// Write streams records into a single-sheet workbook.
func Write(w io.Writer, l Layout, records []entities.PlantRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := l.Header()
	if err := sw.SetColWidth(1, len(header), 16); err != nil {
		return err
	}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return err
	}

	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, l.Row(&records[i])); err != nil {
			return fmt.Errorf("write record %d: %w", records[i].ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}
