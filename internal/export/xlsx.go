package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"igreja/internal/core"
)

const (
	memberSheet = "Membros"
	moneyFormat = "#,##0.00"
)

// PanelSheetName is the worksheet name of a year's panel.
func PanelSheetName(year int) string {
	return "Painel " + strconv.Itoa(year)
}

// WritePanelXLSX writes the annual panel as a single-sheet workbook.
func WritePanelXLSX(w io.Writer, p core.AnnualPanel) error {
	return writeTable(w, PanelSheetName(p.Year), PanelTable(p), true)
}

// WriteMembersXLSX writes the roster as a single-sheet workbook.
func WriteMembersXLSX(w io.Writer, members []core.Member) error {
	return writeTable(w, memberSheet, MembersTable(members), false)
}

func writeTable(w io.Writer, sheet string, table [][]any, money bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(table) == 0 {
		return nil
	}
	cols := len(table[0])
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return fmt.Errorf("convert column number: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if cols > 1 {
		if err := f.SetColWidth(sheet, "B", lastCol, 14); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if money && len(table) > 1 {
		moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(moneyFormat)})
		if err != nil {
			return fmt.Errorf("create money style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(cols, len(table))
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellStyle(sheet, "B2", last, moneyStyle); err != nil {
			return fmt.Errorf("set money style: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func stringPtr(s string) *string { return &s }
