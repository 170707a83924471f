package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// EcrireExcel renders the journal as an .xlsx workbook for accountants who
// rework entries before import.
func EcrireExcel(ecritures []LigneEcriture) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ecritures"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	widths := []float64{10, 12, 12, 40, 16, 12, 12}
	columns := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	montantStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		NumFmt: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	headers := []string{"Journal", "Date", "Compte", "Libellé", "Pièce", "Débit", "Crédit"}
	for i, h := range headers {
		f.SetCellValue(sheet, columns[i]+"1", h)
	}
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	row := 2
	var totalDebit, totalCredit float64
	for _, e := range ecritures {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "A"+rowStr, e.Journal)
		f.SetCellValue(sheet, "B"+rowStr, e.Date)
		f.SetCellValue(sheet, "C"+rowStr, e.Compte)
		f.SetCellValue(sheet, "D"+rowStr, e.Libelle)
		f.SetCellValue(sheet, "E"+rowStr, e.Piece)
		f.SetCellValue(sheet, "F"+rowStr, e.Debit)
		f.SetCellValue(sheet, "G"+rowStr, e.Credit)
		f.SetCellStyle(sheet, "F"+rowStr, "G"+rowStr, montantStyle)
		totalDebit += e.Debit
		totalCredit += e.Credit
		row++
	}

	row++
	rowStr := fmt.Sprintf("%d", row)
	f.SetCellValue(sheet, "E"+rowStr, "Totaux")
	f.SetCellValue(sheet, "F"+rowStr, totalDebit)
	f.SetCellValue(sheet, "G"+rowStr, totalCredit)
	f.SetCellStyle(sheet, "F"+rowStr, "G"+rowStr, totalStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
