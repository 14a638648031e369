package ingestion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
)

// ParseSettlementBatch parses the acquirer settlement batch workbook.
//
// The export carries preamble rows before the real header; the header row
// is the first whose leading cell is "No.". Columns are mapped by header
// name: No., Date, Issuer, ApprovalNo, CardNo, Amount, Fee, Installment.
// Only rows with a numeric sequence number are data rows.
func ParseSettlementBatch(f *excelize.File) ([]domain.SettlementRecord, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	headerIdx := findHeaderRow(rows, "No.")
	if headerIdx < 0 {
		return nil, fmt.Errorf("settlement batch: header row not found")
	}

	cols := indexHeader(rows[headerIdx])
	var records []domain.SettlementRecord

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		seq, ok := parseSeqNo(cell(row, 0))
		if !ok {
			continue
		}

		date, err := ParseDate(cellByName(row, cols, "Date"))
		if err != nil {
			return nil, fmt.Errorf("settlement batch row %d: %w", i+1, err)
		}

		records = append(records, domain.SettlementRecord{
			SeqNo:             seq,
			BusinessDate:      date,
			Issuer:            feecatalog.NormalizeIssuer(cellByName(row, cols, "Issuer")),
			GrossAmount:       parseAmount(cellByName(row, cols, "Amount")),
			FeeTotal:          parseAmount(cellByName(row, cols, "Fee")),
			ApprovalNo:        strings.TrimSpace(cellByName(row, cols, "ApprovalNo")),
			CardNo:            strings.TrimSpace(cellByName(row, cols, "CardNo")),
			InstallmentMonths: int(parseAmount(cellByName(row, cols, "Installment"))),
		})
	}

	return records, nil
}

// findHeaderRow scans for the row whose first cell equals the marker
// (case-insensitive).
func findHeaderRow(rows [][]string, marker string) int {
	for i, row := range rows {
		if strings.EqualFold(strings.TrimSpace(cell(row, 0)), marker) {
			return i
		}
	}
	return -1
}

// indexHeader maps trimmed header names to their column index.
func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			cols[name] = i
		}
	}
	return cols
}

// cell reads a column defensively: excelize trims trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func cellByName(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return cell(row, i)
}

// parseSeqNo accepts only numeric sequence cells; subtotal and footer rows
// carry labels there instead.
func parseSeqNo(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// parseAmount reads a won amount, tolerating thousands separators and the
// float rendering excelize gives numeric cells. Empty or non-numeric cells
// read as zero.
func parseAmount(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(v)
}
