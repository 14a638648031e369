package ingestion

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

// receiptHeaderRow is where the receipt detail export puts its header (two
// title rows precede it).
const receiptHeaderRow = 2

// ParseReceiptDetail parses the itemized receipt-line sales detail. The
// export only prints the date and receipt number on each receipt's first
// line; subsequent lines inherit them. Subtotal and grand-total rows are
// skipped.
func ParseReceiptDetail(f *excelize.File) ([]domain.ReceiptLine, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) <= receiptHeaderRow {
		return nil, fmt.Errorf("receipt detail: header row not found")
	}

	cols := indexHeader(rows[receiptHeaderRow])
	var lines []domain.ReceiptLine

	var currentDate string
	var currentReceipt string

	for i := receiptHeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		first := strings.TrimSpace(cell(row, 0))
		if isTotalRow(first) || strings.TrimSpace(cellByName(row, cols, "Gross")) == "" {
			continue
		}

		if v := strings.TrimSpace(cellByName(row, cols, "Date")); v != "" {
			currentDate = v
		}
		if v := strings.TrimSpace(cellByName(row, cols, "ReceiptNo")); v != "" {
			currentReceipt = v
		}

		date, err := ParseDate(currentDate)
		if err != nil {
			return nil, fmt.Errorf("receipt detail row %d: %w", i+1, err)
		}

		lines = append(lines, domain.ReceiptLine{
			Date:           date,
			ReceiptNo:      currentReceipt,
			SaleTime:       strings.TrimSpace(cellByName(row, cols, "Time")),
			ProductCode:    strings.TrimSpace(cellByName(row, cols, "ProductCode")),
			Barcode:        strings.TrimSpace(cellByName(row, cols, "Barcode")),
			ProductName:    strings.TrimSpace(cellByName(row, cols, "ProductName")),
			Quantity:       parseQuantity(cellByName(row, cols, "Quantity")),
			GrossAmount:    parseAmount(cellByName(row, cols, "Gross")),
			DiscountAmount: parseAmount(cellByName(row, cols, "Discount")),
			NetAmount:      parseAmount(cellByName(row, cols, "Net")),
			DiscountTag:    parseDiscountTag(cellByName(row, cols, "DiscountTag")),
		})
	}

	return lines, nil
}

func isTotalRow(first string) bool {
	switch first {
	case "Subtotal", "Total", "합계", "총합계":
		return true
	}
	return false
}

// parseQuantity defaults to one unit: the export leaves the cell blank for
// single-quantity lines.
func parseQuantity(s string) int {
	if q := int(parseAmount(s)); q > 0 {
		return q
	}
	return 1
}

func parseDiscountTag(s string) domain.DiscountTag {
	switch strings.TrimSpace(s) {
	case "coupon", "쿠폰할인":
		return domain.DiscountTagCoupon
	case "service", "서비스할인":
		return domain.DiscountTagService
	case "general", "일반할인":
		return domain.DiscountTagGeneral
	default:
		return domain.DiscountTagNone
	}
}
