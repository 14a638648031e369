package ingestion

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

// productHeaderRow is where the product list export puts its header (one
// title row precedes it).
const productHeaderRow = 1

// ParseProductList parses the product-to-vendor mapping workbook.
func ParseProductList(f *excelize.File) ([]domain.Product, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) <= productHeaderRow {
		return nil, fmt.Errorf("product list: header row not found")
	}

	cols := indexHeader(rows[productHeaderRow])
	var products []domain.Product

	for i := productHeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		if strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}

		vendor := strings.TrimSpace(cellByName(row, cols, "Vendor"))
		if vendor == "" {
			vendor = domain.UnassignedVendor
		}

		products = append(products, domain.Product{
			Barcode:     strings.TrimSpace(cellByName(row, cols, "Barcode")),
			ProductCode: strings.TrimSpace(cellByName(row, cols, "ProductCode")),
			Name:        strings.TrimSpace(cellByName(row, cols, "Name")),
			Vendor:      vendor,
			UnitPrice:   parseAmount(cellByName(row, cols, "UnitPrice")),
		})
	}

	return products, nil
}
