package ingestion

import (
	"strings"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

// Directory resolves products to vendors. Both the barcode and the internal
// product code key the same entry, since the receipt export fills whichever
// the scanner produced.
type Directory struct {
	products map[string]domain.Product
}

// NewDirectory indexes the product list by barcode and product code.
func NewDirectory(products []domain.Product) *Directory {
	d := &Directory{products: make(map[string]domain.Product, len(products)*2)}
	for _, p := range products {
		if barcode := strings.TrimSpace(p.Barcode); barcode != "" {
			d.products[barcode] = p
		}
		if code := strings.TrimSpace(p.ProductCode); code != "" {
			d.products[code] = p
		}
	}
	return d
}

// Lookup finds the product for a receipt line, barcode first.
func (d *Directory) Lookup(productCode, barcode string) (domain.Product, bool) {
	if p, ok := d.products[strings.TrimSpace(barcode)]; ok && barcode != "" {
		return p, true
	}
	if p, ok := d.products[strings.TrimSpace(productCode)]; ok && productCode != "" {
		return p, true
	}
	return domain.Product{}, false
}

// Len reports the number of distinct keys in the directory.
func (d *Directory) Len() int {
	return len(d.products)
}
