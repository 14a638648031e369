package domain

import (
	"strings"
	"time"
)

type DiscountTag string

const (
	DiscountTagNone    DiscountTag = ""
	DiscountTagCoupon  DiscountTag = "coupon"
	DiscountTagService DiscountTag = "service"
	DiscountTagGeneral DiscountTag = "general"
)

// ReceiptLine is one itemized line of the receipt-level sales detail export.
type ReceiptLine struct {
	Date           time.Time   `json:"date"`
	ReceiptNo      string      `json:"receipt_no"`
	SaleTime       string      `json:"sale_time,omitempty"`
	ProductCode    string      `json:"product_code"`
	Barcode        string      `json:"barcode,omitempty"`
	ProductName    string      `json:"product_name"`
	Quantity       int         `json:"quantity"`
	GrossAmount    int64       `json:"gross_amount"`
	DiscountAmount int64       `json:"discount_amount"`
	NetAmount      int64       `json:"net_amount"`
	DiscountTag    DiscountTag `json:"discount_tag,omitempty"`
}

// Product is the vendor-lookup collaborator payload: maps a product to the
// vendor that supplies it and its list price.
type Product struct {
	Barcode     string `json:"barcode,omitempty"`
	ProductCode string `json:"product_code"`
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	UnitPrice   int64  `json:"unit_price"`
}

// UnassignedVendor is the bucket for products with no vendor mapping.
const UnassignedVendor = "unassigned"

// ReceiptKey builds the (date, receipt number) key shared by the receipt
// detail and the POS log. Both feeds must carry dates in the canonical form
// before this is called.
func ReceiptKey(date time.Time, receiptNo string) string {
	return date.Format("2006-01-02") + "_" + strings.TrimSpace(receiptNo)
}
