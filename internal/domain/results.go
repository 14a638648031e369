package domain

import "time"

// MatchMethod tags how a pair or cross-feed match was established. The
// offset detector and the cross-feed matcher each try their tightest method
// first and only fall back to looser ones.
type MatchMethod string

const (
	// Offset detector tiers.
	MethodApprovalNumber      MatchMethod = "approval-number+amount"
	MethodCardAmountDate      MatchMethod = "card+amount+date"
	MethodIssuerAmountSameDay MatchMethod = "issuer+amount+same-day"

	// Cross-feed matcher tiers.
	MethodDateAmountIssuer MatchMethod = "date+amount+issuer"
	MethodDateAmount       MatchMethod = "date+amount"
)

// OffsetPair is an approval and the cancellation that voids it, netting to
// zero within one feed. Amount is the resolved absolute amount of both legs.
type OffsetPair struct {
	Approval     PosTransaction `json:"approval"`
	Cancellation PosTransaction `json:"cancellation"`
	Amount       int64          `json:"amount"`
	Issuer       string         `json:"issuer"`
	Method       MatchMethod    `json:"method"`
}

// MatchResult links one settlement-batch record to one POS approval.
type MatchResult struct {
	Settlement SettlementRecord `json:"settlement"`
	Pos        PosTransaction   `json:"pos"`
	Method     MatchMethod      `json:"method"`
}

// UnmatchedPos is a POS approval with no settlement-batch counterpart,
// labeled with why it ended up unmatched.
type UnmatchedPos struct {
	Txn    PosTransaction `json:"txn"`
	Reason string         `json:"reason"`
}

// UnmatchedSettlement is a settled batch record no POS approval claimed.
type UnmatchedSettlement struct {
	Record SettlementRecord `json:"record"`
	Reason string           `json:"reason"`
}

// LiableParty is the side that bears a discount's cost for settlement.
type LiableParty string

const (
	LiableNone   LiableParty = "none"
	LiableSeller LiableParty = "seller"
	LiableVendor LiableParty = "vendor"
)

// LineSettlement is the per-line detail of a vendor settlement.
type LineSettlement struct {
	SaleDate       time.Time   `json:"sale_date"`
	SettlementDate time.Time   `json:"settlement_date,omitempty"`
	CardPaid       bool        `json:"card_paid"`
	Issuer         string      `json:"issuer,omitempty"`
	FeeRate        string      `json:"fee_rate,omitempty"`
	ProductName    string      `json:"product_name"`
	ProductCode    string      `json:"product_code"`
	Barcode        string      `json:"barcode,omitempty"`
	UnitPrice      int64       `json:"unit_price"`
	Quantity       int         `json:"quantity"`
	GrossAmount    int64       `json:"gross_amount"`
	Discounted     bool        `json:"discounted"`
	DiscountPct    int         `json:"discount_pct"`
	DiscountAmount int64       `json:"discount_amount"`
	Category       string      `json:"category"`
	LiableParty    LiableParty `json:"liable_party"`
	SettlementBase int64       `json:"settlement_base"`
	Fee            int64       `json:"fee"`
	Payout         int64       `json:"payout"`
}

// VendorSettlement is the per-vendor rollup of classified receipt lines
// after discount-liability allocation and card fees.
type VendorSettlement struct {
	Vendor              string           `json:"vendor"`
	GrossSales          int64            `json:"gross_sales"`
	DiscountTotal       int64            `json:"discount_total"`
	NetSales            int64            `json:"net_sales"`
	CardSales           int64            `json:"card_sales"`
	NonCardSales        int64            `json:"non_card_sales"`
	SellerBorneDiscount int64            `json:"seller_borne_discount"`
	VendorBorneDiscount int64            `json:"vendor_borne_discount"`
	FeeTotal            int64            `json:"fee_total"`
	Payout              int64            `json:"payout"`
	ItemCount           int              `json:"item_count"`
	CardItemCount       int              `json:"card_item_count"`
	NonCardItemCount    int              `json:"non_card_item_count"`
	Lines               []LineSettlement `json:"lines,omitempty"`
}
