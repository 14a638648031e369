// Package feecatalog holds the static issuer fee/settlement-lag table and
// the issuer name normalizer. The table mirrors the acquirer's published
// rate sheet; rates are percentages.
package feecatalog

import (
	"github.com/shopspring/decimal"
)

type CardClass string

const (
	CardClassCredit   CardClass = "credit"
	CardClassCheck    CardClass = "check"
	CardClassOverseas CardClass = "overseas"
	CardClassMoney    CardClass = "money"
)

// Entry is one issuer's row of the rate sheet. A zero rate means the issuer
// has no published rate for that card class.
type Entry struct {
	Credit   decimal.Decimal
	Check    decimal.Decimal
	Overseas decimal.Decimal
	Money    decimal.Decimal
	LagDays  int
	Note     string
}

// Fee is the resolved rate for one lookup. Known is false when the issuer
// was absent from the table and the default rate was applied; callers treat
// that as a data-quality warning, not an error.
type Fee struct {
	Rate    decimal.Decimal
	LagDays int
	Class   CardClass
	Known   bool
}

// Computation is a fee applied to a settlement base.
type Computation struct {
	Principal int64
	Fee       int64
	Net       int64
	Rate      decimal.Decimal
	LagDays   int
}

const (
	// DefaultLagDays is the fallback settlement lag (T+2).
	DefaultLagDays = 2
)

// DefaultRate is the fallback fee rate for issuers missing from the table.
var DefaultRate = decimal.RequireFromString("2.3")

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultEntries() map[string]Entry {
	return map[string]Entry{
		"KB":         {Credit: pct("2.3"), Check: pct("1.5"), Overseas: pct("4.0"), LagDays: 2, Note: "AMEX 2.3%, KakaoBank check 1.35%"},
		"Shinhan":    {Credit: pct("2.3"), Check: pct("1.5"), Overseas: pct("3.5"), LagDays: 2},
		"BC":         {Credit: pct("2.3"), Check: pct("1.35"), Overseas: pct("4.5"), LagDays: 2, Note: "NAPAS/SacomPay/VietPay/MIR/GPN/EVONET 4.50%"},
		"Lotte":      {Credit: pct("2.3"), Check: pct("1.5"), Overseas: pct("3.4"), LagDays: 2},
		"Samsung":    {Credit: pct("2.3"), Check: pct("1.55"), Overseas: pct("3.5"), LagDays: 2},
		"Hyundai":    {Credit: pct("2.3"), Check: pct("1.55"), Overseas: pct("4.0"), LagDays: 2},
		"NH":         {Credit: pct("2.3"), Check: pct("1.45"), Overseas: pct("4.0"), LagDays: 2},
		"Hana":       {Credit: pct("2.3"), Check: pct("1.51"), Overseas: pct("3.6"), LagDays: 2, Note: "CUP 3.60%"},
		"Woori":      {Credit: pct("2.3"), Check: pct("1.52"), LagDays: 2},
		"KakaoPay":   {Money: pct("1.8"), LagDays: 2},
		"Alipay":     {Credit: pct("1.8"), LagDays: 5},
		"AlipayPlus": {Credit: pct("1.8"), LagDays: 5},
		"WeChatPay":  {Credit: pct("1.8"), LagDays: 5},
		"LinePay":    {Credit: pct("3.5"), LagDays: 2},
	}
}

// Catalog is the immutable issuer fee table injected at engine construction.
type Catalog struct {
	entries map[string]Entry
}

// NewCatalog builds a catalog with the default rate sheet.
func NewCatalog() *Catalog {
	return &Catalog{entries: defaultEntries()}
}

// NewCatalogWith builds a catalog from a caller-supplied rate sheet. Keys
// must already be normalized issuer names.
func NewCatalogWith(entries map[string]Entry) *Catalog {
	return &Catalog{entries: entries}
}

// Lookup resolves the fee rate and settlement lag for an issuer and card
// class. Unknown issuers fall back to DefaultRate at T+2, with Known=false.
func (c *Catalog) Lookup(issuer string, class CardClass) Fee {
	entry, ok := c.entries[NormalizeIssuer(issuer)]
	if !ok {
		return Fee{Rate: DefaultRate, LagDays: DefaultLagDays, Class: CardClassCredit, Known: false}
	}

	rate := entry.Credit
	if rate.IsZero() {
		rate = DefaultRate
	}

	switch class {
	case CardClassCheck:
		if !entry.Check.IsZero() {
			rate = entry.Check
		}
	case CardClassMoney:
		if !entry.Money.IsZero() {
			rate = entry.Money
		}
	case CardClassOverseas:
		if !entry.Overseas.IsZero() {
			rate = entry.Overseas
		}
	}

	lag := entry.LagDays
	if lag == 0 {
		lag = DefaultLagDays
	}

	return Fee{Rate: rate, LagDays: lag, Class: class, Known: true}
}

// Compute applies the issuer's fee rate to a settlement base, rounding the
// fee to whole won (half away from zero).
func (c *Catalog) Compute(amount int64, issuer string, class CardClass) (Computation, Fee) {
	fee := c.Lookup(issuer, class)
	feeAmount := decimal.NewFromInt(amount).Mul(fee.Rate).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	return Computation{
		Principal: amount,
		Fee:       feeAmount,
		Net:       amount - feeAmount,
		Rate:      fee.Rate,
		LagDays:   fee.LagDays,
	}, fee
}

// CreditRate returns the issuer's credit-card rate, or DefaultRate for
// unknown issuers. Used by the fee audit.
func (c *Catalog) CreditRate(issuer string) (decimal.Decimal, bool) {
	entry, ok := c.entries[NormalizeIssuer(issuer)]
	if !ok || entry.Credit.IsZero() {
		return DefaultRate, ok
	}
	return entry.Credit, true
}

// checkCardBINs lists check-card number prefixes per issuer. Kept for
// reference only: the batch export masks too much of the card number for
// prefix detection to be reliable, so DetectCardClass does not consult it.
var checkCardBINs = map[string][]string{
	"KB":      {"5365", "9490", "4265"},
	"Shinhan": {"5412", "9410"},
	"BC":      {"4561", "9420"},
	"Hana":    {"4569"},
	"Samsung": {"9440"},
	"Hyundai": {"9450"},
	"Woori":   {"4023", "9430"},
	"NH":      {"9460"},
	"Lotte":   {"9470"},
}

// DetectCardClass classifies a card by number prefix. This is best-effort:
// the exports mask part of the BIN, so prefix detection is unreliable and
// every card currently resolves to credit. A documented limitation of the
// source data, not a guaranteed capability.
func DetectCardClass(cardNo, issuer string) CardClass {
	return CardClassCredit
}
