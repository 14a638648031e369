// Package discount infers who bears a receipt line's discount. Liability is
// not stored anywhere upstream: it has to be read off numeric patterns in
// the line and its receipt, with tolerances absorbing rounding noise.
package discount

import (
	"fmt"
	"math"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

// Policy carries the hardcoded business rules as injectable configuration:
// voucher denominations, rate bands and the promotional-partner vendors are
// store policy, not algorithm constants.
type Policy struct {
	// VoucherDenoms are the gift-voucher face values. A receipt whose
	// aggregate discount equals one of these was paid with a voucher the
	// seller absorbs.
	VoucherDenoms []int64
	// RateBands are the vendor-funded percentage promotions (15%, 20%).
	RateBands []float64
	// PromoRate is the buy-one-get-one promotion rate (50%), vendor-funded
	// only for vendors on the PromoPartners list.
	PromoRate float64
	// PromoPartners are vendors running the 1+1 promotion.
	PromoPartners []string
	// RateTolerance is the allowed deviation, in percentage points, when
	// matching a line's discount rate against a band.
	RateTolerance float64
}

// DefaultPolicy returns the current store policy.
func DefaultPolicy() Policy {
	return Policy{
		VoucherDenoms: []int64{1000, 2000, 3000, 5000, 10000},
		RateBands:     []float64{15, 20},
		PromoRate:     50,
		PromoPartners: []string{"Haeseung J&T", "Busan Brewery", "Momos Coffee", "Casa Busano", "Cafe 385"},
		RateTolerance: 2,
	}
}

// Classification is the decision for one receipt line. Base is the amount
// the card fee applies to and is always 0, the line's net amount, or its
// gross amount.
type Classification struct {
	Category    string             `json:"category"`
	LiableParty domain.LiableParty `json:"liable_party"`
	DiscountPct int                `json:"discount_pct"`
	Base        int64              `json:"base"`
}

// Classify assigns a discount category, the liable party and the settlement
// base for one line. receiptDiscountTotal is the aggregate discount already
// accumulated over the line's whole receipt; it is what separates voucher
// payments from percentage promotions. vendor is the line's resolved vendor.
//
// Pure decision function: no I/O, no state, total over well-formed input.
func Classify(line domain.ReceiptLine, receiptDiscountTotal int64, vendor string, p Policy) Classification {
	gross := line.GrossAmount
	disc := line.DiscountAmount
	net := line.NetAmount

	var rate float64
	if gross > 0 {
		rate = float64(disc) / float64(gross) * 100
	}
	pct := int(math.Round(rate))

	if disc == 0 {
		return Classification{Category: "none", LiableParty: domain.LiableNone, Base: gross}
	}

	switch line.DiscountTag {
	case domain.DiscountTagCoupon:
		// Seller absorbs the coupon; the vendor is paid as if sold at
		// full price.
		return Classification{Category: "coupon", LiableParty: domain.LiableSeller, DiscountPct: pct, Base: gross}

	case domain.DiscountTagService:
		// Free bonus units (2+1 etc.) are the vendor's cost entirely.
		return Classification{Category: "service", LiableParty: domain.LiableVendor, DiscountPct: pct, Base: 0}

	case domain.DiscountTagGeneral:
		if containsInt64(p.VoucherDenoms, receiptDiscountTotal) {
			return Classification{
				Category:    fmt.Sprintf("voucher(%dwon)", receiptDiscountTotal),
				LiableParty: domain.LiableSeller,
				DiscountPct: pct,
				Base:        gross,
			}
		}

		if band, ok := nearestBand(rate, p.RateBands, p.RateTolerance); ok {
			return Classification{
				Category:    fmt.Sprintf("general(%.0f%%)", band),
				LiableParty: domain.LiableVendor,
				DiscountPct: pct,
				Base:        net,
			}
		}

		if math.Abs(rate-p.PromoRate) < p.RateTolerance && containsString(p.PromoPartners, vendor) {
			return Classification{
				Category:    fmt.Sprintf("bundle-promo(%.0f%%)", p.PromoRate),
				LiableParty: domain.LiableVendor,
				DiscountPct: pct,
				Base:        net,
			}
		}

		return Classification{
			Category:    fmt.Sprintf("other(%d%%/%dwon)", pct, disc),
			LiableParty: domain.LiableSeller,
			DiscountPct: pct,
			Base:        gross,
		}
	}

	// A discount with no recognized tag: nothing to allocate, settle on
	// what was actually paid.
	return Classification{Category: "none", LiableParty: domain.LiableNone, DiscountPct: pct, Base: net}
}

// nearestBand returns the band closest to rate among those within the
// tolerance.
func nearestBand(rate float64, bands []float64, tolerance float64) (float64, bool) {
	best, bestDiff, found := 0.0, 0.0, false
	for _, b := range bands {
		diff := math.Abs(rate - b)
		if diff < tolerance && (!found || diff < bestDiff) {
			best, bestDiff, found = b, diff, true
		}
	}
	return best, found
}

func containsInt64(vs []int64, v int64) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
