package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
)

// auditRateTolerance is the allowed gap, in percentage points, between an
// issuer's effective rate and its catalog rate.
var auditRateTolerance = decimal.RequireFromString("0.3")

// vatFactor covers batches that report fees inclusive of 10% VAT.
var vatFactor = decimal.RequireFromString("1.1")

// IssuerFeeStat is one issuer's reported-fee summary, derived back from the
// settled batch and compared against the catalog rate.
type IssuerFeeStat struct {
	Issuer          string          `json:"issuer"`
	Count           int             `json:"count"`
	GrossTotal      int64           `json:"gross_total"`
	FeeTotal        int64           `json:"fee_total"`
	EffectiveRate   decimal.Decimal `json:"effective_rate"`
	CatalogRate     decimal.Decimal `json:"catalog_rate"`
	VATInclusive    bool            `json:"vat_inclusive,omitempty"`
	WithinTolerance bool            `json:"within_tolerance"`
}

// auditFees recomputes each issuer's effective fee rate from the settled
// batch and flags deviations from the catalog. Deviations are data-quality
// warnings, never errors.
func (e *Engine) auditFees(settlements []domain.SettlementRecord) ([]IssuerFeeStat, []string) {
	type acc struct {
		count int
		gross int64
		fee   int64
	}
	byIssuer := make(map[string]*acc)
	var order []string

	for _, rec := range settlements {
		if !rec.Settled() || rec.Issuer == "" {
			continue
		}
		issuer := feecatalog.NormalizeIssuer(rec.Issuer)
		a, ok := byIssuer[issuer]
		if !ok {
			a = &acc{}
			byIssuer[issuer] = a
			order = append(order, issuer)
		}
		a.count++
		a.gross += rec.GrossAmount
		a.fee += rec.FeeTotal
	}
	sort.Strings(order)

	hundred := decimal.NewFromInt(100)
	var stats []IssuerFeeStat
	var warnings []string

	for _, issuer := range order {
		a := byIssuer[issuer]
		if a.gross == 0 {
			continue
		}

		// Effective rates cluster at the contracted rate once rounded to
		// 0.1pp (2.300%, 2.299%, 2.288% all read as 2.3%).
		effective := decimal.NewFromInt(a.fee).Mul(hundred).Div(decimal.NewFromInt(a.gross)).Round(1)
		catalogRate, _ := e.catalog.CreditRate(issuer)

		stat := IssuerFeeStat{
			Issuer:        issuer,
			Count:         a.count,
			GrossTotal:    a.gross,
			FeeTotal:      a.fee,
			EffectiveRate: effective,
			CatalogRate:   catalogRate,
		}

		switch {
		case effective.Sub(catalogRate).Abs().LessThanOrEqual(auditRateTolerance):
			stat.WithinTolerance = true
		case effective.Div(vatFactor).Round(1).Sub(catalogRate).Abs().LessThanOrEqual(auditRateTolerance):
			stat.WithinTolerance = true
			stat.VATInclusive = true
		default:
			warnings = append(warnings, fmt.Sprintf(
				"issuer %s: effective fee rate %s%% deviates from catalog %s%%",
				issuer, effective.String(), catalogRate.String()))
		}

		stats = append(stats, stat)
	}

	return stats, warnings
}
