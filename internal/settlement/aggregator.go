// Package settlement rolls classified receipt lines into per-vendor
// settlement statistics. Card-processing fees are charged only where a card
// payment is proven present for the line's receipt.
package settlement

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/discount"
	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
)

// ClassifiedLine is a receipt line with its vendor resolution and discount
// classification attached.
type ClassifiedLine struct {
	Line      domain.ReceiptLine
	Vendor    string
	UnitPrice int64
	Class     discount.Classification
}

// Input is everything one aggregation run needs. CardReceipts and
// IssuerByReceipt are keyed with domain.ReceiptKey.
type Input struct {
	Lines           []ClassifiedLine
	CardReceipts    map[string]bool
	IssuerByReceipt map[string]string
}

// Aggregator builds vendor settlements.
type Aggregator struct {
	catalog *feecatalog.Catalog
	log     *logrus.Logger
}

// NewAggregator creates an aggregator over the given fee catalog.
func NewAggregator(catalog *feecatalog.Catalog, log *logrus.Logger) *Aggregator {
	return &Aggregator{catalog: catalog, log: log}
}

// Aggregate computes per-line fees and payouts and rolls them up by vendor.
// The result is sorted by payout descending (a presentation convenience);
// ties break on vendor name so identical input yields identical output.
// Returned warnings flag default-rate fallbacks for unknown issuers.
func (a *Aggregator) Aggregate(in Input) ([]domain.VendorSettlement, []string) {
	stats := make(map[string]*domain.VendorSettlement)
	var order []string
	var warnings []string
	warnedIssuer := make(map[string]bool)

	for _, cl := range in.Lines {
		line := cl.Line
		key := domain.ReceiptKey(line.Date, line.ReceiptNo)
		cardPaid := in.CardReceipts[key]

		var fee int64
		var issuer string
		var rate string
		var lagDays int
		if cardPaid {
			// The issuer is resolved once per receipt from the POS side;
			// every line of the receipt settles at that issuer's rate.
			issuer = in.IssuerByReceipt[key]
			comp, feeInfo := a.catalog.Compute(cl.Class.Base, issuer, feecatalog.DetectCardClass("", issuer))
			fee = comp.Fee
			rate = comp.Rate.String()
			lagDays = comp.LagDays
			if !feeInfo.Known && !warnedIssuer[issuer] {
				warnedIssuer[issuer] = true
				warnings = append(warnings, "unknown issuer \""+issuer+"\": default fee rate applied")
				if a.log != nil {
					a.log.WithFields(logrus.Fields{
						"component": "settlement",
						"issuer":    issuer,
					}).Warn("unknown issuer, default fee rate applied")
				}
			}
		}
		payout := cl.Class.Base - fee

		stat, ok := stats[cl.Vendor]
		if !ok {
			stat = &domain.VendorSettlement{Vendor: cl.Vendor}
			stats[cl.Vendor] = stat
			order = append(order, cl.Vendor)
		}

		stat.GrossSales += line.GrossAmount
		stat.DiscountTotal += line.DiscountAmount
		stat.NetSales += line.NetAmount
		stat.FeeTotal += fee
		stat.Payout += payout
		stat.ItemCount++

		if cardPaid {
			stat.CardSales += line.NetAmount
			stat.CardItemCount++
		} else {
			stat.NonCardSales += line.NetAmount
			stat.NonCardItemCount++
		}

		switch cl.Class.LiableParty {
		case domain.LiableSeller:
			stat.SellerBorneDiscount += line.DiscountAmount
		case domain.LiableVendor:
			stat.VendorBorneDiscount += line.DiscountAmount
		}

		detail := domain.LineSettlement{
			SaleDate:       line.Date,
			CardPaid:       cardPaid,
			Issuer:         issuer,
			FeeRate:        rate,
			ProductName:    line.ProductName,
			ProductCode:    line.ProductCode,
			Barcode:        line.Barcode,
			UnitPrice:      cl.UnitPrice,
			Quantity:       line.Quantity,
			GrossAmount:    line.GrossAmount,
			Discounted:     line.DiscountAmount > 0,
			DiscountPct:    cl.Class.DiscountPct,
			DiscountAmount: line.DiscountAmount,
			Category:       cl.Class.Category,
			LiableParty:    cl.Class.LiableParty,
			SettlementBase: cl.Class.Base,
			Fee:            fee,
			Payout:         payout,
		}
		if cardPaid && !line.Date.IsZero() {
			detail.SettlementDate = line.Date.AddDate(0, 0, lagDays)
		}
		stat.Lines = append(stat.Lines, detail)
	}

	out := make([]domain.VendorSettlement, 0, len(order))
	for _, vendor := range order {
		out = append(out, *stats[vendor])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Payout != out[j].Payout {
			return out[i].Payout > out[j].Payout
		}
		return out[i].Vendor < out[j].Vendor
	})

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"component": "settlement",
			"vendors":   len(out),
			"lines":     len(in.Lines),
		}).Info("vendor aggregation complete")
	}

	return out, warnings
}
