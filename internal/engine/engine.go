// Package engine runs the full reconciliation pipeline: offset detection,
// cross-feed matching, discount classification and vendor aggregation, as
// one synchronous single-pass batch over in-memory feeds.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/discount"
	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
	"github.com/SNS-EUGENE/busansuper-payments/internal/matching"
	"github.com/SNS-EUGENE/busansuper-payments/internal/offset"
	"github.com/SNS-EUGENE/busansuper-payments/internal/settlement"
)

// ErrMissingFeed aborts a run when a required input feed was not supplied.
// No partial report is emitted.
var ErrMissingFeed = errors.New("required feed missing")

// Feeds are the three normalized record collections a run consumes, loaded
// once by the ingestion collaborators.
type Feeds struct {
	Settlements  []domain.SettlementRecord
	Transactions []domain.PosTransaction
	ReceiptLines []domain.ReceiptLine
}

// ProductDirectory maps a product to its vendor and list price. A nil
// directory (or a missing mapping) is recoverable: the line lands in the
// unassigned-vendor bucket with the line gross as list price.
type ProductDirectory interface {
	Lookup(productCode, barcode string) (domain.Product, bool)
}

// Counts summarizes a run.
type Counts struct {
	Settlements          int `json:"settlements"`
	Transactions         int `json:"transactions"`
	Approvals            int `json:"approvals"`
	Cancellations        int `json:"cancellations"`
	ReceiptLines         int `json:"receipt_lines"`
	Receipts             int `json:"receipts"`
	OffsetPairs          int `json:"offset_pairs"`
	DroppedPairs         int `json:"dropped_pairs"`
	Matches              int `json:"matches"`
	UnmatchedPos         int `json:"unmatched_pos"`
	UnmatchedSettlements int `json:"unmatched_settlements"`
	Vendors              int `json:"vendors"`
}

// Report is the terminal output of one run.
type Report struct {
	RunID                string                       `json:"run_id"`
	StartedAt            time.Time                    `json:"started_at"`
	CompletedAt          time.Time                    `json:"completed_at"`
	Counts               Counts                       `json:"counts"`
	Pairs                []domain.OffsetPair          `json:"offset_pairs,omitempty"`
	DroppedPairs         []domain.OffsetPair          `json:"dropped_pairs,omitempty"`
	Matches              []domain.MatchResult         `json:"matches,omitempty"`
	UnmatchedPos         []domain.UnmatchedPos        `json:"unmatched_pos,omitempty"`
	UnmatchedSettlements []domain.UnmatchedSettlement `json:"unmatched_settlements,omitempty"`
	Vendors              []domain.VendorSettlement    `json:"vendors,omitempty"`
	FeeAudit             []IssuerFeeStat              `json:"fee_audit,omitempty"`
	Warnings             []string                     `json:"warnings,omitempty"`
}

// Engine is constructed once with its immutable configuration and is safe
// to reuse across runs.
type Engine struct {
	catalog *feecatalog.Catalog
	policy  discount.Policy
	log     *logrus.Logger

	detector   *offset.Detector
	matcher    *matching.Matcher
	aggregator *settlement.Aggregator
}

// New creates an engine.
func New(catalog *feecatalog.Catalog, policy discount.Policy, log *logrus.Logger) *Engine {
	return &Engine{
		catalog:    catalog,
		policy:     policy,
		log:        log,
		detector:   offset.NewDetector(log),
		matcher:    matching.NewMatcher(log),
		aggregator: settlement.NewAggregator(catalog, log),
	}
}

// Run executes the pipeline over one set of feeds. products may be nil.
// The stages run strictly sequentially and share no mutable state; the run
// either completes or returns a terminal error.
func (e *Engine) Run(feeds Feeds, products ProductDirectory) (*Report, error) {
	if err := validateFeeds(feeds); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	// Stage 1: offset pairs within the POS feed.
	det := e.detector.Detect(feeds.Transactions)

	// Stage 2: cross-feed matching, validating the pairs against the batch.
	matched := e.matcher.Match(feeds.Settlements, det.Approvals, det.Pairs)

	// Stage 3: receipt rollup from the matched POS side. Fees apply only
	// where a card payment is proven present, so the card-receipt set is
	// derived from matched approvals, not from the raw POS log.
	rollup := rollupReceipts(feeds.ReceiptLines, matched.Matches)

	// Stage 4: classification + vendor resolution, line by line.
	lines := make([]settlement.ClassifiedLine, 0, len(feeds.ReceiptLines))
	for _, line := range feeds.ReceiptLines {
		vendor, unitPrice := resolveVendor(products, line)
		cl := settlement.ClassifiedLine{
			Line:      line,
			Vendor:    vendor,
			UnitPrice: unitPrice,
			Class:     discount.Classify(line, rollup.discountTotals[domain.ReceiptKey(line.Date, line.ReceiptNo)], vendor, e.policy),
		}
		lines = append(lines, cl)
	}

	// Stage 5: per-vendor aggregation.
	vendors, warnings := e.aggregator.Aggregate(settlement.Input{
		Lines:           lines,
		CardReceipts:    rollup.cardReceipts,
		IssuerByReceipt: rollup.issuerByReceipt,
	})

	// Stage 6: reported-fee audit over the settled batch.
	audit, auditWarnings := e.auditFees(feeds.Settlements)

	report.CompletedAt = time.Now()
	report.Pairs = matched.Pairs
	report.DroppedPairs = matched.DroppedPairs
	report.Matches = matched.Matches
	report.UnmatchedPos = matched.UnmatchedPos
	report.UnmatchedSettlements = matched.UnmatchedSettlements
	report.Vendors = vendors
	report.FeeAudit = audit
	report.Warnings = append(warnings, auditWarnings...)
	report.Counts = Counts{
		Settlements:          len(feeds.Settlements),
		Transactions:         len(feeds.Transactions),
		Approvals:            len(det.Approvals),
		Cancellations:        len(det.Cancellations),
		ReceiptLines:         len(feeds.ReceiptLines),
		Receipts:             len(rollup.discountTotals),
		OffsetPairs:          len(matched.Pairs),
		DroppedPairs:         len(matched.DroppedPairs),
		Matches:              len(matched.Matches),
		UnmatchedPos:         len(matched.UnmatchedPos),
		UnmatchedSettlements: len(matched.UnmatchedSettlements),
		Vendors:              len(vendors),
	}

	if e.log != nil {
		e.log.WithFields(logrus.Fields{
			"component":       "engine",
			"run_id":          report.RunID,
			"matches":         report.Counts.Matches,
			"pairs":           report.Counts.OffsetPairs,
			"clean_approvals": len(det.CleanApprovals),
			"vendors":         report.Counts.Vendors,
		}).Info("reconciliation run complete")
	}

	return report, nil
}

func validateFeeds(feeds Feeds) error {
	if len(feeds.Settlements) == 0 {
		return fmt.Errorf("%w: settlement batch", ErrMissingFeed)
	}
	if len(feeds.Transactions) == 0 {
		return fmt.Errorf("%w: pos transaction log", ErrMissingFeed)
	}
	if len(feeds.ReceiptLines) == 0 {
		return fmt.Errorf("%w: receipt line detail", ErrMissingFeed)
	}
	return nil
}

func resolveVendor(products ProductDirectory, line domain.ReceiptLine) (string, int64) {
	if products != nil {
		if p, ok := products.Lookup(line.ProductCode, line.Barcode); ok {
			return p.Vendor, p.UnitPrice
		}
	}
	return domain.UnassignedVendor, line.GrossAmount
}

// receiptRollup is the per-receipt state the classifier and aggregator
// need: aggregate discount totals, the card-payment presence set and the
// issuer resolved for each card-paid receipt.
type receiptRollup struct {
	discountTotals  map[string]int64
	cardReceipts    map[string]bool
	issuerByReceipt map[string]string
}

func rollupReceipts(lines []domain.ReceiptLine, matches []domain.MatchResult) receiptRollup {
	r := receiptRollup{
		discountTotals:  make(map[string]int64),
		cardReceipts:    make(map[string]bool),
		issuerByReceipt: make(map[string]string),
	}

	for _, line := range lines {
		key := domain.ReceiptKey(line.Date, line.ReceiptNo)
		r.discountTotals[key] += line.DiscountAmount
	}

	for _, m := range matches {
		if m.Pos.ReceiptNo == "" || m.Pos.BusinessDate.IsZero() {
			continue
		}
		key := domain.ReceiptKey(m.Pos.BusinessDate, m.Pos.ReceiptNo)
		r.cardReceipts[key] = true
		if _, ok := r.issuerByReceipt[key]; !ok {
			r.issuerByReceipt[key] = m.Pos.Issuer
		}
	}

	return r
}
