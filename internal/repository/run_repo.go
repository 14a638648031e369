package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
)

// RunSummary is the stored header of one reconciliation run.
type RunSummary struct {
	ID                       string    `json:"id"`
	StartedAt                time.Time `json:"started_at"`
	CompletedAt              time.Time `json:"completed_at"`
	SettlementCount          int       `json:"settlement_count"`
	TransactionCount         int       `json:"transaction_count"`
	ReceiptLineCount         int       `json:"receipt_line_count"`
	OffsetPairCount          int       `json:"offset_pair_count"`
	DroppedPairCount         int       `json:"dropped_pair_count"`
	MatchCount               int       `json:"match_count"`
	UnmatchedPosCount        int       `json:"unmatched_pos_count"`
	UnmatchedSettlementCount int       `json:"unmatched_settlement_count"`
	VendorCount              int       `json:"vendor_count"`
	WarningCount             int       `json:"warning_count"`
}

// UnmatchedRow is one stored unmatched record of either side.
type UnmatchedRow struct {
	Side         string    `json:"side"`
	BusinessDate time.Time `json:"business_date"`
	Issuer       string    `json:"issuer"`
	Amount       int64     `json:"amount"`
	ApprovalNo   string    `json:"approval_no,omitempty"`
	ReceiptNo    string    `json:"receipt_no,omitempty"`
	Reason       string    `json:"reason"`
}

// RunRepo persists run reports for the presentation layer.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new run repository.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// InsertRun stores a run header plus its vendor settlements and unmatched
// records in one transaction.
func (r *RunRepo) InsertRun(report *engine.Report) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (
		id, started_at, completed_at,
		settlement_count, transaction_count, receipt_line_count,
		offset_pair_count, dropped_pair_count, match_count,
		unmatched_pos_count, unmatched_settlement_count,
		vendor_count, warning_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt, report.CompletedAt,
		report.Counts.Settlements, report.Counts.Transactions, report.Counts.ReceiptLines,
		report.Counts.OffsetPairs, report.Counts.DroppedPairs, report.Counts.Matches,
		report.Counts.UnmatchedPos, report.Counts.UnmatchedSettlements,
		report.Counts.Vendors, len(report.Warnings),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, v := range report.Vendors {
		_, err = tx.Exec(`INSERT INTO vendor_settlements (
			run_id, vendor, gross_sales, discount_total, net_sales,
			card_sales, non_card_sales, seller_borne_discount,
			vendor_borne_discount, fee_total, payout,
			item_count, card_item_count, non_card_item_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, v.Vendor, v.GrossSales, v.DiscountTotal, v.NetSales,
			v.CardSales, v.NonCardSales, v.SellerBorneDiscount,
			v.VendorBorneDiscount, v.FeeTotal, v.Payout,
			v.ItemCount, v.CardItemCount, v.NonCardItemCount,
		)
		if err != nil {
			return fmt.Errorf("insert vendor %s: %w", v.Vendor, err)
		}
	}

	for _, u := range report.UnmatchedPos {
		_, err = tx.Exec(`INSERT INTO unmatched_records (
			run_id, side, business_date, issuer, amount, approval_no, receipt_no, reason
		) VALUES (?, 'pos', ?, ?, ?, ?, ?, ?)`,
			report.RunID, u.Txn.BusinessDate, u.Txn.Issuer, u.Txn.Amount,
			u.Txn.ApprovalNo, u.Txn.ReceiptNo, u.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert unmatched pos: %w", err)
		}
	}

	for _, u := range report.UnmatchedSettlements {
		_, err = tx.Exec(`INSERT INTO unmatched_records (
			run_id, side, business_date, issuer, amount, approval_no, receipt_no, reason
		) VALUES (?, 'settlement', ?, ?, ?, ?, '', ?)`,
			report.RunID, u.Record.BusinessDate, u.Record.Issuer, u.Record.GrossAmount,
			u.Record.ApprovalNo, u.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert unmatched settlement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run headers, newest first.
func (r *RunRepo) ListRuns(limit int) ([]RunSummary, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT
		id, started_at, completed_at,
		settlement_count, transaction_count, receipt_line_count,
		offset_pair_count, dropped_pair_count, match_count,
		unmatched_pos_count, unmatched_settlement_count,
		vendor_count, warning_count
	FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(
			&s.ID, &s.StartedAt, &s.CompletedAt,
			&s.SettlementCount, &s.TransactionCount, &s.ReceiptLineCount,
			&s.OffsetPairCount, &s.DroppedPairCount, &s.MatchCount,
			&s.UnmatchedPosCount, &s.UnmatchedSettlementCount,
			&s.VendorCount, &s.WarningCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// GetRun fetches one run header by ID.
func (r *RunRepo) GetRun(id string) (*RunSummary, error) {
	var s RunSummary
	err := r.db.QueryRow(`SELECT
		id, started_at, completed_at,
		settlement_count, transaction_count, receipt_line_count,
		offset_pair_count, dropped_pair_count, match_count,
		unmatched_pos_count, unmatched_settlement_count,
		vendor_count, warning_count
	FROM runs WHERE id = ?`, id).Scan(
		&s.ID, &s.StartedAt, &s.CompletedAt,
		&s.SettlementCount, &s.TransactionCount, &s.ReceiptLineCount,
		&s.OffsetPairCount, &s.DroppedPairCount, &s.MatchCount,
		&s.UnmatchedPosCount, &s.UnmatchedSettlementCount,
		&s.VendorCount, &s.WarningCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return &s, nil
}

// ListVendors returns a run's vendor settlements, payout descending.
func (r *RunRepo) ListVendors(runID string) ([]domain.VendorSettlement, error) {
	rows, err := r.db.Query(`SELECT
		vendor, gross_sales, discount_total, net_sales,
		card_sales, non_card_sales, seller_borne_discount,
		vendor_borne_discount, fee_total, payout,
		item_count, card_item_count, non_card_item_count
	FROM vendor_settlements WHERE run_id = ? ORDER BY payout DESC, vendor ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.VendorSettlement
	for rows.Next() {
		var v domain.VendorSettlement
		if err := rows.Scan(
			&v.Vendor, &v.GrossSales, &v.DiscountTotal, &v.NetSales,
			&v.CardSales, &v.NonCardSales, &v.SellerBorneDiscount,
			&v.VendorBorneDiscount, &v.FeeTotal, &v.Payout,
			&v.ItemCount, &v.CardItemCount, &v.NonCardItemCount,
		); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// ListUnmatched returns a run's unmatched records, optionally filtered by
// side ("pos" or "settlement").
func (r *RunRepo) ListUnmatched(runID, side string) ([]UnmatchedRow, error) {
	query := `SELECT side, business_date, issuer, amount, approval_no, receipt_no, reason
		FROM unmatched_records WHERE run_id = ?`
	args := []any{runID}
	if side != "" {
		query += ` AND side = ?`
		args = append(args, side)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unmatched: %w", err)
	}
	defer rows.Close()

	var out []UnmatchedRow
	for rows.Next() {
		var u UnmatchedRow
		if err := rows.Scan(&u.Side, &u.BusinessDate, &u.Issuer, &u.Amount,
			&u.ApprovalNo, &u.ReceiptNo, &u.Reason); err != nil {
			return nil, fmt.Errorf("scan unmatched: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// TopVendors returns the highest-payout vendors of the latest run.
func (r *RunRepo) TopVendors(limit int) ([]domain.VendorSettlement, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT
		vendor, gross_sales, discount_total, net_sales,
		card_sales, non_card_sales, seller_borne_discount,
		vendor_borne_discount, fee_total, payout,
		item_count, card_item_count, non_card_item_count
	FROM vendor_settlements
	WHERE run_id = (SELECT id FROM runs ORDER BY started_at DESC LIMIT 1)
	ORDER BY payout DESC, vendor ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.VendorSettlement
	for rows.Next() {
		var v domain.VendorSettlement
		if err := rows.Scan(
			&v.Vendor, &v.GrossSales, &v.DiscountTotal, &v.NetSales,
			&v.CardSales, &v.NonCardSales, &v.SellerBorneDiscount,
			&v.VendorBorneDiscount, &v.FeeTotal, &v.Payout,
			&v.ItemCount, &v.CardItemCount, &v.NonCardItemCount,
		); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}
