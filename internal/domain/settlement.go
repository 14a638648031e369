package domain

import "time"

// SettlementRecord is one row of the acquirer settlement batch. A positive
// gross amount means the acquirer settled the transaction; a negative amount
// is a reversal row. The batch is the source of truth for reported fees.
type SettlementRecord struct {
	SeqNo             int       `json:"seq_no"`
	BusinessDate      time.Time `json:"business_date"`
	Issuer            string    `json:"issuer"`
	GrossAmount       int64     `json:"gross_amount"`
	FeeTotal          int64     `json:"fee_total"`
	ApprovalNo        string    `json:"approval_no"`
	CardNo            string    `json:"card_no"`
	InstallmentMonths int       `json:"installment_months,omitempty"`
}

// Settled reports whether the record represents an actually settled amount.
func (r SettlementRecord) Settled() bool {
	return r.GrossAmount > 0
}
