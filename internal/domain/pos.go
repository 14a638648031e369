package domain

import "time"

type Direction string

const (
	DirectionApproval Direction = "approval"
	DirectionCancel   Direction = "cancel"
)

// PosTransaction is one authorization event from the point-of-sale card log.
// Cancellations carry the approval number of the voided authorization,
// usually with a leading minus sign.
type PosTransaction struct {
	SeqNo           int       `json:"seq_no"`
	BusinessDate    time.Time `json:"business_date"`
	TerminalID      string    `json:"terminal_id"`
	ReceiptNo       string    `json:"receipt_no"`
	Direction       Direction `json:"direction"`
	ProcessKind     string    `json:"process_kind,omitempty"`
	Issuer          string    `json:"issuer"`
	CardNo          string    `json:"card_no"`
	ApprovalNo      string    `json:"approval_no"`
	RequestedAmount int64     `json:"requested_amount,omitempty"`
	VAT             int64     `json:"vat,omitempty"`
	Amount          int64     `json:"amount"`
	Installment     string    `json:"installment,omitempty"`
	ApprovalDate    time.Time `json:"approval_date,omitempty"`
	ApprovalTime    string    `json:"approval_time,omitempty"`
}

// IsApproval reports whether the event is an authorization (as opposed to a
// cancellation).
func (t PosTransaction) IsApproval() bool {
	return t.Direction == DirectionApproval
}
