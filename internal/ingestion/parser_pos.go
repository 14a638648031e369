package ingestion

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
)

// POS export column positions. The export uses a two-row merged header that
// defeats name-based mapping, so columns are fixed by position. Verified
// against the terminal vendor's export: the approval number lives at column
// 10 and the final approved amount at 17, not where the header suggests.
const (
	posColSeqNo       = 0
	posColDate        = 1
	posColTerminal    = 2
	posColReceiptNo   = 3
	posColDirection   = 4
	posColProcessKind = 5
	posColIssuer      = 6
	posColCardNo      = 7
	posColRequested   = 8
	posColVAT         = 9
	posColApprovalNo  = 10
	posColInstallment = 11
	posColApprovedOn  = 14
	posColApprovedAt  = 15
	posColAmount      = 17
)

// ParsePosLog parses the POS card authorization log workbook. The data
// starts two rows below the "No." marker because of the two-row header.
func ParsePosLog(f *excelize.File) ([]domain.PosTransaction, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	headerIdx := findHeaderRow(rows, "No.")
	if headerIdx < 0 {
		return nil, fmt.Errorf("pos log: header row not found")
	}

	var txns []domain.PosTransaction

	for i := headerIdx + 2; i < len(rows); i++ {
		row := rows[i]
		seq, ok := parseSeqNo(cell(row, posColSeqNo))
		if !ok {
			continue
		}

		date, err := ParseDate(cell(row, posColDate))
		if err != nil {
			return nil, fmt.Errorf("pos log row %d: %w", i+1, err)
		}
		approvedOn, err := ParseDate(cell(row, posColApprovedOn))
		if err != nil {
			return nil, fmt.Errorf("pos log row %d: %w", i+1, err)
		}

		txns = append(txns, domain.PosTransaction{
			SeqNo:           seq,
			BusinessDate:    date,
			TerminalID:      strings.TrimSpace(cell(row, posColTerminal)),
			ReceiptNo:       strings.TrimSpace(cell(row, posColReceiptNo)),
			Direction:       parseDirection(cell(row, posColDirection)),
			ProcessKind:     strings.TrimSpace(cell(row, posColProcessKind)),
			Issuer:          feecatalog.NormalizeIssuer(cell(row, posColIssuer)),
			CardNo:          strings.TrimSpace(cell(row, posColCardNo)),
			ApprovalNo:      strings.TrimSpace(cell(row, posColApprovalNo)),
			RequestedAmount: parseAmount(cell(row, posColRequested)),
			VAT:             parseAmount(cell(row, posColVAT)),
			Installment:     strings.TrimSpace(cell(row, posColInstallment)),
			ApprovalDate:    approvedOn,
			ApprovalTime:    strings.TrimSpace(cell(row, posColApprovedAt)),
			Amount:          parseAmount(cell(row, posColAmount)),
		})
	}

	return txns, nil
}

// parseDirection maps the export's direction markers; the terminal vendor
// emits either English or hangul depending on firmware.
func parseDirection(s string) domain.Direction {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "승인"), strings.EqualFold(s, "approval"), strings.EqualFold(s, "approved"):
		return domain.DirectionApproval
	case strings.Contains(s, "취소"), strings.EqualFold(s, "cancel"), strings.EqualFold(s, "cancelled"):
		return domain.DirectionCancel
	default:
		return domain.Direction(strings.ToLower(s))
	}
}
