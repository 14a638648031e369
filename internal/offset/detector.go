// Package offset finds approval/cancellation pairs that net to zero within
// the POS feed. Three priority-ordered tiers are tried, tightest first, so
// that looser tiers only ever act as a fallback for records the tight
// signal could not resolve.
package offset

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

// offsetWindowDays is the maximum allowed gap between an approval and its
// cancellation.
const offsetWindowDays = 7

// Result is the outcome of one detection run over a feed.
type Result struct {
	Pairs          []domain.OffsetPair
	Approvals      []domain.PosTransaction
	Cancellations  []domain.PosTransaction
	CleanApprovals []domain.PosTransaction
}

// Detector pairs approvals with their cancellations.
type Detector struct {
	log *logrus.Logger
}

// NewDetector creates a detector.
func NewDetector(log *logrus.Logger) *Detector {
	return &Detector{log: log}
}

// Detect splits the feed by direction and runs the three matching passes.
// Each transaction joins at most one pair; each pass consumes only records
// the earlier passes left unresolved, taking the first eligible candidate
// (greedy, no backtracking).
func (d *Detector) Detect(txns []domain.PosTransaction) Result {
	var approvals, cancels []domain.PosTransaction
	for _, t := range txns {
		switch t.Direction {
		case domain.DirectionApproval:
			approvals = append(approvals, t)
		case domain.DirectionCancel:
			cancels = append(cancels, t)
		}
	}

	usedApproval := make(map[int]bool, len(approvals))
	usedCancel := make(map[int]bool, len(cancels))
	var pairs []domain.OffsetPair

	take := func(ai, ci int, method domain.MatchMethod) {
		a, c := approvals[ai], cancels[ci]
		pairs = append(pairs, domain.OffsetPair{
			Approval:     a,
			Cancellation: c,
			Amount:       absAmount(a.Amount),
			Issuer:       a.Issuer,
			Method:       method,
		})
		usedApproval[ai] = true
		usedCancel[ci] = true
	}

	// Pass 1: matching absolute approval numbers + equal amount + equal
	// card + cancellation within the window.
	cancelsByApprovalNo := indexBy(cancels, func(t domain.PosTransaction) (string, bool) {
		return absApprovalNo(t.ApprovalNo)
	})
	for ai, a := range approvals {
		if usedApproval[ai] {
			continue
		}
		key, ok := absApprovalNo(a.ApprovalNo)
		if !ok {
			continue
		}
		for _, ci := range cancelsByApprovalNo[key] {
			if usedCancel[ci] {
				continue
			}
			c := cancels[ci]
			if absAmount(a.Amount) == absAmount(c.Amount) &&
				cardNo(a) == cardNo(c) &&
				withinWindow(a, c) {
				take(ai, ci, domain.MethodApprovalNumber)
				break
			}
		}
	}

	// Pass 2: card number + issuer + amount within the window, for
	// approvals the approval-number pass could not resolve.
	cancelsByCard := indexBy(cancels, func(t domain.PosTransaction) (string, bool) {
		if cardNo(t) == "" {
			return "", false
		}
		return cardNo(t) + "|" + t.Issuer + "|" + strconv.FormatInt(absAmount(t.Amount), 10), true
	})
	for ai, a := range approvals {
		if usedApproval[ai] || absAmount(a.Amount) == 0 || cardNo(a) == "" {
			continue
		}
		key := cardNo(a) + "|" + a.Issuer + "|" + strconv.FormatInt(absAmount(a.Amount), 10)
		for _, ci := range cancelsByCard[key] {
			if usedCancel[ci] {
				continue
			}
			if withinWindow(a, cancels[ci]) {
				take(ai, ci, domain.MethodCardAmountDate)
				break
			}
		}
	}

	// Pass 3: issuer + amount on the identical date. Loosest tier, for
	// feeds that lack card-number data.
	cancelsByIssuerDay := indexBy(cancels, func(t domain.PosTransaction) (string, bool) {
		return t.Issuer + "|" + strconv.FormatInt(absAmount(t.Amount), 10) + "|" + t.BusinessDate.Format("2006-01-02"), true
	})
	for ai, a := range approvals {
		if usedApproval[ai] || absAmount(a.Amount) == 0 {
			continue
		}
		key := a.Issuer + "|" + strconv.FormatInt(absAmount(a.Amount), 10) + "|" + a.BusinessDate.Format("2006-01-02")
		for _, ci := range cancelsByIssuerDay[key] {
			if !usedCancel[ci] {
				take(ai, ci, domain.MethodIssuerAmountSameDay)
				break
			}
		}
	}

	var clean []domain.PosTransaction
	for ai, a := range approvals {
		if !usedApproval[ai] {
			clean = append(clean, a)
		}
	}

	if d.log != nil {
		d.log.WithFields(logrus.Fields{
			"component":     "offset",
			"approvals":     len(approvals),
			"cancellations": len(cancels),
			"pairs":         len(pairs),
		}).Info("offset detection complete")
	}

	return Result{
		Pairs:          pairs,
		Approvals:      approvals,
		Cancellations:  cancels,
		CleanApprovals: clean,
	}
}

// indexBy builds an insertion-ordered candidate index so the passes can
// skip non-candidates without changing the first-match tie-break.
func indexBy(txns []domain.PosTransaction, key func(domain.PosTransaction) (string, bool)) map[string][]int {
	idx := make(map[string][]int)
	for i, t := range txns {
		if k, ok := key(t); ok {
			idx[k] = append(idx[k], i)
		}
	}
	return idx
}

// withinWindow reports whether the cancellation happened on or after the
// approval date, at most offsetWindowDays later.
func withinWindow(approval, cancel domain.PosTransaction) bool {
	if approval.BusinessDate.IsZero() || cancel.BusinessDate.IsZero() {
		return false
	}
	days := int(cancel.BusinessDate.Sub(approval.BusinessDate).Hours() / 24)
	return days >= 0 && days <= offsetWindowDays
}

// absApprovalNo parses an approval number, dropping the minus sign
// cancellations carry.
func absApprovalNo(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", false
	}
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 10), true
}

func absAmount(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func cardNo(t domain.PosTransaction) string {
	return strings.TrimSpace(t.CardNo)
}
