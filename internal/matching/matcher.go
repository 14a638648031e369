// Package matching links the acquirer settlement batch to POS approvals.
// Approval numbers are useless across the two feeds (the POS terminal and
// the acquirer number transactions independently), so records are keyed by
// (date, amount, issuer) with a looser (date, amount) fallback.
package matching

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

const (
	// ReasonMissingFields labels POS approvals excluded from matching for
	// lacking a date or a positive amount.
	ReasonMissingFields = "missing date/amount"
	// ReasonNoSettlement labels POS approvals with no batch counterpart.
	ReasonNoSettlement = "no settlement record"
	// ReasonNoPosApproval labels settled batch records no approval claimed.
	ReasonNoPosApproval = "no pos approval"
	// ReasonSettledDespitePair explains why an offset pair was discarded.
	ReasonSettledDespitePair = "approval settled in batch"
)

// Result is the outcome of one cross-feed matching run.
type Result struct {
	Matches              []domain.MatchResult
	Pairs                []domain.OffsetPair
	DroppedPairs         []domain.OffsetPair
	UnmatchedPos         []domain.UnmatchedPos
	UnmatchedSettlements []domain.UnmatchedSettlement
}

// Matcher matches settlement-batch records to POS approvals.
type Matcher struct {
	log *logrus.Logger
}

// NewMatcher creates a matcher.
func NewMatcher(log *logrus.Logger) *Matcher {
	return &Matcher{log: log}
}

// Match validates the offset pairs against the settled batch, prunes the
// approval pool accordingly, then matches every surviving approval to at
// most one settled record. Matching is strictly 1:1: a settled record is
// consumed FIFO by the first approval whose key reaches it.
//
// Both feeds' dates must already be in the canonical calendar form.
func (m *Matcher) Match(
	settlements []domain.SettlementRecord,
	approvals []domain.PosTransaction,
	pairs []domain.OffsetPair,
) Result {
	var settled []domain.SettlementRecord
	for _, rec := range settlements {
		if rec.Settled() {
			settled = append(settled, rec)
		}
	}

	// Presence of the approval's (date, amount, issuer) triple in the
	// batch proves the transaction actually settled, so the apparent
	// cancellation must be a false pair caused by approval-number reuse.
	// Such pairs are discarded and their approval goes back into the pool.
	settledKeys := make(map[string]bool, len(settled))
	for _, rec := range settled {
		settledKeys[preciseKey(rec.BusinessDate.Format("2006-01-02"), rec.GrossAmount, rec.Issuer)] = true
	}

	var surviving, dropped []domain.OffsetPair
	for _, pair := range pairs {
		a := pair.Approval
		key := preciseKey(a.BusinessDate.Format("2006-01-02"), absAmount(a.Amount), a.Issuer)
		if settledKeys[key] {
			dropped = append(dropped, pair)
			if m.log != nil {
				m.log.WithFields(logrus.Fields{
					"component":   "matching",
					"approval_no": a.ApprovalNo,
					"seq_no":      a.SeqNo,
					"reason":      ReasonSettledDespitePair,
				}).Warn("offset pair discarded")
			}
			continue
		}
		surviving = append(surviving, pair)
	}

	// Consumed approvals are excluded by sequence number, never by
	// approval number: the same approval number shows up on unrelated
	// transactions across issuers.
	pairedSeq := make(map[int]bool, len(surviving)*2)
	for _, pair := range surviving {
		pairedSeq[pair.Approval.SeqNo] = true
		pairedSeq[pair.Cancellation.SeqNo] = true
	}

	var pool []domain.PosTransaction
	for _, a := range approvals {
		if !pairedSeq[a.SeqNo] {
			pool = append(pool, a)
		}
	}

	// FIFO candidate queues over the settled records: the precise
	// (date, amount, issuer) key first, (date, amount) as fallback. One
	// shared consumed set keeps the two key spaces 1:1.
	precise := make(map[string][]int)
	loose := make(map[string][]int)
	for i, rec := range settled {
		date := rec.BusinessDate.Format("2006-01-02")
		pk := preciseKey(date, rec.GrossAmount, rec.Issuer)
		lk := looseKey(date, rec.GrossAmount)
		precise[pk] = append(precise[pk], i)
		loose[lk] = append(loose[lk], i)
	}
	consumed := make([]bool, len(settled))

	result := Result{Pairs: surviving, DroppedPairs: dropped}

	for _, a := range pool {
		if a.BusinessDate.IsZero() || a.Amount <= 0 {
			result.UnmatchedPos = append(result.UnmatchedPos, domain.UnmatchedPos{
				Txn:    a,
				Reason: ReasonMissingFields,
			})
			continue
		}

		date := a.BusinessDate.Format("2006-01-02")
		method := domain.MethodDateAmountIssuer
		idx, ok := consume(precise[preciseKey(date, a.Amount, a.Issuer)], consumed)
		if !ok {
			method = domain.MethodDateAmount
			idx, ok = consume(loose[looseKey(date, a.Amount)], consumed)
		}
		if !ok {
			result.UnmatchedPos = append(result.UnmatchedPos, domain.UnmatchedPos{
				Txn:    a,
				Reason: ReasonNoSettlement,
			})
			continue
		}

		consumed[idx] = true
		result.Matches = append(result.Matches, domain.MatchResult{
			Settlement: settled[idx],
			Pos:        a,
			Method:     method,
		})
	}

	for i, rec := range settled {
		if !consumed[i] {
			result.UnmatchedSettlements = append(result.UnmatchedSettlements, domain.UnmatchedSettlement{
				Record: rec,
				Reason: ReasonNoPosApproval,
			})
		}
	}

	if m.log != nil {
		m.log.WithFields(logrus.Fields{
			"component":            "matching",
			"matches":              len(result.Matches),
			"dropped_pairs":        len(dropped),
			"unmatched_pos":        len(result.UnmatchedPos),
			"unmatched_settlement": len(result.UnmatchedSettlements),
		}).Info("cross-feed matching complete")
	}

	return result
}

// consume returns the first not-yet-consumed index in the queue.
func consume(queue []int, consumed []bool) (int, bool) {
	for _, idx := range queue {
		if !consumed[idx] {
			return idx, true
		}
	}
	return 0, false
}

func preciseKey(date string, amount int64, issuer string) string {
	return date + "_" + strconv.FormatInt(amount, 10) + "_" + issuer
}

func looseKey(date string, amount int64) string {
	return date + "_" + strconv.FormatInt(amount, 10)
}

func absAmount(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
