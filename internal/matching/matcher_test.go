package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, time.September, d, 0, 0, 0, 0, time.UTC)
}

func settled(seq int, d int, issuer string, amount int64) domain.SettlementRecord {
	return domain.SettlementRecord{
		SeqNo:        seq,
		BusinessDate: day(d),
		Issuer:       issuer,
		GrossAmount:  amount,
	}
}

func posApproval(seq int, d int, issuer string, amount int64) domain.PosTransaction {
	return domain.PosTransaction{
		SeqNo:        seq,
		BusinessDate: day(d),
		Direction:    domain.DirectionApproval,
		Issuer:       issuer,
		Amount:       amount,
	}
}

func TestMatchPreciseKey(t *testing.T) {
	m := NewMatcher(nil)

	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", 2000)},
		[]domain.PosTransaction{posApproval(1, 10, "KB", 2000)},
		nil,
	)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, domain.MethodDateAmountIssuer, res.Matches[0].Method)
	assert.Empty(t, res.UnmatchedPos)
	assert.Empty(t, res.UnmatchedSettlements)
}

func TestMatchFallsBackToLooseKey(t *testing.T) {
	m := NewMatcher(nil)

	// Issuer differs between the feeds; date+amount still links them.
	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "BC", 2000)},
		[]domain.PosTransaction{posApproval(1, 10, "KB", 2000)},
		nil,
	)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, domain.MethodDateAmount, res.Matches[0].Method)
}

func TestMatchIsStrictlyOneToOne(t *testing.T) {
	m := NewMatcher(nil)

	// Two identical approvals, one settled record: exactly one match and
	// one unmatched approval.
	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", 2000)},
		[]domain.PosTransaction{
			posApproval(1, 10, "KB", 2000),
			posApproval(2, 10, "KB", 2000),
		},
		nil,
	)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Pos.SeqNo)
	require.Len(t, res.UnmatchedPos, 1)
	assert.Equal(t, ReasonNoSettlement, res.UnmatchedPos[0].Reason)
}

func TestMatchConsumesFIFO(t *testing.T) {
	m := NewMatcher(nil)

	res := m.Match(
		[]domain.SettlementRecord{
			settled(1, 10, "KB", 2000),
			settled(2, 10, "KB", 2000),
		},
		[]domain.PosTransaction{posApproval(1, 10, "KB", 2000)},
		nil,
	)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Settlement.SeqNo)
	require.Len(t, res.UnmatchedSettlements, 1)
	assert.Equal(t, 2, res.UnmatchedSettlements[0].Record.SeqNo)
	assert.Equal(t, ReasonNoPosApproval, res.UnmatchedSettlements[0].Reason)
}

func TestMatchLooseKeyCannotDoubleConsume(t *testing.T) {
	m := NewMatcher(nil)

	// One settled record, one approval hitting the precise key and one
	// hitting only the loose key. The record must be consumed once.
	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", 2000)},
		[]domain.PosTransaction{
			posApproval(1, 10, "KB", 2000),
			posApproval(2, 10, "Lotte", 2000),
		},
		nil,
	)

	require.Len(t, res.Matches, 1)
	require.Len(t, res.UnmatchedPos, 1)
	assert.Equal(t, 2, res.UnmatchedPos[0].Txn.SeqNo)
}

func TestMatchMissingFieldsBucket(t *testing.T) {
	m := NewMatcher(nil)

	noDate := posApproval(1, 10, "KB", 2000)
	noDate.BusinessDate = time.Time{}
	zeroAmount := posApproval(2, 10, "KB", 0)

	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", 2000)},
		[]domain.PosTransaction{noDate, zeroAmount},
		nil,
	)

	assert.Empty(t, res.Matches)
	require.Len(t, res.UnmatchedPos, 2)
	for _, u := range res.UnmatchedPos {
		assert.Equal(t, ReasonMissingFields, u.Reason)
	}
}

func TestMatchIgnoresReversalRows(t *testing.T) {
	m := NewMatcher(nil)

	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", -2000)},
		[]domain.PosTransaction{posApproval(1, 10, "KB", 2000)},
		nil,
	)

	assert.Empty(t, res.Matches)
	require.Len(t, res.UnmatchedPos, 1)
	assert.Empty(t, res.UnmatchedSettlements)
}

func TestMatchDiscardsPairSettledInBatch(t *testing.T) {
	m := NewMatcher(nil)

	// The offset pair's approval (day 10, 9000 won, KB) also appears as a
	// settled batch record: the cancellation must be a false match from
	// approval-number reuse. The pair is discarded and the approval is
	// matched instead.
	appr := posApproval(1, 10, "KB", 9000)
	appr.ApprovalNo = "9000"
	canc := domain.PosTransaction{
		SeqNo:        2,
		BusinessDate: day(11),
		Direction:    domain.DirectionCancel,
		Issuer:       "KB",
		ApprovalNo:   "-9000",
		Amount:       9000,
	}
	pair := domain.OffsetPair{
		Approval:     appr,
		Cancellation: canc,
		Amount:       9000,
		Issuer:       "KB",
		Method:       domain.MethodApprovalNumber,
	}

	res := m.Match(
		[]domain.SettlementRecord{settled(1, 10, "KB", 9000)},
		[]domain.PosTransaction{appr},
		[]domain.OffsetPair{pair},
	)

	assert.Empty(t, res.Pairs)
	require.Len(t, res.DroppedPairs, 1)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Pos.SeqNo)
}

func TestMatchExcludesSurvivingPairMembers(t *testing.T) {
	m := NewMatcher(nil)

	// The pair's approval has no batch counterpart, so the pair survives
	// and its approval never reaches the matcher.
	appr := posApproval(1, 10, "KB", 9000)
	canc := domain.PosTransaction{
		SeqNo:        2,
		BusinessDate: day(11),
		Direction:    domain.DirectionCancel,
		Issuer:       "KB",
		Amount:       9000,
	}
	pair := domain.OffsetPair{Approval: appr, Cancellation: canc, Amount: 9000, Issuer: "KB"}

	other := posApproval(3, 12, "Shinhan", 5000)

	res := m.Match(
		[]domain.SettlementRecord{settled(1, 12, "Shinhan", 5000)},
		[]domain.PosTransaction{appr, other},
		[]domain.OffsetPair{pair},
	)

	require.Len(t, res.Pairs, 1)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 3, res.Matches[0].Pos.SeqNo)
	assert.Empty(t, res.UnmatchedPos)
}

func TestMatchNoRecordConsumedTwice(t *testing.T) {
	m := NewMatcher(nil)

	settlements := []domain.SettlementRecord{
		settled(1, 10, "KB", 2000),
		settled(2, 10, "KB", 2000),
		settled(3, 11, "Lotte", 500),
	}
	approvals := []domain.PosTransaction{
		posApproval(1, 10, "KB", 2000),
		posApproval(2, 10, "KB", 2000),
		posApproval(3, 11, "Lotte", 500),
		posApproval(4, 11, "Lotte", 500),
	}

	res := m.Match(settlements, approvals, nil)

	seen := map[int]int{}
	for _, match := range res.Matches {
		seen[match.Settlement.SeqNo]++
	}
	for seq, n := range seen {
		assert.Equal(t, 1, n, "settlement %d consumed more than once", seq)
	}
	assert.Len(t, res.Matches, 3)
	assert.Len(t, res.UnmatchedPos, 1)
}
