package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
)

func newTestRepo(t *testing.T) *RunRepo {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepo(db)
}

func sampleReport(id string, startedAt time.Time) *engine.Report {
	return &engine.Report{
		RunID:       id,
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(2 * time.Second),
		Counts: engine.Counts{
			Settlements:          3,
			Transactions:         4,
			ReceiptLines:         5,
			Matches:              2,
			UnmatchedPos:         1,
			UnmatchedSettlements: 1,
			Vendors:              2,
		},
		Vendors: []domain.VendorSettlement{
			{Vendor: "Busan Brewery", GrossSales: 100000, NetSales: 100000, CardSales: 100000, FeeTotal: 2300, Payout: 97700, ItemCount: 1, CardItemCount: 1},
			{Vendor: "Momos Coffee", GrossSales: 4500, NetSales: 4500, NonCardSales: 4500, Payout: 4500, ItemCount: 1, NonCardItemCount: 1},
		},
		UnmatchedPos: []domain.UnmatchedPos{
			{
				Txn: domain.PosTransaction{
					BusinessDate: time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC),
					Issuer:       "KB",
					Amount:       7000,
					ApprovalNo:   "30012345",
					ReceiptNo:    "R-003",
				},
				Reason: "no settlement record",
			},
		},
		UnmatchedSettlements: []domain.UnmatchedSettlement{
			{
				Record: domain.SettlementRecord{
					BusinessDate: time.Date(2025, time.September, 11, 0, 0, 0, 0, time.UTC),
					Issuer:       "Shinhan",
					GrossAmount:  12000,
					ApprovalNo:   "30054321",
				},
				Reason: "no pos approval",
			},
		},
		Warnings: []string{"unknown issuer \"Gwangju\": default fee rate applied"},
	}
}

func TestInsertAndGetRun(t *testing.T) {
	repo := newTestRepo(t)
	started := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun(sampleReport("run-1", started)))

	got, err := repo.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 3, got.SettlementCount)
	assert.Equal(t, 2, got.MatchCount)
	assert.Equal(t, 2, got.VendorCount)
	assert.Equal(t, 1, got.WarningCount)
}

func TestGetRunNotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun(sampleReport("run-old", base)))
	require.NoError(t, repo.InsertRun(sampleReport("run-new", base.Add(time.Hour))))

	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
}

func TestListVendorsPayoutDescending(t *testing.T) {
	repo := newTestRepo(t)
	started := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertRun(sampleReport("run-1", started)))

	vendors, err := repo.ListVendors("run-1")
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, "Busan Brewery", vendors[0].Vendor)
	assert.Equal(t, int64(97700), vendors[0].Payout)
	assert.Equal(t, "Momos Coffee", vendors[1].Vendor)
}

func TestListUnmatchedBySide(t *testing.T) {
	repo := newTestRepo(t)
	started := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertRun(sampleReport("run-1", started)))

	all, err := repo.ListUnmatched("run-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pos, err := repo.ListUnmatched("run-1", "pos")
	require.NoError(t, err)
	require.Len(t, pos, 1)
	assert.Equal(t, "pos", pos[0].Side)
	assert.Equal(t, "R-003", pos[0].ReceiptNo)

	settlementSide, err := repo.ListUnmatched("run-1", "settlement")
	require.NoError(t, err)
	require.Len(t, settlementSide, 1)
	assert.Equal(t, "Shinhan", settlementSide[0].Issuer)
	assert.Equal(t, int64(12000), settlementSide[0].Amount)
}

func TestTopVendorsUsesLatestRun(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun(sampleReport("run-old", base)))

	newer := sampleReport("run-new", base.Add(time.Hour))
	newer.Vendors = []domain.VendorSettlement{
		{Vendor: "Casa Busano", GrossSales: 50000, NetSales: 50000, Payout: 50000, ItemCount: 1},
	}
	require.NoError(t, repo.InsertRun(newer))

	vendors, err := repo.TopVendors(5)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Casa Busano", vendors[0].Vendor)
}
