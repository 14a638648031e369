package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNS-EUGENE/busansuper-payments/internal/discount"
	"github.com/SNS-EUGENE/busansuper-payments/internal/domain"
	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
	"github.com/SNS-EUGENE/busansuper-payments/internal/ingestion"
	"github.com/SNS-EUGENE/busansuper-payments/internal/repository"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.RunRepo) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRunRepo(db)
	eng := engine.New(feecatalog.NewCatalog(), discount.DefaultPolicy(), log)
	svc := ingestion.NewService(t.TempDir(), log)

	srv := httptest.NewServer(NewRouter(eng, svc, repo, log))
	t.Cleanup(srv.Close)
	return srv, repo
}

func seedRun(t *testing.T, repo *repository.RunRepo, id string) {
	t.Helper()
	started := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertRun(&engine.Report{
		RunID:       id,
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
		Counts:      engine.Counts{Settlements: 1, Transactions: 1, ReceiptLines: 1, Matches: 1, Vendors: 1},
		Vendors: []domain.VendorSettlement{
			{Vendor: "Busan Brewery", GrossSales: 100000, NetSales: 100000, FeeTotal: 2300, Payout: 97700, ItemCount: 1},
		},
	}))
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestTriggerRunWithoutFeeds(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The data directory is empty, so the run cannot start.
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "load feeds")
}

func TestListRuns(t *testing.T) {
	srv, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	var body struct {
		Runs []repository.RunSummary `json:"runs"`
	}
	status := getJSON(t, srv.URL+"/api/v1/runs", &body)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].ID)
}

func TestGetRun(t *testing.T) {
	srv, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	var run repository.RunSummary
	status := getJSON(t, srv.URL+"/api/v1/runs/run-1", &run)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 1, run.MatchCount)
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/api/v1/runs/missing", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "run not found", body["error"])
}

func TestListRunVendors(t *testing.T) {
	srv, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	var body struct {
		Vendors []domain.VendorSettlement `json:"vendors"`
		Total   int                       `json:"total"`
	}
	status := getJSON(t, srv.URL+"/api/v1/runs/run-1/vendors", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Vendors, 1)
	assert.Equal(t, int64(97700), body.Vendors[0].Payout)
}

func TestListRunUnmatchedRejectsBadSide(t *testing.T) {
	srv, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	var body map[string]string
	status := getJSON(t, srv.URL+"/api/v1/runs/run-1/unmatched?side=everything", &body)

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTopVendors(t *testing.T) {
	srv, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	var body struct {
		Vendors []domain.VendorSettlement `json:"vendors"`
	}
	status := getJSON(t, srv.URL+"/api/v1/vendors/top?limit=5", &body)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Vendors, 1)
	assert.Equal(t, "Busan Brewery", body.Vendors[0].Vendor)
}
