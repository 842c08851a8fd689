// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/database"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"
	"investor-match-workers/internal/ranking"
	"investor-match-workers/internal/store"
	"investor-match-workers/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeIndexer struct{ indexed []string }

func (f *fakeIndexer) IndexInvestor(_ context.Context, inv *models.Investor) error {
	f.indexed = append(f.indexed, inv.ID)
	return nil
}

type testEnv struct {
	startups  *storetest.Startups
	investors *storetest.Investors
	source    *storetest.Source
	indexer   *fakeIndexer
	server    *Server
}

func newTestEnv(t *testing.T, httpCfg config.HTTPConfig, health map[string]database.Pinger) *testEnv {
	env := &testEnv{
		startups:  &storetest.Startups{},
		investors: &storetest.Investors{},
		source:    &storetest.Source{},
		indexer:   &fakeIndexer{},
	}
	if httpCfg.RateLimitRPS == 0 {
		httpCfg.RateLimitRPS = 1000
		httpCfg.RateLimitBurst = 1000
	}
	env.server = NewServer(httpCfg, 10, Deps{
		Startups:  env.startups,
		Investors: env.investors,
		Ranking:   ranking.NewService(env.startups, env.source, config.CandidateSourcePostgres, nil),
		Indexer:   env.indexer,
		Health:    health,
		Logger:    logger.NewTestLogger(t),
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Probes
// ==========================

func TestHealth(t *testing.T) {
	rec := newTestEnv(t, config.HTTPConfig{}, nil).do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := newTestEnv(t, config.HTTPConfig{}, map[string]database.Pinger{"postgres": fakePinger{}})
	assert.Equal(t, http.StatusOK, ok.do(http.MethodGet, "/ready", "").Code)

	down := newTestEnv(t, config.HTTPConfig{}, map[string]database.Pinger{
		"postgres": fakePinger{},
		"redis":    fakePinger{err: stderrors.New("connection refused")},
	})
	rec := down.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis: connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newTestEnv(t, config.HTTPConfig{}, nil).do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestUnknownRoute(t *testing.T) {
	rec := newTestEnv(t, config.HTTPConfig{}, nil).do(http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, rec).Error)
}

// ==========================
// Investors
// ==========================

func TestGetInvestor(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)
	env.investors.On("GetInvestor", mock.Anything, "inv-1").Return(&models.Investor{ID: "inv-1", Name: "Northwind"}, nil)
	env.investors.On("GetInvestor", mock.Anything, "nope").Return(nil, store.ErrNotFound)
	env.investors.On("GetInvestor", mock.Anything, "boom").Return(nil, stderrors.New("pq: connection reset"))

	rec := env.do(http.MethodGet, "/v1/investors/inv-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Northwind"`)

	rec = env.do(http.MethodGet, "/v1/investors/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INVESTOR_NOT_FOUND", decodeError(t, rec).Error)

	rec = env.do(http.MethodGet, "/v1/investors/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "QUERY_EXECUTION_FAILED", decodeError(t, rec).Error)
}

func TestListInvestors_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)
	env.investors.On("ListInvestors", mock.Anything).Return(nil, nil)

	rec := env.do(http.MethodGet, "/v1/investors", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateInvestor(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)
	env.investors.On("CreateInvestor", mock.Anything, mock.MatchedBy(func(inv *models.Investor) bool {
		return inv.FundingStages[0] == "Seed" && inv.Type == matching.InvestorVC
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Investor).ID = "generated-id"
	}).Return(nil)

	body := `{"name": "Northwind", "type": "vc", "industries": ["fintech"], "fundingStages": ["seed"],
		"investmentRange": {"min": 100000, "max": 1000000}, "portfolio": []}`
	rec := env.do(http.MethodPost, "/v1/investors", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"generated-id"`)
	assert.Equal(t, []string{"generated-id"}, env.indexer.indexed)
	env.investors.AssertExpectations(t)
}

func TestCreateInvestor_Rejected(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"name":`, code: "INPUT_VALIDATION_FAILED"},
		{name: "inverted range", body: `{"name": "X", "industries": ["ai"], "fundingStages": ["Seed"], "investmentRange": {"min": 10, "max": 1}}`, code: "PROFILE_INVALID"},
		{name: "unknown stage", body: `{"name": "X", "industries": ["ai"], "fundingStages": ["Series Z"]}`, code: "PROFILE_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/investors", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
	env.investors.AssertNotCalled(t, "CreateInvestor", mock.Anything, mock.Anything)
}

// ==========================
// Startups and matches
// ==========================

func TestCreateStartup(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)
	env.startups.On("CreateStartup", mock.Anything, mock.MatchedBy(func(s *models.Startup) bool {
		return s.Slug == "ledgerly-labs" && s.FundingStage == "Series A"
	})).Return(nil)

	rec := env.do(http.MethodPost, "/v1/startups", `{"name": "Ledgerly Labs", "industry": ["fintech"], "fundingStage": "series a"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env.startups.AssertExpectations(t)
}

func TestInvestorMatches(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{}, nil)
	env.startups.On("GetStartup", mock.Anything, "st-1").Return(&models.Startup{
		ID: "st-1", Name: "Ledgerly", Industry: []string{"fintech"}, FundingStage: "Seed",
	}, nil)
	env.startups.On("GetStartup", mock.Anything, "missing").Return(nil, store.ErrNotFound)
	env.source.On("Candidates", mock.Anything, mock.Anything).Return([]matching.Candidate{
		{ID: "a", Industries: []string{"fintech"}, FundingStages: []matching.FundingStage{matching.StageSeed}},
		{ID: "b", Industries: []string{"fintech"}, FundingStages: []matching.FundingStage{matching.StageSeed},
			Portfolio: []matching.PortfolioEntry{{TargetName: "Fintech One"}}},
		{ID: "c", Industries: []string{"retail"}, FundingStages: []matching.FundingStage{matching.StageSeed}},
	}, nil)

	rec := env.do(http.MethodGet, "/v1/startups/st-1/investor-matches?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp matchesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "b", resp.Matches[0].Candidate.ID)
	assert.Equal(t, 55, resp.Matches[0].MatchScore)
	assert.Equal(t, 3, resp.TotalCandidates)
	assert.Equal(t, 2, resp.EligibleCount)
	assert.True(t, resp.HasMore)

	rec = env.do(http.MethodGet, "/v1/startups/missing/investor-matches", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "STARTUP_NOT_FOUND", decodeError(t, rec).Error)

	rec = env.do(http.MethodGet, "/v1/startups/st-1/investor-matches?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Rate limiting
// ==========================

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{RateLimitRPS: 0.001, RateLimitBurst: 1}, nil)
	env.startups.On("ListStartups", mock.Anything).Return([]models.Startup{}, nil)

	first := env.do(http.MethodGet, "/v1/startups", "")
	second := env.do(http.MethodGet, "/v1/startups", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Error)

	// probes are not limited
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "").Code)
}

func TestClientKey_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	clients, invalid := newClientResolver(nil)
	assert.Empty(t, invalid)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "198.51.100.4", clients.key(req))
}

func TestClientKey_TrustedProxy(t *testing.T) {
	clients, invalid := newClientResolver([]string{"10.0.0.0/8", "192.0.2.1", "not-an-ip"})
	assert.Equal(t, []string{"not-an-ip"}, invalid)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clients.key(req))

	// the client can prepend anything; only the hop the proxy appended counts
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.9, 192.0.2.1")
	assert.Equal(t, "203.0.113.9", clients.key(req))

	req.Header.Set("X-Forwarded-For", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", clients.key(req))
}

func TestRateLimit_RotatingForwardedForIsStillLimited(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{RateLimitRPS: 0.001, RateLimitBurst: 1}, nil)
	env.startups.On("ListStartups", mock.Anything).Return([]models.Startup{}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/startups", nil)
		req.RemoteAddr = "198.51.100.4:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, env.server.limiter.size())
}

func TestClientLimiter_EvictsIdleBuckets(t *testing.T) {
	l := newClientLimiter(10, 20)
	assert.Equal(t, minIdleTTL, l.idleTTL)

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(fmt.Sprintf("203.0.113.%d", i)))
	}
	assert.Equal(t, 100, l.size())

	now = now.Add(minIdleTTL)
	assert.True(t, l.Allow("198.51.100.4"))
	assert.Equal(t, 1, l.size())
}

func TestClientLimiter_IdleTTLCoversRefill(t *testing.T) {
	l := newClientLimiter(0.001, 1)
	assert.InDelta(t, 1000, l.idleTTL.Seconds(), 0.001)
}
