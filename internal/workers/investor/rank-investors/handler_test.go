// internal/workers/investor/rank-investors/handler_test.go
package rankinvestors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"investor-match-workers/internal/common/camunda/camundatest"
	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/errors"
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

func createTestHandler(t *testing.T, startups store.StartupStore, source store.CandidateSource) *Handler {
	svc := ranking.NewService(startups, source, config.CandidateSourcePostgres, nil)
	return NewHandler(LoadConfig(config.WorkerConfig{Timeout: 5000}), svc, logger.NewTestLogger(t))
}

func errorCode(err error) errors.ErrorCode {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

const inlineVariables = `{
  "seeker": {"industries": ["fintech", "ai"], "fundingStage": "seed", "fundingNeeded": 250000, "wantsLeadInvestor": false},
  "candidates": [
    {"id": "inv-1", "industries": ["health"], "fundingStages": ["Seed"]},
    {"id": "inv-2", "industries": ["fintech"], "fundingStages": ["Seed"], "investmentRange": {"min": 100000, "max": 500000}},
    {"id": "inv-3", "industries": ["ai", "fintech"], "fundingStages": ["Seed", "Series A"],
     "portfolio": [{"targetName": "AI Copilot Inc"}, {"targetName": "Bakery"}]}
  ],
  "processInstanceNote": "unrelated variables are ignored"
}`

// ==========================
// Config
// ==========================

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
}

// ==========================
// Input parsing
// ==========================

func TestParseInput(t *testing.T) {
	h := createTestHandler(t, nil, nil)

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{name: "inline seeker and candidates", variables: inlineVariables},
		{name: "startup id only", variables: `{"startupId": "0b6f3c4e-58c4-4d5e-9f0a-3f1b2c7d8e90"}`},
		{name: "not json", variables: `{"seeker":`, wantErr: true},
		{name: "neither startup nor seeker", variables: `{"candidates": []}`, wantErr: true},
		{name: "empty startup id", variables: `{"startupId": ""}`, wantErr: true},
		{name: "seeker without stage", variables: `{"seeker": {"industries": ["ai"]}}`, wantErr: true},
		{name: "negative funding need", variables: `{"seeker": {"industries": ["ai"], "fundingStage": "Seed", "fundingNeeded": -1}}`, wantErr: true},
		{name: "candidate without stages", variables: `{"startupId": "x", "candidates": [{"industries": ["ai"]}]}`, wantErr: true},
		{name: "range missing max", variables: `{"startupId": "x", "candidates": [{"industries": ["ai"], "fundingStages": [], "investmentRange": {"min": 1}}]}`, wantErr: true},
		{name: "null range", variables: `{"startupId": "x", "candidates": [{"industries": ["ai"], "fundingStages": [], "investmentRange": null}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInputValidationFailed, errorCode(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, input)
		})
	}
}

func TestParseInput_NormalisesStages(t *testing.T) {
	input, err := createTestHandler(t, nil, nil).parseInput(inlineVariables)
	require.NoError(t, err)

	assert.Equal(t, matching.StageSeed, input.Seeker.FundingStage)
	assert.Equal(t, []matching.FundingStage{matching.StageSeed, matching.StageSeriesA}, input.Candidates[2].FundingStages)
}

// ==========================
// Execute
// ==========================

func TestExecute_InlineRanking(t *testing.T) {
	h := createTestHandler(t, nil, nil)
	input, err := h.parseInput(inlineVariables)
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	// inv-3: 2 industries (40) + stage (30) + one relevant portfolio entry (5) = 75
	// inv-2: 1 industry (20) + stage (30) + range (25) = 75, input order breaks the tie
	require.Len(t, out.Matches, 2)
	assert.Equal(t, "inv-2", out.Matches[0].Candidate.ID)
	assert.Equal(t, 75, out.Matches[0].MatchScore)
	assert.Equal(t, "inv-3", out.Matches[1].Candidate.ID)
	assert.Equal(t, 75, out.Matches[1].MatchScore)
	assert.Equal(t, 5, out.Matches[1].Breakdown.PortfolioRelevant)
	assert.Equal(t, 3, out.TotalCandidates)
	assert.Equal(t, 2, out.EligibleCount)

	_, err = time.Parse(time.RFC3339, out.RankedAt)
	assert.NoError(t, err)
}

func TestExecute_FromStores(t *testing.T) {
	startups := &storetest.Startups{}
	source := &storetest.Source{}

	startups.On("GetStartup", mock.Anything, "st-1").Return(&models.Startup{
		ID:           "st-1",
		Name:         "Ledgerly",
		Industry:     []string{"fintech"},
		FundingStage: "Seed",
	}, nil)
	source.On("Candidates", mock.Anything, mock.Anything).Return([]matching.Candidate{
		{ID: "inv-1", Industries: []string{"fintech"}, FundingStages: []matching.FundingStage{matching.StageSeed}},
	}, nil)

	out, err := createTestHandler(t, startups, source).Execute(context.Background(), &Input{StartupID: "st-1"})
	require.NoError(t, err)

	assert.Equal(t, "st-1", out.StartupID)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, 50, out.Matches[0].MatchScore)
	startups.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestExecute_NoEligibleCandidates(t *testing.T) {
	out, err := createTestHandler(t, nil, nil).Execute(context.Background(), &Input{
		Seeker:     &matching.FundingSeeker{Industries: []string{"ai"}, FundingStage: matching.StageSeed},
		Candidates: []matching.Candidate{{ID: "x", Industries: []string{"retail"}, FundingStages: []matching.FundingStage{matching.StageSeed}}},
	})
	require.NoError(t, err)

	assert.NotNil(t, out.Matches)
	assert.Empty(t, out.Matches)
	assert.Equal(t, 1, out.TotalCandidates)
}

func TestExecute_StartupNotFound(t *testing.T) {
	startups := &storetest.Startups{}
	startups.On("GetStartup", mock.Anything, "missing").Return(nil, store.ErrNotFound)

	_, err := createTestHandler(t, startups, &storetest.Source{}).Execute(context.Background(), &Input{StartupID: "missing"})
	require.Error(t, err)

	assert.Equal(t, errors.ErrCodeStartupNotFound, errorCode(err))
	assert.False(t, errors.IsRetryableErrorCode(errorCode(err)))
}

// ==========================
// Handle
// ==========================

func TestHandle_CompletesJob(t *testing.T) {
	gw := &camundatest.Gateway{}
	h := createTestHandler(t, nil, nil)

	require.NoError(t, h.Handle(gw.JobClient(), camundatest.Job(11, TaskType, inlineVariables, 3)))

	completed := gw.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(11), completed[0].GetJobKey())
	assert.Empty(t, gw.Failed())
	assert.Empty(t, gw.Thrown())

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(completed[0].GetVariables()), &out))
	assert.Len(t, out["matches"], 2)
	assert.EqualValues(t, 3, out["totalCandidates"])
}

// The pool lookup outlives the job deadline; the fail command must still go
// out on a live context.
func TestHandle_TimeoutFailsJobOnFreshContext(t *testing.T) {
	source := &storetest.Source{}
	source.On("Candidates", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	svc := ranking.NewService(nil, source, config.CandidateSourcePostgres, nil)
	h := NewHandler(LoadConfig(config.WorkerConfig{Timeout: 20}), svc, logger.NewTestLogger(t))
	gw := &camundatest.Gateway{}

	vars := `{"seeker": {"industries": ["ai"], "fundingStage": "Seed"}}`
	err := h.Handle(gw.JobClient(), camundatest.Job(12, TaskType, vars, 3))
	assert.Equal(t, errors.ErrCodeQueryTimeout, errorCode(err))

	failed := gw.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(12), failed[0].GetJobKey())
	assert.Equal(t, int32(1), failed[0].GetRetries())
	assert.Empty(t, gw.Completed())
	assert.Equal(t, []error{nil}, gw.ContextErrors())
}

func TestHandle_InvalidInputThrowsBPMNError(t *testing.T) {
	gw := &camundatest.Gateway{}
	h := createTestHandler(t, nil, nil)

	err := h.Handle(gw.JobClient(), camundatest.Job(13, TaskType, `{"candidates": []}`, 3))
	assert.Equal(t, errors.ErrCodeInputValidationFailed, errorCode(err))

	thrown := gw.Thrown()
	require.Len(t, thrown, 1)
	assert.Equal(t, "INPUT_VALIDATION_FAILED", thrown[0].GetErrorCode())
	assert.Contains(t, thrown[0].GetVariables(), "originalErrorCode")
	assert.Empty(t, gw.Failed())
}

func TestHandle_UsesCommandSender(t *testing.T) {
	var ops []string
	send := func(op string, fn func(context.Context) error) error {
		ops = append(ops, op)
		return errors.SendOnce(op, fn)
	}
	gw := &camundatest.Gateway{Err: stderrors.New("rpc error: code = NotFound")}
	h := createTestHandler(t, nil, nil).WithCommandSender(send)

	err := h.Handle(gw.JobClient(), camundatest.Job(14, TaskType, inlineVariables, 3))
	require.Error(t, err)

	assert.Equal(t, []string{"complete job"}, ops)
	assert.Len(t, gw.Completed(), 1)
}
