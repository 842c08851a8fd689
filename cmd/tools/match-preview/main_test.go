// cmd/tools/match-preview/main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"investor-match-workers/internal/matching"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRank_JSONOutput(t *testing.T) {
	out, err := run(t, "rank", "--seeker", "testdata/seeker.yaml", "--candidates", "testdata/candidates.yaml", "-o", "json")
	require.NoError(t, err)

	var ranked []matching.ScoredCandidate
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	require.Len(t, ranked, 2)

	assert.Equal(t, "inv-1", ranked[0].Candidate.ID)
	assert.Equal(t, 95, ranked[0].MatchScore)
	assert.Equal(t, 5, ranked[0].Breakdown.PortfolioRelevant)
	assert.Equal(t, "inv-3", ranked[1].Candidate.ID)
	assert.Equal(t, 50, ranked[1].MatchScore)
}

func TestRank_TableWithLimitAndRejected(t *testing.T) {
	out, err := run(t, "rank", "--seeker", "testdata/seeker.yaml", "--candidates", "testdata/candidates.yaml",
		"--limit", "1", "--all")
	require.NoError(t, err)

	assert.Contains(t, out, "Ledger Ventures")
	assert.NotContains(t, out, "Open Angels")
	assert.Contains(t, out, "ineligible: Late Stage Partners")
}

func TestRank_JSONSeekerWithNoEligibleCandidates(t *testing.T) {
	out, err := run(t, "rank", "--seeker", "testdata/seeker.json", "--candidates", "testdata/candidates.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "no eligible candidates")
}

func TestRank_Errors(t *testing.T) {
	_, err := run(t, "rank", "--seeker", "testdata/seeker.yaml", "--candidates", "testdata/missing.yaml")
	assert.Error(t, err)

	_, err = run(t, "rank", "--seeker", "testdata/seeker.yaml", "--candidates", "testdata/candidates.yaml", "-o", "xml")
	assert.Error(t, err)

	_, err = run(t, "rank", "--seeker", "testdata/seeker.yaml")
	assert.Error(t, err)
}

func TestStages(t *testing.T) {
	out, err := run(t, "stages")
	require.NoError(t, err)
	for _, st := range matching.Stages() {
		assert.Contains(t, out, st.Label())
	}
}
