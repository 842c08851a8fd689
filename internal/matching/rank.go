// internal/matching/rank.go

// Package matching ranks prospective investors for a startup.
//
// RankCandidates filters the pool through the eligibility gates, scores each
// survivor and sorts by descending score. Candidates with equal scores keep their
// input order. The package holds no state and performs no I/O, so it may be called
// concurrently from any number of workers or request handlers.
package matching

import "sort"

func RankCandidates(seeker FundingSeeker, candidates []Candidate) []ScoredCandidate {
	eligible := FilterEligible(seeker, candidates)

	ranked := make([]ScoredCandidate, 0, len(eligible))
	for _, c := range eligible {
		b := ScoreBreakdown(seeker, c)
		ranked = append(ranked, ScoredCandidate{
			Candidate:  c,
			MatchScore: clamp(b.Total()),
			Breakdown:  b,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	return ranked
}
