// internal/matching/filter.go
package matching

import "strings"

// Eligible reports whether a candidate passes the industry, stage and range gates.
// A candidate without a range is never excluded by the range gate.
func Eligible(seeker FundingSeeker, c Candidate) bool {
	if sharedIndustries(seeker.Industries, c.Industries) == 0 {
		return false
	}
	if !fundsStage(c.FundingStages, seeker.FundingStage) {
		return false
	}
	if c.InvestmentRange == nil {
		return true
	}
	return c.InvestmentRange.contains(seeker.FundingNeeded)
}

// FilterEligible keeps eligible candidates in their original order.
func FilterEligible(seeker FundingSeeker, candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Eligible(seeker, c) {
			out = append(out, c)
		}
	}
	return out
}

// NormalizeIndustries trims each industry and drops blanks and repeats,
// keeping first-seen order. Comparison stays case-sensitive.
func NormalizeIndustries(industries []string) []string {
	out := make([]string, 0, len(industries))
	seen := make(map[string]struct{}, len(industries))
	for _, ind := range industries {
		ind = strings.TrimSpace(ind)
		if ind == "" {
			continue
		}
		if _, dup := seen[ind]; dup {
			continue
		}
		seen[ind] = struct{}{}
		out = append(out, ind)
	}
	return out
}

// sharedIndustries counts distinct seeker industries the candidate also lists.
func sharedIndustries(seeker, candidate []string) int {
	wanted := NormalizeIndustries(seeker)
	if len(wanted) == 0 || len(candidate) == 0 {
		return 0
	}
	funded := make(map[string]struct{}, len(candidate))
	for _, ind := range NormalizeIndustries(candidate) {
		funded[ind] = struct{}{}
	}
	n := 0
	for _, ind := range wanted {
		if _, ok := funded[ind]; ok {
			n++
		}
	}
	return n
}

func fundsStage(stages []FundingStage, stage FundingStage) bool {
	if !stage.Valid() {
		return false
	}
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}
