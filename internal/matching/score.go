// internal/matching/score.go
package matching

import "strings"

const (
	PointsPerIndustry  = 20
	PointsStageMatch   = 30
	PointsRangeFit     = 25
	PointsLeadInvestor = 15
	PointsPerPortfolio = 5

	MaxScore = 100
)

// ScoreBreakdown computes every factor independently of the eligibility filter.
func ScoreBreakdown(seeker FundingSeeker, c Candidate) Breakdown {
	var b Breakdown

	b.IndustryOverlap = sharedIndustries(seeker.Industries, c.Industries) * PointsPerIndustry

	if fundsStage(c.FundingStages, seeker.FundingStage) {
		b.StageMatch = PointsStageMatch
	}

	// Strict here, lenient in Eligible: no range earns nothing.
	if c.InvestmentRange.contains(seeker.FundingNeeded) {
		b.RangeFit = PointsRangeFit
	}

	if c.IsLeadInvestor && seeker.WantsLeadInvestor {
		b.LeadPreference = PointsLeadInvestor
	}

	b.PortfolioRelevant = relevantPortfolioEntries(seeker.Industries, c.Portfolio) * PointsPerPortfolio

	return b
}

// Score returns the clamped 0-100 match score.
func Score(seeker FundingSeeker, c Candidate) int {
	return clamp(ScoreBreakdown(seeker, c).Total())
}

func relevantPortfolioEntries(industries []string, portfolio []PortfolioEntry) int {
	if len(portfolio) == 0 {
		return 0
	}
	// a blank industry would match every entry
	needles := NormalizeIndustries(industries)
	for i, n := range needles {
		needles[i] = strings.ToLower(n)
	}
	if len(needles) == 0 {
		return 0
	}

	n := 0
	for _, entry := range portfolio {
		name := strings.ToLower(entry.TargetName)
		for _, needle := range needles {
			if strings.Contains(name, needle) {
				n++
				break
			}
		}
	}
	return n
}

func clamp(points int) int {
	if points < 0 {
		return 0
	}
	if points > MaxScore {
		return MaxScore
	}
	return points
}
