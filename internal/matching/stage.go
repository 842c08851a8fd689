// internal/matching/stage.go
package matching

import "strings"

// FundingStage is the round a startup is raising or an investor participates in.
type FundingStage string

const (
	StageIdea         FundingStage = "Idea"
	StagePreSeed      FundingStage = "Pre-seed"
	StageSeed         FundingStage = "Seed"
	StageSeriesA      FundingStage = "Series A"
	StageSeriesB      FundingStage = "Series B"
	StageSeriesCPlus  FundingStage = "Series C+"
	StageBootstrapped FundingStage = "Bootstrapped"
)

var allStages = []FundingStage{
	StageIdea,
	StagePreSeed,
	StageSeed,
	StageSeriesA,
	StageSeriesB,
	StageSeriesCPlus,
	StageBootstrapped,
}

var stageLabels = map[FundingStage]string{
	StageIdea:         "Idea stage",
	StagePreSeed:      "Pre-seed round",
	StageSeed:         "Seed round",
	StageSeriesA:      "Series A round",
	StageSeriesB:      "Series B round",
	StageSeriesCPlus:  "Series C and later",
	StageBootstrapped: "Bootstrapped",
}

// Stages returns every known funding stage in lifecycle order.
func Stages() []FundingStage {
	out := make([]FundingStage, len(allStages))
	copy(out, allStages)
	return out
}

// ParseFundingStage accepts the canonical names case-insensitively.
func ParseFundingStage(s string) (FundingStage, bool) {
	s = strings.TrimSpace(s)
	for _, st := range allStages {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return FundingStage(s), false
}

// UnmarshalText lets JSON and YAML inputs use any casing for known stages.
// Unknown text is kept as-is and never matches.
func (s *FundingStage) UnmarshalText(b []byte) error {
	*s, _ = ParseFundingStage(string(b))
	return nil
}

func (s FundingStage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

func (s FundingStage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return "Unknown stage"
}

// InvestorType classifies a backer. It is descriptive only and not scored.
type InvestorType string

const (
	InvestorAngel        InvestorType = "Angel"
	InvestorVC           InvestorType = "VC"
	InvestorCorporate    InvestorType = "Corporate"
	InvestorAccelerator  InvestorType = "Accelerator"
	InvestorFamilyOffice InvestorType = "Family Office"
	InvestorCrowdfunding InvestorType = "Crowdfunding"
)

var investorTypeLabels = map[InvestorType]string{
	InvestorAngel:        "Angel investor",
	InvestorVC:           "Venture capital fund",
	InvestorCorporate:    "Corporate venture arm",
	InvestorAccelerator:  "Accelerator",
	InvestorFamilyOffice: "Family office",
	InvestorCrowdfunding: "Crowdfunding platform",
}

func ParseInvestorType(s string) (InvestorType, bool) {
	s = strings.TrimSpace(s)
	for t := range investorTypeLabels {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return InvestorType(s), false
}

func (t InvestorType) Valid() bool {
	_, ok := investorTypeLabels[t]
	return ok
}

func (t InvestorType) Label() string {
	if label, ok := investorTypeLabels[t]; ok {
		return label
	}
	return "Other"
}
