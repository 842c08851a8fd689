// internal/matching/models.go
package matching

// FundingSeeker is the startup asking for capital.
type FundingSeeker struct {
	Industries        []string     `json:"industries" yaml:"industries"`
	FundingStage      FundingStage `json:"fundingStage" yaml:"fundingStage"`
	FundingNeeded     float64      `json:"fundingNeeded,omitempty" yaml:"fundingNeeded"`
	WantsLeadInvestor bool         `json:"wantsLeadInvestor" yaml:"wantsLeadInvestor"`
}

// InvestmentRange bounds the cheque size a candidate writes. Min > Max is unusable.
type InvestmentRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r *InvestmentRange) usable() bool {
	return r != nil && r.Min <= r.Max
}

func (r *InvestmentRange) contains(amount float64) bool {
	return r.usable() && r.Min <= amount && amount <= r.Max
}

type PortfolioEntry struct {
	TargetName string       `json:"targetName" yaml:"targetName"`
	Amount     float64      `json:"amount,omitempty" yaml:"amount"`
	Stage      FundingStage `json:"stage,omitempty" yaml:"stage"`
	Status     string       `json:"status,omitempty" yaml:"status"`
}

// Candidate is a prospective backer.
type Candidate struct {
	ID              string           `json:"id,omitempty" yaml:"id"`
	Name            string           `json:"name,omitempty" yaml:"name"`
	Industries      []string         `json:"industries" yaml:"industries"`
	FundingStages   []FundingStage   `json:"fundingStages" yaml:"fundingStages"`
	InvestmentRange *InvestmentRange `json:"investmentRange,omitempty" yaml:"investmentRange"`
	IsLeadInvestor  bool             `json:"isLeadInvestor" yaml:"isLeadInvestor"`
	Portfolio       []PortfolioEntry `json:"portfolio,omitempty" yaml:"portfolio"`
}

// Breakdown lists the points each factor contributed before clamping.
type Breakdown struct {
	IndustryOverlap   int `json:"industryOverlap"`
	StageMatch        int `json:"stageMatch"`
	RangeFit          int `json:"rangeFit"`
	LeadPreference    int `json:"leadPreference"`
	PortfolioRelevant int `json:"portfolioRelevance"`
}

func (b Breakdown) Total() int {
	return b.IndustryOverlap + b.StageMatch + b.RangeFit + b.LeadPreference + b.PortfolioRelevant
}

type ScoredCandidate struct {
	Candidate  Candidate `json:"candidate"`
	MatchScore int       `json:"matchScore"`
	Breakdown  Breakdown `json:"breakdown"`
}
