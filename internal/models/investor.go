// internal/models/investor.go
package models

import (
	"fmt"
	"strings"
	"time"

	"investor-match-workers/internal/matching"
)

type Location struct {
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
}

// Investment is one entry of an investor's portfolio.
type Investment struct {
	StartupName string     `json:"startupName"`
	StartupID   string     `json:"startupId,omitempty"`
	Amount      float64    `json:"amount"`
	Date        *time.Time `json:"date,omitempty"`
	Stage       string     `json:"stage,omitempty"`
	Status      string     `json:"status,omitempty"`
}

type Investor struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name"`
	Type             matching.InvestorType     `json:"type"`
	Firm             string                    `json:"firm,omitempty"`
	Location         Location                  `json:"location"`
	InvestmentRange  *matching.InvestmentRange `json:"investmentRange,omitempty"`
	Industries       []string                  `json:"industries"`
	FundingStages    []string                  `json:"fundingStages"`
	Portfolio        []Investment              `json:"portfolio"`
	Bio              string                    `json:"bio,omitempty"`
	Website          string                    `json:"website,omitempty"`
	Email            string                    `json:"email,omitempty"`
	InvestmentThesis string                    `json:"investmentThesis,omitempty"`
	AvgCheckSize     float64                   `json:"avgCheckSize,omitempty"`
	LeadInvestor     bool                      `json:"leadInvestor"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

// Validate normalizes stage and type spellings and reports the first problem found.
func (i *Investor) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	i.Industries = matching.NormalizeIndustries(i.Industries)
	if len(i.Industries) == 0 {
		return fmt.Errorf("at least one industry is required")
	}
	if len(i.FundingStages) == 0 {
		return fmt.Errorf("at least one funding stage is required")
	}
	for n, s := range i.FundingStages {
		stage, ok := matching.ParseFundingStage(s)
		if !ok {
			return fmt.Errorf("fundingStages[%d]: unknown stage %q", n, s)
		}
		i.FundingStages[n] = string(stage)
	}
	if i.Type != "" {
		t, ok := matching.ParseInvestorType(string(i.Type))
		if !ok {
			return fmt.Errorf("unknown investor type %q", i.Type)
		}
		i.Type = t
	}
	if r := i.InvestmentRange; r != nil && (r.Min < 0 || r.Min > r.Max) {
		return fmt.Errorf("investmentRange must satisfy 0 <= min <= max")
	}
	for n, inv := range i.Portfolio {
		if strings.TrimSpace(inv.StartupName) == "" {
			return fmt.Errorf("portfolio[%d]: startupName is required", n)
		}
	}
	return nil
}

// ToCandidate projects the record onto the fields the scorer reads.
func (i Investor) ToCandidate() matching.Candidate {
	stages := make([]matching.FundingStage, len(i.FundingStages))
	for n, s := range i.FundingStages {
		stages[n] = toStage(s)
	}

	portfolio := make([]matching.PortfolioEntry, len(i.Portfolio))
	for n, inv := range i.Portfolio {
		portfolio[n] = matching.PortfolioEntry{
			TargetName: inv.StartupName,
			Amount:     inv.Amount,
			Stage:      toStage(inv.Stage),
			Status:     inv.Status,
		}
	}

	var rng *matching.InvestmentRange
	if i.InvestmentRange != nil {
		r := *i.InvestmentRange
		rng = &r
	}

	return matching.Candidate{
		ID:              i.ID,
		Name:            i.Name,
		Industries:      append([]string(nil), i.Industries...),
		FundingStages:   stages,
		InvestmentRange: rng,
		IsLeadInvestor:  i.LeadInvestor,
		Portfolio:       portfolio,
	}
}

// CandidatesFrom converts a pool preserving order.
func CandidatesFrom(investors []Investor) []matching.Candidate {
	out := make([]matching.Candidate, len(investors))
	for n, inv := range investors {
		out[n] = inv.ToCandidate()
	}
	return out
}

// toStage keeps unknown spellings as-is so they stay invalid and never match.
func toStage(s string) matching.FundingStage {
	if stage, ok := matching.ParseFundingStage(s); ok {
		return stage
	}
	return matching.FundingStage(s)
}
