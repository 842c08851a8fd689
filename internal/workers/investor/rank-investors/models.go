// internal/workers/investor/rank-investors/models.go
package rankinvestors

import "investor-match-workers/internal/matching"

type Input struct {
	StartupID  string                  `json:"startupId,omitempty"`
	Seeker     *matching.FundingSeeker `json:"seeker,omitempty"`
	Candidates []matching.Candidate    `json:"candidates,omitempty"`
}

type Output struct {
	StartupID       string                     `json:"startupId,omitempty"`
	Matches         []matching.ScoredCandidate `json:"matches"`
	TotalCandidates int                        `json:"totalCandidates"`
	EligibleCount   int                        `json:"eligibleCount"`
	RankedAt        string                     `json:"rankedAt"`
}

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "startupId": {"type": "string", "minLength": 1},
    "seeker": {
      "type": "object",
      "required": ["industries", "fundingStage"],
      "properties": {
        "industries": {"type": "array", "items": {"type": "string"}},
        "fundingStage": {"type": "string"},
        "fundingNeeded": {"type": "number", "minimum": 0},
        "wantsLeadInvestor": {"type": "boolean"}
      }
    },
    "candidates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["industries", "fundingStages"],
        "properties": {
          "id": {"type": "string"},
          "industries": {"type": "array", "items": {"type": "string"}},
          "fundingStages": {"type": "array", "items": {"type": "string"}},
          "investmentRange": {
            "type": ["object", "null"],
            "required": ["min", "max"],
            "properties": {
              "min": {"type": "number"},
              "max": {"type": "number"}
            }
          },
          "isLeadInvestor": {"type": "boolean"},
          "portfolio": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {"targetName": {"type": "string"}}
            }
          }
        }
      }
    }
  },
  "anyOf": [
    {"required": ["startupId"]},
    {"required": ["seeker"]}
  ]
}`
