// internal/workers/investor/select-top-matches/models.go
package selecttopmatches

import "investor-match-workers/internal/matching"

type Input struct {
	Matches  []matching.ScoredCandidate `json:"matches"`
	Limit    int                        `json:"limit,omitempty"`
	Offset   int                        `json:"offset,omitempty"`
	MinScore int                        `json:"minScore,omitempty"`
}

type Output struct {
	Matches []matching.ScoredCandidate `json:"matches"`
	Total   int                        `json:"total"`
	HasMore bool                       `json:"hasMore"`
}

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["matches"],
  "properties": {
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["candidate", "matchScore"],
        "properties": {
          "candidate": {"type": "object"},
          "matchScore": {"type": "integer", "minimum": 0, "maximum": 100}
        }
      }
    },
    "limit": {"type": "integer", "minimum": 0},
    "offset": {"type": "integer", "minimum": 0},
    "minScore": {"type": "integer", "minimum": 0, "maximum": 100}
  }
}`
