// internal/workers/communication/notify-investor-matches/models.go
package notifyinvestormatches

import "investor-match-workers/internal/matching"

type Input struct {
	StartupName string                     `json:"startupName"`
	Email       string                     `json:"email,omitempty"`
	Phone       string                     `json:"phone,omitempty"`
	Matches     []matching.ScoredCandidate `json:"matches"`
	TopN        int                        `json:"topN,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	MatchCount     int    `json:"matchCount"`
	Status         string `json:"status"` // "sent" or "skipped"
	SentAt         string `json:"sentAt"` // ISO 8601
}

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
)

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["startupName", "matches"],
  "properties": {
    "startupName": {"type": "string", "minLength": 1},
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "matches": {"type": "array", "items": {"type": "object", "required": ["candidate", "matchScore"]}},
    "topN": {"type": "integer", "minimum": 0}
  }
}`

var templates = map[string]string{
	"subject": "{{count}} investor matches for {{startupName}}",
	"body": "Hello,\n\nWe ranked investors for {{startupName}}. Your top {{count}} matches:\n\n" +
		"{{list}}\n\nScores run from 0 to 100 and reflect industry, stage, cheque size, lead preference and portfolio fit.",
	"sms": "{{startupName}}: {{count}} investor matches. Best: {{best}}",
}
