// internal/models/startup.go
package models

import (
	"fmt"
	"strings"
	"time"

	"investor-match-workers/internal/matching"
)

type Founder struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

type Startup struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Tagline        string    `json:"tagline,omitempty"`
	Description    string    `json:"description,omitempty"`
	Industry       []string  `json:"industry"`
	Founders       []Founder `json:"founders,omitempty"`
	FundingStage   string    `json:"fundingStage"`
	FundingNeeded  *float64  `json:"fundingNeeded,omitempty"`
	FundingRaised  *float64  `json:"fundingRaised,omitempty"`
	LookingForLead bool      `json:"lookingForLead"`
	Website        string    `json:"website,omitempty"`
	ContactEmail   string    `json:"contactEmail,omitempty"`
	ContactPhone   string    `json:"contactPhone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (s *Startup) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	s.Industry = matching.NormalizeIndustries(s.Industry)
	if len(s.Industry) == 0 {
		return fmt.Errorf("at least one industry is required")
	}
	stage, ok := matching.ParseFundingStage(s.FundingStage)
	if !ok {
		return fmt.Errorf("unknown funding stage %q", s.FundingStage)
	}
	s.FundingStage = string(stage)
	if s.FundingNeeded != nil && *s.FundingNeeded < 0 {
		return fmt.Errorf("fundingNeeded must not be negative")
	}
	if s.Slug == "" {
		s.Slug = Slugify(s.Name)
	}
	return nil
}

// ToSeeker projects the record onto the scorer's input. Unset funding is zero.
func (s Startup) ToSeeker() matching.FundingSeeker {
	var need float64
	if s.FundingNeeded != nil {
		need = *s.FundingNeeded
	}
	return matching.FundingSeeker{
		Industries:        append([]string(nil), s.Industry...),
		FundingStage:      toStage(s.FundingStage),
		FundingNeeded:     need,
		WantsLeadInvestor: s.LookingForLead,
	}
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
