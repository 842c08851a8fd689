// internal/workers/investor/select-top-matches/config.go
package selecttopmatches

import (
	"investor-match-workers/internal/common/config"
)

// Config carries no timeout: selection is in-memory and job commands run on
// the sender's own deadline.
type Config struct {
	MaxItems int
}

func LoadConfig(mcfg config.MatchingConfig) *Config {
	cfg := &Config{MaxItems: mcfg.MaxItems}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	return cfg
}
