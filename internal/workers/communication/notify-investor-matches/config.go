// internal/workers/communication/notify-investor-matches/config.go
package notifyinvestormatches

import (
	"time"

	"investor-match-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	TopN         int
	Timeout      time.Duration
}

func LoadConfig(wcfg config.WorkerConfig, ncfg config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: ncfg.Email.Enabled,
		SMSEnabled:   ncfg.SMS.Enabled,
		FromEmail:    ncfg.Email.FromEmail,
		SenderID:     ncfg.SMS.SenderID,
		TopN:         ncfg.TopN,
		Timeout:      config.GetDuration(wcfg.Timeout),
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
