// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"time"

	"investor-match-workers/internal/common/errors"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckAll pings every named dependency and returns one error per failure.
func CheckAll(ctx context.Context, timeout time.Duration, deps map[string]Pinger) map[string]error {
	failures := make(map[string]error)
	for name, dep := range deps {
		if dep == nil {
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := dep.Ping(pingCtx); err != nil {
			failures[name] = fmt.Errorf("%s: %s", name, errors.Normalize(err).Details)
		}
		cancel()
	}
	return failures
}
