// internal/common/breaker/breaker.go
package breaker

import (
	"context"
	"errors"
	"time"

	"investor-match-workers/internal/common/logger"

	cb "github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

type Settings struct {
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
}

func DefaultSettings() Settings {
	return Settings{
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
		MinRequests:         20,
		FailureRatio:        0.05,
	}
}

// Breaker guards calls to one downstream dependency.
type Breaker struct {
	cb *cb.CircuitBreaker
}

func New(name string, s Settings, log logger.Logger) *Breaker {
	st := cb.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.Timeout,
	}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= s.ConsecutiveFailures {
			return true
		}
		if counts.Requests < s.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > s.FailureRatio
	}
	// cancellations are the caller's doing, not the dependency's
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	if log != nil {
		st.OnStateChange = func(name string, from, to cb.State) {
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		}
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Do runs fn through the breaker. Open and half-open rejections map to ErrOpen.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return zero, ErrOpen
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
