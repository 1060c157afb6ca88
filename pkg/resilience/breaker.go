package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/goattech/giftflow/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker refuses a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings holds circuit breaker tuning knobs
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// CircuitBreaker wraps gobreaker with context-aware execution
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a breaker from settings
func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        settings.Name,
			MaxRequests: settings.SuccessThreshold,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// Execute runs the operation through the breaker
func (b *CircuitBreaker) Execute(ctx context.Context, operation func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return operation(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return result, err
}
