package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/metrics"
)

// Ensure Resilient implements the interface.
var _ driven.LLMService = (*Resilient)(nil)

// Default resilience values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5
	DefaultFailureThreshold  = 5
	DefaultOpenTimeout       = 30 * time.Second
)

// Options configures the resilience wrapper.
type Options struct {
	// Timeout bounds each call.
	Timeout time.Duration

	// RequestsPerSecond and Burst shape outbound traffic.
	RequestsPerSecond float64
	Burst             int

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32

	// OpenTimeout is how long the circuit stays open before a trial call.
	OpenTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = DefaultBurst
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = DefaultOpenTimeout
	}
	return o
}

// Resilient wraps an LLMService with a per-call timeout, a token bucket
// and a circuit breaker. Every call is timed into the metrics registry.
type Resilient struct {
	next    driven.LLMService
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
}

// NewResilient wraps next.
func NewResilient(next driven.LLMService, opts Options) *Resilient {
	opts = opts.withDefaults()
	model := next.ModelName()

	return &Resilient{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm-" + model,
			MaxRequests: 1,
			Timeout:     opts.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.FailureThreshold
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit %s: %s -> %s", name, from, to)
			},
		}),
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		timeout: opts.Timeout,
	}
}

// countsAsSuccess keeps client-side mistakes from tripping the circuit.
// Only transport failures, timeouts and temporary statuses count against it.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}
	return false
}

// Generate produces text completion from a prompt.
func (r *Resilient) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return r.call(ctx, func(ctx context.Context) (string, error) {
		return r.next.Generate(ctx, prompt, opts)
	})
}

// Chat conducts a multi-turn conversation.
func (r *Resilient) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return r.call(ctx, func(ctx context.Context) (string, error) {
		return r.next.Chat(ctx, messages, opts)
	})
}

func (r *Resilient) call(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	model := r.next.ModelName()

	if err := waitRate(ctx, r.limiter); err != nil {
		metrics.RecordLLMFailure(model, FailureReason(err))
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	metrics.ObserveLLM(model, time.Since(start))

	if err != nil {
		reason := FailureReason(err)
		metrics.RecordLLMFailure(model, reason)
		logger.Debug("LLM call failed (%s): %v", reason, err)
		return "", err
	}

	text, _ := out.(string)
	return text, nil
}

// State returns the circuit state, for diagnostics.
func (r *Resilient) State() gobreaker.State {
	return r.breaker.State()
}

// ModelName returns the wrapped model name.
func (r *Resilient) ModelName() string {
	return r.next.ModelName()
}

// Ping checks the wrapped service directly, bypassing the circuit.
func (r *Resilient) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Close releases the wrapped service.
func (r *Resilient) Close() error {
	return r.next.Close()
}
