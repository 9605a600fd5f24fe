package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/logger"
)

// Generator is what pipeline stages depend on: one bounded text-generation call.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Delegate wraps a Client with the per-call budget and the retry policy.
type Delegate struct {
	client      Client
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// DelegateOption configures a Delegate
type DelegateOption func(*Delegate)

// WithMaxAttempts sets how many times a failed call is tried in total.
func WithMaxAttempts(n int) DelegateOption {
	return func(d *Delegate) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the pause between attempts.
func WithBackoff(backoff time.Duration) DelegateOption {
	return func(d *Delegate) {
		if backoff >= 0 {
			d.backoff = backoff
		}
	}
}

// WithDelegateLogger sets the logger used for retry warnings.
func WithDelegateLogger(l *zap.Logger) DelegateOption {
	return func(d *Delegate) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDelegate wraps client. Defaults: 2 attempts, 1s backoff.
func NewDelegate(client Client, opts ...DelegateOption) *Delegate {
	d := &Delegate{
		client:      client,
		maxAttempts: 2,
		backoff:     time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Generate runs req under its budget, retrying transient failures. The budget spans
// every attempt and the backoff between them; once it is spent nothing is retried.
// Caller cancellation is never retried either.
func (d *Delegate) Generate(ctx context.Context, req Request) (string, error) {
	callCtx := ctx
	if req.Budget > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, req.Budget)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		out, err := d.attempt(callCtx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if callCtx.Err() != nil {
			return "", d.budgetError(req, err)
		}
		if attempt == d.maxAttempts {
			break
		}

		d.logger.Warn("generation attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.maxAttempts),
			zap.String(logger.FieldProvider, string(d.client.Provider())),
			zap.String(logger.FieldModel, d.client.GetModel(req.Tier)),
			zap.Error(err),
		)

		timer := time.NewTimer(d.backoff)
		select {
		case <-callCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", d.budgetError(req, err)
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (d *Delegate) budgetError(req Request, last error) error {
	return fmt.Errorf("%w after %s: %v", ErrTimeout, req.Budget, last)
}

func (d *Delegate) attempt(ctx context.Context, req Request) (string, error) {
	out, err := d.client.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

// Close closes the wrapped client.
func (d *Delegate) Close() error {
	return d.client.Close()
}

// Model reports the model used for a tier.
func (d *Delegate) Model(tier ModelTier) string {
	return d.client.GetModel(tier)
}
