// Package ratelimit throttles how fast a parse pass may pull bytes from its
// source, so one large request cannot monopolise shared storage bandwidth.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative bytesPerSecond for no rate limiting.
func New(bytesPerSecond float64) *Limiter {
	if bytesPerSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// The bucket holds one second worth of bytes; larger reads are split.
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burstFor(bytesPerSecond)),
	}
}

func burstFor(bytesPerSecond float64) int {
	return max(1, int(bytesPerSecond))
}

// WaitBytes blocks until n bytes may be consumed or ctx is done.
func (l *Limiter) WaitBytes(ctx context.Context, n int) error {
	if l == nil || l.Unlimited() {
		return ctx.Err()
	}

	for n > 0 {
		chunk := min(n, l.limiter.Burst())
		if err := l.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (l *Limiter) Unlimited() bool {
	return l.limiter.Limit() == rate.Inf
}

// Limit returns the configured bytes per second, 0 meaning unlimited.
func (l *Limiter) Limit() float64 {
	if l.Unlimited() {
		return 0
	}
	return float64(l.limiter.Limit())
}
