// Package ratelimit provides the admission control applied to outgoing chat
// messages. One limiter is shared by every connection logged in as the same
// user, so multiple clients for one identity cannot evade the limit.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. A fresh limiter starts with a full burst of
// capacity tokens and regains one token per regen interval.
type Limiter struct {
	lim *rate.Limiter
}

// New returns a limiter admitting bursts of up to capacity messages with one
// token accrued per regen.
func New(capacity int, regen time.Duration) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Every(regen), capacity)}
}

// Allow consumes one token if available and reports whether the message is
// admitted.
func (l *Limiter) Allow() bool {
	return l.AllowAt(time.Now())
}

// AllowAt is Allow with an explicit clock reading.
func (l *Limiter) AllowAt(t time.Time) bool {
	return l.lim.AllowN(t, 1)
}
