package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter throttles OTP issuance per (email, app) pair: a short cooldown
// between consecutive requests, a request count per window, and an extended
// block once the window count is exceeded. The limiter is advisory: redis
// being down or unconfigured never blocks issuance.
type RateLimiter struct {
	rdb         *redis.Client
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

// NewRateLimiter returns a limiter over the given redis client. A nil client
// yields a limiter that allows everything.
func NewRateLimiter(rdb *redis.Client, window time.Duration, maxInWindow int, cooldown time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, window: window, maxInWindow: maxInWindow, cooldown: cooldown}
}

// CanRequest returns a user-facing error when the pair must wait before
// another code is issued, nil otherwise.
func (l *RateLimiter) CanRequest(ctx context.Context, email, appID string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	blockKey := fmt.Sprintf("otp:block:%s:%s", email, appID)
	lastKey := fmt.Sprintf("otp:last:%s:%s", email, appID)
	countKey := fmt.Sprintf("otp:count:%s:%s", email, appID)

	if ttl, err := l.rdb.TTL(ctx, blockKey).Result(); err == nil && ttl > 0 {
		return fmt.Errorf("too many OTP requests; please try again after %d seconds", int(ttl.Seconds()))
	}
	if ttl, err := l.rdb.TTL(ctx, lastKey).Result(); err == nil && ttl > 0 {
		return fmt.Errorf("please wait %d seconds before requesting another OTP", int(ttl.Seconds()))
	}

	cnt, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err}).Warn("OTP rate limiter unavailable, allowing request")
		return nil
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, countKey, l.window)
	}
	if int(cnt) > l.maxInWindow {
		l.rdb.Set(ctx, blockKey, "1", l.window*3)
		return fmt.Errorf("too many OTP requests; please try again after %d seconds", int((l.window * 3).Seconds()))
	}

	l.rdb.Set(ctx, lastKey, "1", l.cooldown)
	return nil
}
