package services

import (
	"fmt"
	"log"
	"time"

	"glyde/internal/utils"
)

const throttleCapacity = 10000

// LoginThrottle rejects login attempts from a client for a fixed delay after a
// failed one.
type LoginThrottle struct {
	failures *utils.TTLCache[time.Time]
	delay    time.Duration
	clock    utils.Clock
}

func NewLoginThrottle(delay time.Duration, clock utils.Clock) *LoginThrottle {
	failures, err := utils.NewTTLCache[time.Time](throttleCapacity, clock)
	if err != nil {
		// only reachable with a non-positive capacity
		log.Fatalf("Failed to create throttle cache: %v", err)
	}
	return &LoginThrottle{failures: failures, delay: delay, clock: clock}
}

func (t *LoginThrottle) Delay() time.Duration {
	return t.delay
}

// Allow returns ErrThrottled while key is cooling down.
func (t *LoginThrottle) Allow(key string) error {
	if wait := t.Remaining(key); wait > 0 {
		return fmt.Errorf("%w: retry in %s", ErrThrottled, wait.Round(time.Second))
	}
	return nil
}

// Remaining is how long key still has to wait.
func (t *LoginThrottle) Remaining(key string) time.Duration {
	at, ok := t.failures.Get(key)
	if !ok {
		return 0
	}
	return at.Add(t.delay).Sub(t.clock.NowUtc())
}

func (t *LoginThrottle) Fail(key string) {
	if t.delay <= 0 {
		return
	}
	t.failures.Set(key, t.clock.NowUtc(), t.delay)
}

func (t *LoginThrottle) Reset(key string) {
	t.failures.Delete(key)
}
