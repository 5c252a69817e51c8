package nakama

import (
	"time"

	"golang.org/x/time/rate"
)

// scorerThrottle limits how fast each scorer may send commands, so a
// double-firing button cannot score twice. It is only touched from the match
// loop and needs no locking.
type scorerThrottle struct {
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

// newScorerThrottle returns nil when minInterval is not positive, which allows everything.
func newScorerThrottle(minInterval time.Duration, burst int) *scorerThrottle {
	if minInterval <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &scorerThrottle{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Every(minInterval),
		b:        burst,
	}
}

func (t *scorerThrottle) allow(userID string, now time.Time) bool {
	if t == nil {
		return true
	}
	l, ok := t.limiters[userID]
	if !ok {
		l = rate.NewLimiter(t.r, t.b)
		t.limiters[userID] = l
	}
	return l.AllowN(now, 1)
}

func (t *scorerThrottle) forget(userID string) {
	if t == nil {
		return
	}
	delete(t.limiters, userID)
}
