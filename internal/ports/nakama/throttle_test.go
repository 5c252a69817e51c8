package nakama

import (
	"testing"
	"time"
)

func TestScorerThrottle(t *testing.T) {
	if newScorerThrottle(0, 1) != nil {
		t.Fatalf("zero interval should disable the throttle")
	}
	var disabled *scorerThrottle
	if !disabled.allow("u1", time.Now()) {
		t.Fatalf("nil throttle must allow")
	}

	throttle := newScorerThrottle(200*time.Millisecond, 1)
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if !throttle.allow("u1", start) {
		t.Fatalf("first command rejected")
	}
	if throttle.allow("u1", start.Add(50*time.Millisecond)) {
		t.Fatalf("double fire allowed")
	}
	if !throttle.allow("u2", start.Add(50*time.Millisecond)) {
		t.Fatalf("scorers must not share a limiter")
	}
	if !throttle.allow("u1", start.Add(250*time.Millisecond)) {
		t.Fatalf("command after the interval rejected")
	}

	throttle.forget("u1")
	if _, ok := throttle.limiters["u1"]; ok {
		t.Fatalf("limiter kept after forget")
	}
}

func TestMatchLoop_ThrottlesDoubleFire(t *testing.T) {
	mh := &matchHandler{}
	state, _ := newTestState(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	state.Now = func() time.Time { return now }
	state.Throttle = newScorerThrottle(200*time.Millisecond, 1)
	dispatcher := &mockDispatcher{}

	loop(mh, state, dispatcher, 1, scoreMsg(testOwner, "A"), scoreMsg(testOwner, "A"))

	if got := dispatcher.lastError(t).Code; got != ErrCodeThrottled {
		t.Fatalf("error code = %d, want %d", got, ErrCodeThrottled)
	}
	current, _ := state.App.Snapshot()
	if current.Points[0] != 1 {
		t.Fatalf("points = %v, want a single point scored", current.Points)
	}

	now = now.Add(time.Second)
	loop(mh, state, dispatcher, 2, scoreMsg(testOwner, "A"))
	current, _ = state.App.Snapshot()
	if current.Points[0] != 2 {
		t.Fatalf("points = %v, want 30-0", current.Points)
	}
}
