package security

import (
	"testing"
	"time"
)

// фиксированная точка отсчёта, сдвигаем вручную
func testClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func newTestLimiter(threshold int, window, lockout time.Duration) (*Limiter, func(time.Duration)) {
	l := NewLimiter(NewMemoryStore(), threshold, window, lockout)
	now, advance := testClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	l.Now = now
	return l, advance
}

func TestLimiterAllowsUnderThreshold(t *testing.T) {
	l, _ := newTestLimiter(5, 5*time.Minute, 15*time.Minute)

	for i := 0; i < 4; i++ {
		d, err := l.Fail("acct:user@example.com")
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("attempt %d: expected allowed, got blocked", i+1)
		}
		if want := 5 - (i + 1); d.AttemptsRemaining != want {
			t.Errorf("attempt %d: AttemptsRemaining = %d, want %d", i+1, d.AttemptsRemaining, want)
		}
	}

	d, err := l.Check("acct:user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !d.Allowed {
		t.Error("expected allowed after 4 failures with threshold 5")
	}
}

func TestLimiterLocksAtThreshold(t *testing.T) {
	l, _ := newTestLimiter(5, 5*time.Minute, 15*time.Minute)

	var last Decision
	for i := 0; i < 5; i++ {
		var err error
		last, err = l.Fail("acct:user@example.com")
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}
	if last.Allowed {
		t.Fatal("5th failure should trip the lockout")
	}
	if last.Reason != ReasonRateLimited {
		t.Errorf("Reason = %q, want %q", last.Reason, ReasonRateLimited)
	}
	if last.RetryAfter != 15*time.Minute {
		t.Errorf("RetryAfter = %v, want 15m", last.RetryAfter)
	}

	d, err := l.Check("acct:user@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Allowed {
		t.Error("Check should deny while locked out")
	}
	if d.Reason != ReasonLockedOut {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonLockedOut)
	}
	if d.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", d.RetryAfter)
	}
}

func TestLimiterLockoutExpires(t *testing.T) {
	l, advance := newTestLimiter(3, 5*time.Minute, 15*time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := l.Fail("ip:10.0.0.1"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}
	if d, _ := l.Check("ip:10.0.0.1"); d.Allowed {
		t.Fatal("expected lockout")
	}

	advance(15*time.Minute + time.Second)

	d, err := l.Check("ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !d.Allowed {
		t.Fatal("lockout should expire after 15m")
	}

	// окно началось заново: одна неудача не блокирует
	d, err = l.Fail("ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !d.Allowed {
		t.Error("window should restart after lockout expiry")
	}
	if d.AttemptsRemaining != 2 {
		t.Errorf("AttemptsRemaining = %d, want 2", d.AttemptsRemaining)
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	l, advance := newTestLimiter(5, 5*time.Minute, 15*time.Minute)

	for i := 0; i < 4; i++ {
		if _, err := l.Fail("acct:slow@example.com"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}
	// старые неудачи выпадают из окна
	advance(6 * time.Minute)

	d, err := l.Fail("acct:slow@example.com")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !d.Allowed {
		t.Error("failures outside the window must not count toward the threshold")
	}
	if d.AttemptsRemaining != 4 {
		t.Errorf("AttemptsRemaining = %d, want 4", d.AttemptsRemaining)
	}
}

func TestLimiterClearResetsEverything(t *testing.T) {
	l, _ := newTestLimiter(3, 5*time.Minute, 15*time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := l.Fail("acct:reset@example.com"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}
	if err := l.Clear("acct:reset@example.com"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	d, err := l.Check("acct:reset@example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !d.Allowed {
		t.Error("Clear must remove the lockout")
	}
	d, err = l.Fail("acct:reset@example.com")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if d.AttemptsRemaining != 2 {
		t.Errorf("AttemptsRemaining = %d, want 2 (window cleared)", d.AttemptsRemaining)
	}
}

func TestLimiterKeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(3, 5*time.Minute, 15*time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := l.Fail("acct:a@example.com"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}
	if d, _ := l.Check("acct:a@example.com"); d.Allowed {
		t.Fatal("key a should be locked")
	}
	if d, _ := l.Check("acct:b@example.com"); !d.Allowed {
		t.Error("key b must be unaffected by key a")
	}
}
