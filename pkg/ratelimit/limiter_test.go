package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock позволяет детерминированно двигать время в тестах
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func newTestLimiter() (*SlidingWindow, *fakeClock) {
	clock := &fakeClock{cur: time.Unix(1700000000, 0)}
	sw := NewSlidingWindow()
	sw.now = clock.Now
	return sw, clock
}

func TestSlidingWindow_Allow(t *testing.T) {
	t.Run("admits once then rejects until window elapses", func(t *testing.T) {
		sw, clock := newTestLimiter()

		if !sw.Allow("1.2.3.4", 1, time.Minute) {
			t.Fatal("first attempt should be admitted")
		}
		if sw.Allow("1.2.3.4", 1, time.Minute) {
			t.Error("second attempt within window should be rejected")
		}

		// После истечения окна попытка снова допускается
		clock.Advance(time.Minute + time.Second)
		if !sw.Allow("1.2.3.4", 1, time.Minute) {
			t.Error("attempt after window elapsed should be admitted")
		}
	})

	t.Run("admits exactly maxAttempts within window", func(t *testing.T) {
		sw, _ := newTestLimiter()

		for i := 0; i < 3; i++ {
			if !sw.Allow("10.0.0.1", 3, time.Minute) {
				t.Fatalf("attempt %d should be admitted", i+1)
			}
		}
		if sw.Allow("10.0.0.1", 3, time.Minute) {
			t.Error("4th attempt should be rejected")
		}
	})

	t.Run("identifiers are isolated", func(t *testing.T) {
		sw, _ := newTestLimiter()

		for i := 0; i < 3; i++ {
			sw.Allow("10.0.0.1", 3, time.Minute)
		}
		if sw.Allow("10.0.0.1", 3, time.Minute) {
			t.Error("first identifier should be exhausted")
		}
		if !sw.Allow("10.0.0.2", 3, time.Minute) {
			t.Error("second identifier must be unaffected by the first")
		}
	})

	t.Run("rejected attempt does not consume quota", func(t *testing.T) {
		sw, clock := newTestLimiter()

		sw.Allow("id", 1, time.Minute)
		// Серия отклонённых попыток не должна продлевать блокировку
		for i := 0; i < 5; i++ {
			clock.Advance(10 * time.Second)
			sw.Allow("id", 1, time.Minute)
		}
		clock.Advance(11 * time.Second) // с первой admitted попытки прошло > 1m
		if !sw.Allow("id", 1, time.Minute) {
			t.Error("rejected attempts must not extend the window")
		}
	})

	t.Run("zero maxAttempts never admits", func(t *testing.T) {
		sw, _ := newTestLimiter()
		if sw.Allow("id", 0, time.Minute) {
			t.Error("maxAttempts=0 must reject")
		}
	})

	t.Run("concurrent attempts admit at most maxAttempts", func(t *testing.T) {
		sw, _ := newTestLimiter()

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if sw.Allow("racy", 1, time.Minute) {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if admitted != 1 {
			t.Errorf("expected exactly 1 admitted attempt, got %d", admitted)
		}
	})
}

func TestSlidingWindow_Reset(t *testing.T) {
	sw, _ := newTestLimiter()

	sw.Allow("1.2.3.4", 1, time.Minute)
	if sw.Allow("1.2.3.4", 1, time.Minute) {
		t.Fatal("quota should be exhausted")
	}

	sw.Reset("1.2.3.4")
	if !sw.Allow("1.2.3.4", 1, time.Minute) {
		t.Error("Reset should restore availability immediately")
	}
}

func TestSlidingWindow_Remaining(t *testing.T) {
	sw, _ := newTestLimiter()

	if got := sw.Remaining("id", 3, time.Minute); got != 3 {
		t.Errorf("expected 3 remaining, got %d", got)
	}

	sw.Allow("id", 3, time.Minute)
	sw.Allow("id", 3, time.Minute)

	if got := sw.Remaining("id", 3, time.Minute); got != 1 {
		t.Errorf("expected 1 remaining, got %d", got)
	}
}
