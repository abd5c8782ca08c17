package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) *Memory {
	return NewMemory(map[Class]Limit{
		ClassOTPRequest: {Max: max, Window: window},
	})
}

func TestMemory_AllowsUpToCeiling(t *testing.T) {
	m := newTestLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		d := m.Check("66812345678", ClassOTPRequest)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	d := m.Check("66812345678", ClassOTPRequest)
	if d.Allowed {
		t.Fatal("request over ceiling should be rejected")
	}
	if d.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", d.RetryAfter)
	}
}

func TestMemory_KeysIndependent(t *testing.T) {
	m := newTestLimiter(1, time.Hour)
	if d := m.Check("66812345678", ClassOTPRequest); !d.Allowed {
		t.Fatal("first key should be allowed")
	}
	if d := m.Check("66812345678", ClassOTPRequest); d.Allowed {
		t.Fatal("first key second request should be rejected")
	}
	if d := m.Check("66887654321", ClassOTPRequest); !d.Allowed {
		t.Error("a different key in the same window should be unaffected")
	}
}

func TestMemory_ClassesIndependent(t *testing.T) {
	m := NewMemory(map[Class]Limit{
		ClassOTPRequest: {Max: 1, Window: time.Hour},
		ClassOTPVerify:  {Max: 1, Window: time.Hour},
	})
	if d := m.Check("key", ClassOTPRequest); !d.Allowed {
		t.Fatal("otp-request should be allowed")
	}
	if d := m.Check("key", ClassOTPVerify); !d.Allowed {
		t.Error("same key under a different class should be unaffected")
	}
}

func TestMemory_WindowReset(t *testing.T) {
	m := newTestLimiter(1, time.Minute)
	base := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	m.nowF = func() time.Time { return base }

	if d := m.Check("key", ClassOTPRequest); !d.Allowed {
		t.Fatal("first request should be allowed")
	}
	if d := m.Check("key", ClassOTPRequest); d.Allowed {
		t.Fatal("second request in window should be rejected")
	}
	m.nowF = func() time.Time { return base.Add(time.Minute) }
	if d := m.Check("key", ClassOTPRequest); !d.Allowed {
		t.Error("request after window reset should be allowed")
	}
}

func TestMemory_UnconfiguredClassAllowed(t *testing.T) {
	m := newTestLimiter(1, time.Hour)
	for i := 0; i < 10; i++ {
		if d := m.Check("key", ClassMutation); !d.Allowed {
			t.Fatal("unconfigured class should always be allowed")
		}
	}
}

func TestMemory_RetryAfterWithinWindow(t *testing.T) {
	m := newTestLimiter(1, time.Minute)
	base := time.Date(2025, 6, 1, 10, 0, 15, 0, time.UTC)
	m.nowF = func() time.Time { return base }

	m.Check("key", ClassOTPRequest)
	d := m.Check("key", ClassOTPRequest)
	if d.Allowed {
		t.Fatal("should be rejected")
	}
	if d.RetryAfter != 45*time.Second {
		t.Errorf("RetryAfter = %v, want 45s", d.RetryAfter)
	}
}

func TestMemory_Prune(t *testing.T) {
	m := newTestLimiter(1, time.Minute)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.nowF = func() time.Time { return base }

	m.Check("key", ClassOTPRequest)
	m.Prune(base.Add(2 * time.Minute))

	m.mu.Lock()
	n := len(m.buckets)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("buckets after prune = %d, want 0", n)
	}
}

func TestMemory_ConcurrentChecks(t *testing.T) {
	m := newTestLimiter(50, time.Hour)
	var wg sync.WaitGroup
	allowed := make([]bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allowed[i] = m.Check("key", ClassOTPRequest).Allowed
		}(i)
	}
	wg.Wait()
	count := 0
	for _, a := range allowed {
		if a {
			count++
		}
	}
	if count != 50 {
		t.Errorf("allowed = %d, want exactly 50", count)
	}
}
