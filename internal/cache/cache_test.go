package cache

import (
	"errors"
	"testing"
	"time"
)

func TestRememberCachesValue(t *testing.T) {
	c := New()
	calls := 0
	produce := func() (any, error) {
		calls++
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Remember("k", time.Minute, produce)
		if err != nil {
			t.Fatalf("Remember: %v", err)
		}
		if got != "result" {
			t.Errorf("Remember() = %v, want result", got)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times, want 1", calls)
	}
}

func TestRememberCachesNil(t *testing.T) {
	c := New()
	calls := 0
	produce := func() (any, error) {
		calls++
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		got, err := c.Remember("missing", time.Minute, produce)
		if err != nil {
			t.Fatalf("Remember: %v", err)
		}
		if got != nil {
			t.Errorf("Remember() = %v, want nil", got)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times for nil result, want 1", calls)
	}
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c := New()
	calls := 0
	boom := errors.New("remote down")
	produce := func() (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	if _, err := c.Remember("k", time.Minute, produce); !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}
	got, err := c.Remember("k", time.Minute, produce)
	if err != nil {
		t.Fatalf("Remember after failure: %v", err)
	}
	if got != "recovered" {
		t.Errorf("Remember() = %v, want recovered", got)
	}
	if calls != 2 {
		t.Errorf("producer called %d times, want 2", calls)
	}
}

func TestRememberExpiry(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	calls := 0
	produce := func() (any, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Remember("k", time.Minute, produce); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	got, err := c.Remember("k", time.Minute, produce)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("expected fresh value after expiry, got %v", got)
	}
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("project", map[string]any{"project_id": 42, "project_key": "ABC"})
	b := Key("project", map[string]any{"project_key": "ABC", "project_id": 42})
	if a != b {
		t.Errorf("keys differ for same attrs: %q vs %q", a, b)
	}
}

func TestKeyDistinguishesOps(t *testing.T) {
	a := Key("project", map[string]any{"id": 1})
	b := Key("user", map[string]any{"id": 1})
	if a == b {
		t.Errorf("keys collide across ops: %q", a)
	}
}

func TestKeyDistinguishesAttrs(t *testing.T) {
	a := Key("project", map[string]any{"project_id": 42})
	b := Key("project", map[string]any{"project_key": "42"})
	if a == b {
		t.Errorf("keys collide across attrs: %q", a)
	}
}

func TestForget(t *testing.T) {
	c := New()
	calls := 0
	produce := func() (any, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Remember("k", time.Minute, produce); err != nil {
		t.Fatal(err)
	}
	c.Forget("k")
	got, err := c.Remember("k", time.Minute, produce)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("expected fresh value after Forget, got %v", got)
	}
}

func TestCapacityEviction(t *testing.T) {
	c := NewWithCapacity(2)
	for _, k := range []string{"a", "b", "c"} {
		if _, err := c.Remember(k, time.Minute, func() (any, error) { return k, nil }); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", c.Len())
	}
}
