package ephemeral

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestConsumeIsSingleUse(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	if err := s.Set("ravi@example.in", "123456", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if s.Consume("ravi@example.in", "654321") {
		t.Fatal("wrong code must not verify")
	}
	if !s.Pending("ravi@example.in") {
		t.Fatal("a wrong guess must not burn the code")
	}
	if !s.Consume("ravi@example.in", "123456") {
		t.Fatal("expected code to verify")
	}
	if s.Consume("ravi@example.in", "123456") {
		t.Fatal("code must be single use")
	}
}

func TestSetReplacesCode(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	_ = s.Set("ravi@example.in", "111111", time.Minute)
	_ = s.Set("ravi@example.in", "222222", time.Minute)

	if s.Consume("ravi@example.in", "111111") {
		t.Error("replaced code must not verify")
	}
	if !s.Consume("ravi@example.in", "222222") {
		t.Error("latest code must verify")
	}
}

func TestExpiry(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	now := time.Now()
	s.core.now = func() time.Time { return now }
	_ = s.Set("ravi@example.in", "123456", time.Minute)

	s.core.now = func() time.Time { return now.Add(2 * time.Minute) }
	if s.Pending("ravi@example.in") {
		t.Error("expected code to be expired")
	}
	if s.Consume("ravi@example.in", "123456") {
		t.Error("expired code must not verify")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := newCoreStore()
	defer c.close()

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.set("a", "1", time.Second)
	_ = c.set("b", "2", time.Hour)

	c.now = func() time.Time { return now.Add(time.Minute) }
	if n := c.sweep(); n != 1 {
		t.Errorf("expected 1 expired, got %d", n)
	}
	if c.len() != 1 {
		t.Errorf("expected 1 remaining, got %d", c.len())
	}
}

func TestKeyLimits(t *testing.T) {
	c := newCoreStore()
	defer c.close()

	if err := c.set(strings.Repeat("a", maxKeyLength+1), "x", time.Minute); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}

	for i := 0; i < maxStoreSize; i++ {
		c.data["k"+strconv.Itoa(i)] = &item{expiresAt: time.Now().Add(time.Hour)}
	}
	if err := c.set("overflow", "x", time.Minute); !errors.Is(err, ErrStoreFull) {
		t.Errorf("expected ErrStoreFull, got %v", err)
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("123456", "123456") {
		t.Error("expected equal")
	}
	if ConstantTimeEquals("123456", "12345") {
		t.Error("expected different lengths to differ")
	}
	if ConstantTimeEquals("123456", "123457") {
		t.Error("expected different")
	}
}
