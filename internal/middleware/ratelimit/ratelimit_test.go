package ratelimit

import (
	"fmt"
	"testing"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be rejected")
	}
}

func TestLimiterTracksClientsIndependently(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Error("first client should be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("second client should be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("first client should now be over budget")
	}
}

func TestLimiterActiveClients(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if got := rl.ActiveClients(); got != 5 {
		t.Errorf("ActiveClients() = %d, want 5", got)
	}
}

func TestLimiterStopIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestNewLimiterZeroConfigUsesDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	for i := 0; i < 60; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed under default budget", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request 61 should be rejected")
	}
}
