// ABOUTME: Tests for mDNS engine discovery
// ABOUTME: Covers manager construction and teardown
package discovery

import (
	"testing"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Engine",
		Port:        9610,
		EngineMode:  true,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Engine", Port: 9610})
	mgr.Stop()
	mgr.Stop()
}

func TestInstanceName(t *testing.T) {
	cases := []struct {
		full string
		want string
	}{
		{"Studio\\ Engine._mixdesk-engine._tcp.local.", "Studio Engine"},
		{"rig._mixdesk-engine._tcp.local.", "rig"},
		{"bare-name", "bare-name"},
	}

	for _, c := range cases {
		if got := instanceName(c.full); got != c.want {
			t.Errorf("instanceName(%q) = %q, want %q", c.full, got, c.want)
		}
	}
}
