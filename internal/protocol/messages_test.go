// ABOUTME: Tests for engine link message types
// ABOUTME: Verifies wire field names and the legacy bus-id table
package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCommandEnvelope(t *testing.T) {
	msg := Message{
		Type: TypeSetTrackVolume,
		Payload: SetTrackVolume{
			TrackID: 3,
			Gain:    0.5,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"setTrackVolume"`, `"track_id":3`, `"linear_gain":0.5`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestRawMessageRouting(t *testing.T) {
	data := []byte(`{"type":"transport/state","payload":{"is_playing":true}}`)

	var raw RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw.Type != TypeTransportState {
		t.Errorf("expected type %s, got %s", TypeTransportState, raw.Type)
	}

	var ts TransportState
	if err := json.Unmarshal(raw.Payload, &ts); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if !ts.IsPlaying {
		t.Error("expected is_playing true")
	}
}

func TestLegacyBusTable(t *testing.T) {
	cases := []struct {
		name string
		id   int
	}{
		{"ui", 0},
		{"sfx", 1},
		{"music", 2},
		{"vo", 3},
		{"ambient", 4},
		{"master", 5},
		{"reverb-send", 1}, // unknown names fall back to sfx
		{"", 1},
	}

	for _, c := range cases {
		if got := LegacyBusID(c.name); got != c.id {
			t.Errorf("LegacyBusID(%q) = %d, want %d", c.name, got, c.id)
		}
	}
}
