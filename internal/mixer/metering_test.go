// ABOUTME: Tests for live metering application and decay stepping
// ABOUTME: Covers dB conversion, clamping, clipping, and decay convergence
package mixer

import (
	"math"
	"testing"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
)

func TestApplyMeteringConvertsAndClamps(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio) // track handle 1

	d.ApplyMetering(protocol.MeteringState{
		MasterPeakL: 0, // 0 dBFS = linear 1.0
		MasterPeakR: -6.0206,
		MasterRmsL:  -20,
		MasterRmsR:  60, // absurd; clamps to headroom ceiling
		Tracks: []protocol.TrackMetering{
			{}, // handle 0 unused
			{PeakL: -6.0206, PeakR: -6.0206, RmsL: -12, RmsR: -12},
		},
	})

	m := d.MasterOut().Meter
	if math.Abs(m.PeakL-1.0) > 1e-9 {
		t.Errorf("master peakL = %v, want 1.0", m.PeakL)
	}
	if math.Abs(m.PeakR-0.5) > 1e-4 {
		t.Errorf("master peakR = %v, want ~0.5", m.PeakR)
	}
	if m.RmsR != 1.5 {
		t.Errorf("master rmsR = %v, want clamp to 1.5", m.RmsR)
	}

	got, _ := d.Channel(ch.ID)
	if math.Abs(got.Meter.PeakL-0.5) > 1e-4 {
		t.Errorf("channel peakL = %v, want ~0.5", got.Meter.PeakL)
	}
}

func TestApplyMeteringSetsClipping(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	d.ApplyMetering(protocol.MeteringState{
		Tracks: []protocol.TrackMetering{
			{},
			{PeakL: 0.5, PeakR: -3, RmsL: -6, RmsR: -6}, // over the -0.1 dBFS ceiling
		},
	})

	got, _ := d.Channel(ch.ID)
	if !got.Meter.Clipping {
		t.Error("expected clipping flag above the dBFS ceiling")
	}

	d.ApplyMetering(protocol.MeteringState{
		Tracks: []protocol.TrackMetering{
			{},
			{PeakL: -3, PeakR: -3, RmsL: -9, RmsR: -9},
		},
	})
	got, _ = d.Channel(ch.ID)
	if got.Meter.Clipping {
		t.Error("clipping flag not cleared by a clean frame")
	}
}

func TestApplyMeteringAbsorbsMalformedValues(t *testing.T) {
	d, _ := newTestDesk()
	d.CreateChannel("vox", 0, KindAudio)

	// NaN and infinities clamp, never panic or poison the model.
	d.ApplyMetering(protocol.MeteringState{
		MasterPeakL: math.NaN(),
		MasterPeakR: math.Inf(1),
		MasterRmsL:  math.Inf(-1),
		Tracks: []protocol.TrackMetering{
			{},
			{PeakL: math.NaN(), PeakR: math.Inf(1)},
		},
	})

	m := d.MasterOut().Meter
	if m.PeakL != 0 {
		t.Errorf("NaN peak = %v, want 0", m.PeakL)
	}
	if m.PeakR != 1.5 {
		t.Errorf("+Inf peak = %v, want clamp to 1.5", m.PeakR)
	}
	if m.RmsL != 0 {
		t.Errorf("-Inf rms = %v, want 0", m.RmsL)
	}
}

func TestApplyMeteringSkipsUnboundAndOutOfRange(t *testing.T) {
	d, _ := newTestDesk()

	// Unbound channel: handle 0 never indexes the frame.
	unbound := NewDesk(Config{})
	chU := unbound.CreateChannel("vox", 0, KindAudio)
	unbound.ApplyMetering(protocol.MeteringState{
		Tracks: []protocol.TrackMetering{{PeakL: 0, PeakR: 0, RmsL: 0, RmsR: 0}},
	})
	got, _ := unbound.Channel(chU.ID)
	if got.Meter.PeakL != 0 {
		t.Error("unbound channel consumed a metering entry")
	}

	// Bound channel with a short frame: out of range, skipped.
	ch := d.CreateChannel("vox", 0, KindAudio) // handle 1
	d.ApplyMetering(protocol.MeteringState{Tracks: []protocol.TrackMetering{{}}})
	got, _ = d.Channel(ch.ID)
	if got.Meter.PeakL != 0 {
		t.Error("short frame applied out of range")
	}
}

func TestDecayStepConvergence(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	d.ApplyMetering(protocol.MeteringState{
		Tracks: []protocol.TrackMetering{
			{},
			{PeakL: 0, PeakR: -90, RmsL: -90, RmsR: -90}, // peakL = 1.0
		},
	})

	const factor = 0.85
	const steps = 10
	var last float64
	for i := 0; i < steps; i++ {
		last = d.DecayStep(factor)
	}

	want := math.Pow(factor, steps)
	got, _ := d.Channel(ch.ID)
	if math.Abs(got.Meter.PeakL-want) > 1e-9 {
		t.Errorf("peakL after %d steps = %v, want %v", steps, got.Meter.PeakL, want)
	}
	if math.Abs(last-want) > 1e-9 {
		t.Errorf("reported max = %v, want %v", last, want)
	}
}

func TestDecayStepClearsClipping(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	d.ApplyMetering(protocol.MeteringState{
		Tracks: []protocol.TrackMetering{
			{},
			{PeakL: 1.0, PeakR: 1.0, RmsL: -6, RmsR: -6},
		},
	})
	got, _ := d.Channel(ch.ID)
	if !got.Meter.Clipping {
		t.Fatal("expected clipping before decay")
	}

	d.DecayStep(0.85)
	got, _ = d.Channel(ch.ID)
	if got.Meter.Clipping {
		t.Error("decay step did not clear clipping")
	}
}

func TestDecayStepCoversAllNodeKinds(t *testing.T) {
	d, _ := newTestDesk()
	d.CreateAux("verb")

	// Seed the master meter only, then confirm the max reported comes
	// down with it across steps.
	d.ApplyMetering(protocol.MeteringState{MasterPeakL: 0})

	first := d.DecayStep(0.5)
	second := d.DecayStep(0.5)
	if first != 0.5 || second != 0.25 {
		t.Errorf("max sequence = %v, %v; want 0.5, 0.25", first, second)
	}
}
