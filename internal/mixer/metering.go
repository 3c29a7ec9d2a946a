// ABOUTME: Metering writes: live frames from the engine and decay steps
// ABOUTME: Both paths run under the desk lock, same as every other mutation
package mixer

import (
	"math"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/gain"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
)

// clipThresholdDb is the near-0 dBFS ceiling above which a reported peak
// sets the clipping flag.
const clipThresholdDb = -0.1

// ApplyMetering overwrites meter fields from one live engine frame.
// Values arrive in dBFS and are converted to clamped linear amplitude;
// malformed values clamp, they never fail. Track entries are indexed by
// bound track handle and applied to the channel holding that handle.
func (d *Desk) ApplyMetering(m protocol.MeteringState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.master.Meter = meterFromDb(m.MasterPeakL, m.MasterPeakR, m.MasterRmsL, m.MasterRmsR)

	for _, ch := range d.channels {
		if ch.EngineID <= 0 || ch.EngineID >= len(m.Tracks) {
			continue
		}
		t := m.Tracks[ch.EngineID]
		ch.Meter = meterFromDb(t.PeakL, t.PeakR, t.RmsL, t.RmsR)
	}

	d.notifyLocked()
}

// DecayStep multiplies every meter by factor, clears clipping, and
// returns the loudest value left so the caller can stop ticking once the
// meters have fallen silent.
func (d *Desk) DecayStep(factor float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	max := decayMeter(&d.master.Meter, factor)
	for _, ch := range d.channels {
		if v := decayMeter(&ch.Meter, factor); v > max {
			max = v
		}
	}
	for _, b := range d.buses {
		if v := decayMeter(&b.Meter, factor); v > max {
			max = v
		}
	}
	for _, a := range d.auxes {
		if v := decayMeter(&a.Meter, factor); v > max {
			max = v
		}
	}

	d.notifyLocked()
	return max
}

func decayMeter(m *Meter, factor float64) float64 {
	m.PeakL *= factor
	m.PeakR *= factor
	m.RmsL *= factor
	m.RmsR *= factor
	m.Clipping = false

	max := m.PeakL
	for _, v := range [3]float64{m.PeakR, m.RmsL, m.RmsR} {
		if v > max {
			max = v
		}
	}
	return max
}

func meterFromDb(peakL, peakR, rmsL, rmsR float64) Meter {
	return Meter{
		PeakL:    dbToLinearClamped(peakL),
		PeakR:    dbToLinearClamped(peakR),
		RmsL:     dbToLinearClamped(rmsL),
		RmsR:     dbToLinearClamped(rmsR),
		Clipping: peakL > clipThresholdDb || peakR > clipThresholdDb,
	}
}

func dbToLinearClamped(db float64) float64 {
	if math.IsNaN(db) {
		return 0
	}
	return clampGain(gain.DbToLinear(db))
}
