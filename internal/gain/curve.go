// ABOUTME: Console fader law math (dB, linear amplitude, fader travel)
// ABOUTME: Piecewise-linear curve, exactly invertible at every breakpoint
package gain

import (
	"fmt"
	"math"
)

const (
	// MinDb is the bottom of the fader travel; anything at or below
	// maps to position 0.
	MinDb = -80.0

	// DefaultMaxDb is the top of the dB-domain curve when no linear
	// headroom is supplied.
	DefaultMaxDb = 12.0

	// DefaultMaxLinear is unity plus headroom (+3.52 dB), the maximum
	// linear amplitude a fader can produce.
	DefaultMaxLinear = 1.5

	// displayFloorDb is where the readout switches to minus infinity.
	displayFloorDb = -60.0

	// silenceEpsilon guards log(0) on near-zero amplitudes.
	silenceEpsilon = 1e-6
)

// segment is one span of the fader law. The four lower spans are fixed;
// the top span runs from 0 dB to the configured maximum.
type segment struct {
	dbLo, dbHi   float64
	posLo, posHi float64
}

func curveSegments(maxDb float64) [5]segment {
	return [5]segment{
		{MinDb, -60, 0.00, 0.03}, // dead zone
		{-60, -20, 0.03, 0.20},   // low
		{-20, -12, 0.20, 0.40},   // build-up
		{-12, 0, 0.40, 0.78},     // sweet spot
		{0, maxDb, 0.78, 1.00},   // boost
	}
}

// DbToPosition maps decibels to normalized fader travel [0, 1] using the
// default +12 dB ceiling.
func DbToPosition(db float64) float64 {
	return dbToPosition(db, DefaultMaxDb)
}

// PositionToDb is the exact inverse of DbToPosition.
func PositionToDb(pos float64) float64 {
	return positionToDb(pos, DefaultMaxDb)
}

func dbToPosition(db, maxDb float64) float64 {
	if db <= MinDb {
		return 0
	}
	if db >= maxDb {
		return 1
	}
	for _, s := range curveSegments(maxDb) {
		if db <= s.dbHi {
			return s.posLo + (db-s.dbLo)/(s.dbHi-s.dbLo)*(s.posHi-s.posLo)
		}
	}
	return 1
}

func positionToDb(pos, maxDb float64) float64 {
	if pos <= 0 {
		return MinDb
	}
	if pos >= 1 {
		return maxDb
	}
	for _, s := range curveSegments(maxDb) {
		if pos <= s.posHi {
			return s.dbLo + (pos-s.posLo)/(s.posHi-s.posLo)*(s.dbHi-s.dbLo)
		}
	}
	return maxDb
}

// LinearToPosition maps a linear amplitude to fader travel with the
// default 1.5 headroom ceiling.
func LinearToPosition(amplitude float64) float64 {
	return LinearToPositionMax(amplitude, DefaultMaxLinear)
}

// LinearToPositionMax maps a linear amplitude to fader travel. maxLinear
// sets the amplitude that lands at position 1.0. Near-zero amplitudes
// map straight to position 0 rather than through log(0).
func LinearToPositionMax(amplitude, maxLinear float64) float64 {
	if amplitude <= silenceEpsilon {
		return 0
	}
	return dbToPosition(LinearToDb(amplitude), LinearToDb(maxLinear))
}

// PositionToLinear is the inverse of LinearToPosition.
func PositionToLinear(pos float64) float64 {
	return PositionToLinearMax(pos, DefaultMaxLinear)
}

// PositionToLinearMax is the inverse of LinearToPositionMax. Position 0
// comes back as true silence, not as the -80 dB residual.
func PositionToLinearMax(pos, maxLinear float64) float64 {
	if pos <= 0 {
		return 0
	}
	return DbToLinear(positionToDb(pos, LinearToDb(maxLinear)))
}

// DbToLinear converts decibels to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

// LinearToDb converts linear amplitude to decibels.
func LinearToDb(amplitude float64) float64 {
	return 20.0 * math.Log10(amplitude)
}

// FormatDb renders a dB value for a channel-strip readout: signed, one
// decimal, minus infinity at or below the display floor.
func FormatDb(db float64) string {
	if db <= displayFloorDb {
		return "-∞"
	}
	return fmt.Sprintf("%+.1f", db)
}

// FormatLinear renders a linear amplitude as a dB readout.
func FormatLinear(amplitude float64) string {
	if amplitude <= silenceEpsilon {
		return "-∞"
	}
	return FormatDb(LinearToDb(amplitude))
}
