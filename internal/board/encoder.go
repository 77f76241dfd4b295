package board

import (
	"fmt"
	"math"
)

// Unit selects how a parameter value is given to a setter and reported by
// a getter.
type Unit int

const (
	// Level is the chip's native register unit.
	Level Unit = iota

	// Decibel is the human-readable view derived from the register value.
	Decibel
)

// String returns "level" or "dB".
func (u Unit) String() string {
	switch u {
	case Level:
		return "level"
	case Decibel:
		return "dB"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit converts "level", "db" or "dB" to a Unit. The empty string is
// Level.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "level", "raw":
		return Level, nil
	case "db", "dB", "DB":
		return Decibel, nil
	default:
		return Level, fmt.Errorf("unknown unit %q", s)
	}
}

// Scale describes the affine map between a register field and its decibel
// view:
//
//	register = Center + ceil(dB / StepDB)
//	dB       = (register - Center) * StepDB
//
// The ceiling on the way in means the two directions are not exact
// inverses for dB values that fall between steps.
type Scale struct {
	Min    int
	Max    int
	Center int
	StepDB float64
}

// Register scales of the TDA7313.
var (
	// VolumeScale covers the master volume, 0 (-78.75 dB) to 63 (0 dB).
	VolumeScale = Scale{Min: 0, Max: 63, Center: 63, StepDB: 1.25}

	// BalanceScale covers each speaker attenuator, 0 (-38.75 dB) to 31 (0 dB).
	BalanceScale = Scale{Min: 0, Max: 31, Center: 31, StepDB: 1.25}

	// GainScale covers the input gain, 0 (0 dB) to 3 (+11.25 dB).
	GainScale = Scale{Min: 0, Max: 3, Center: 0, StepDB: 3.75}

	// ToneScale covers bass and treble, -7 (-14 dB) to 7 (+14 dB).
	ToneScale = Scale{Min: -7, Max: 7, Center: 0, StepDB: 2}
)

// Input selector range.
const (
	minInput = 0
	maxInput = 2
)

// MinDB returns the decibel value of the lowest register value.
func (s Scale) MinDB() float64 {
	return float64(s.Min-s.Center) * s.StepDB
}

// MaxDB returns the decibel value of the highest register value.
func (s Scale) MaxDB() float64 {
	return float64(s.Max-s.Center) * s.StepDB
}

// FromLevel clamps a native value into the register range. Fractional
// values truncate toward zero after clamping.
//
// Parameters:
//   - v: Value in register units
//
// Returns:
//   - int: Register value in [Min, Max]
func (s Scale) FromLevel(v float64) int {
	return int(clampFloat(v, float64(s.Min), float64(s.Max)))
}

// FromDB converts a decibel value to a register value.
//
// The input is clamped to [MinDB, MaxDB] first, then mapped with
// Center + ceil(dB/StepDB).
//
// Parameters:
//   - db: Value in decibels
//
// Returns:
//   - int: Register value in [Min, Max]
func (s Scale) FromDB(db float64) int {
	db = clampFloat(db, s.MinDB(), s.MaxDB())
	reg := s.Center + int(math.Ceil(db/s.StepDB))
	return clampInt(reg, s.Min, s.Max)
}

// ToDB returns the decibel view of a register value.
func (s Scale) ToDB(reg int) float64 {
	return float64(reg-s.Center) * s.StepDB
}

// Encode converts v, given in unit u, to a register value.
func (s Scale) Encode(v float64, u Unit) int {
	if u == Decibel {
		return s.FromDB(v)
	}
	return s.FromLevel(v)
}

// View returns a register value in unit u.
func (s Scale) View(reg int, u Unit) float64 {
	if u == Decibel {
		return s.ToDB(reg)
	}
	return float64(reg)
}

// encodeInput clamps an input selector to 0..2.
func encodeInput(v int) int {
	return clampInt(v, minInput, maxInput)
}

// clampFloat bounds v to [lo, hi]. NaN maps to lo.
func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
