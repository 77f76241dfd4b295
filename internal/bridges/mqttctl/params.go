package mqttctl

import (
	"fmt"
	"math"

	"github.com/nerrad567/headunit-core/internal/board"
)

// JSON numbers arrive as float64 in map[string]any.

// floatParam returns p[key] as a number. ok is false when the key is absent.
func floatParam(p map[string]any, key string) (v float64, ok bool, err error) {
	raw, present := p[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, isNum := raw.(float64)
	if !isNum || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("'%s' must be a number", key)
	}
	return v, true, nil
}

// intParam returns p[key] as a whole number. Values beyond the int32 range
// saturate so the board clamps them to the nearest bound.
func intParam(p map[string]any, key string) (v int, ok bool, err error) {
	f, ok, err := floatParam(p, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, true, fmt.Errorf("'%s' must be a whole number", key)
	}
	return int(max(math.MinInt32, min(f, math.MaxInt32))), true, nil
}

// boolParam returns p[key] as a boolean.
func boolParam(p map[string]any, key string) (v bool, ok bool, err error) {
	raw, present := p[key]
	if !present || raw == nil {
		return false, false, nil
	}
	v, isBool := raw.(bool)
	if !isBool {
		return false, true, fmt.Errorf("'%s' must be a boolean", key)
	}
	return v, true, nil
}

// unitParam reads the optional "unit" parameter; level when absent.
func unitParam(p map[string]any) (board.Unit, error) {
	raw, present := p["unit"]
	if !present || raw == nil {
		return board.Level, nil
	}
	s, isString := raw.(string)
	if !isString {
		return board.Level, fmt.Errorf("'unit' must be a string")
	}
	return board.ParseUnit(s)
}

// requiredFloat is floatParam with a missing key reported as an error.
func requiredFloat(p map[string]any, key string) (float64, error) {
	v, ok, err := floatParam(p, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("missing '%s' parameter", key)
	}
	return v, nil
}

// requiredBool is boolParam with a missing key reported as an error.
func requiredBool(p map[string]any, key string) (bool, error) {
	v, ok, err := boolParam(p, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("missing '%s' parameter", key)
	}
	return v, nil
}
