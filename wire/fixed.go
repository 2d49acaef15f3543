package wire

import "math"

// Fixed is a signed 24.8 fixed-point number, carried on the wire as a
// single argument word. The codec only moves its bit pattern; the
// conversions below exist so the type is usable at the edges.
type Fixed int32

// FixedFromInt converts an integer to its fixed-point representation.
func FixedFromInt(i int) Fixed {
	return Fixed(i << 8)
}

// FixedFromFloat64 converts a float to the nearest fixed-point value.
func FixedFromFloat64(f float64) Fixed {
	return Fixed(math.Round(f * 256))
}

// Int truncates the fixed-point value to its integer part.
func (f Fixed) Int() int {
	return int(f >> 8)
}

// Float64 converts the fixed-point value to a float.
func (f Fixed) Float64() float64 {
	return float64(f) / 256
}
