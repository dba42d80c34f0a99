// Package f16 converts between IEEE-754 binary16 bit-patterns and float32.
// The container stores float16 data as raw bit-patterns; arithmetic always
// happens in float32.
package f16

import "math"

const (
	h16SignMask = 0x8000
	h16ExpMask  = 0x7C00
	h16FracMask = 0x03FF

	f32ExpMask  = 0x7F800000
	f32FracMask = 0x007FFFFF
)

// ToFloat32 widens a binary16 bit-pattern to float32. The conversion is
// exact for every finite half value; NaN payloads are preserved where
// representable.
func ToFloat32(h uint16) float32 {
	sign := uint32(h&h16SignMask) << 16
	exp := int32(h&h16ExpMask) >> 10
	frac := uint32(h & h16FracMask)

	if exp == 0x1F { // Inf or NaN
		if frac == 0 {
			return math.Float32frombits(sign | f32ExpMask)
		}
		return math.Float32frombits(sign | f32ExpMask | frac<<13)
	}
	if exp == 0 {
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal half: renormalize into a float32 normal.
		e := int32(-14)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= h16FracMask
		return math.Float32frombits(sign | uint32(e+127)<<23 | frac<<13)
	}
	return math.Float32frombits(sign | uint32(exp-15+127)<<23 | frac<<13)
}

// FromFloat32 narrows a float32 to a binary16 bit-pattern, rounding to
// nearest with ties to even. Values beyond the half range become Inf;
// values below the subnormal range flush to signed zero.
func FromFloat32(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & h16SignMask
	exp := int32(bits&f32ExpMask) >> 23
	frac := bits & f32FracMask

	if exp == 0xFF { // Inf or NaN
		if frac == 0 {
			return sign | h16ExpMask
		}
		payload := uint16(frac>>13) & h16FracMask
		// Keep NaNs quiet and non-zero.
		return sign | h16ExpMask | payload | 0x0200
	}

	e := exp - 127 + 15
	switch {
	case e >= 0x1F:
		return sign | h16ExpMask
	case e <= 0:
		if e < -10 {
			return sign
		}
		// Subnormal half: include the implicit leading 1, then round.
		mant := frac | 0x00800000
		shift := uint32(14 - e)
		m := mant >> shift
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && m&1 == 1) {
			m++
		}
		return sign | uint16(m)
	default:
		m := frac >> 13
		rem := frac & 0x1FFF
		if rem > 0x1000 || (rem == 0x1000 && m&1 == 1) {
			m++
			if m == 0x0400 {
				m = 0
				e++
				if e >= 0x1F {
					return sign | h16ExpMask
				}
			}
		}
		return sign | uint16(e)<<10 | uint16(m)
	}
}

// Decode widens src into dst. dst must be at least len(src) long.
func Decode(dst []float32, src []uint16) {
	for i, h := range src {
		dst[i] = ToFloat32(h)
	}
}

// Encode narrows src into dst. dst must be at least len(src) long.
func Encode(dst []uint16, src []float32) {
	for i, f := range src {
		dst[i] = FromFloat32(f)
	}
}
