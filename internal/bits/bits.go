// Package bits holds the small numeric helpers the rest of the compiler
// leans on: signed/unsigned conversions at the widths the YM2610 and the
// MLM bytecode use, a saturating clamp, and the ROM-to-driver address
// wrap that turns a linear ROM offset into a bank-windowed one.
package bits

// Clamp returns n bounded to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Unsigned16 reinterprets a signed 16-bit value as its unsigned bit pattern.
func Unsigned16(n int) int {
	if n < 0 {
		return n + 0x10000
	}
	return n
}

// Signed16 reinterprets an unsigned 16-bit value as signed.
func Signed16(n int) int {
	if n > 0x7FFF {
		return n - 0x10000
	}
	return n
}

// Unsigned8 reinterprets a signed 8-bit value as its unsigned bit pattern.
func Unsigned8(n int) int {
	if n < 0 {
		return n + 0x100
	}
	return n
}

// Signed8 reinterprets an unsigned 8-bit value as signed.
func Signed8(n int) int {
	if n > 0x7F {
		return n - 0x100
	}
	return n
}

// Signed3 encodes a small signed integer into the 3-bit sign-magnitude
// field used by the YM2610 FM operator detune register: negative values
// set the sign bit (0b100) over the magnitude, positive values pass
// through unchanged.
func Signed3(n int) int {
	if n < 0 {
		return (-n) | 4
	}
	return n
}

const (
	// FixedBankSize is the size of the always-mapped bank 0 region.
	FixedBankSize = 0x2000
	// SwitchableBankSize is the size of a single switchable bank window.
	SwitchableBankSize = 0x8000
)

// WrapROMToMLMAddr translates a linear ROM offset into the driver's
// bank-windowed address space: offsets below FixedBankSize pass through
// unchanged, offsets at or above it wrap into the SwitchableBankSize
// window that starts at FixedBankSize.
func WrapROMToMLMAddr(rom int) int {
	if rom < FixedBankSize {
		return rom
	}
	return ((rom - FixedBankSize) % SwitchableBankSize) + FixedBankSize
}
