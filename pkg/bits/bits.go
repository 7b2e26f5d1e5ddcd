// Package bits holds the small bit and nibble helpers shared by the APDU
// codec and the UIM path/hex encoders.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Nibbles splits a byte into its high and low nibbles.
func Nibbles(b byte) (high, low byte) {
	return GetRange(b, 8, 5), GetRange(b, 4, 1)
}

// SwapNibbles exchanges the two nibbles of a byte (BCD swapped encoding).
// Example: SwapNibbles(0x98) returns 0x89
func SwapNibbles(b byte) byte {
	high, low := Nibbles(b)
	return low<<4 | high
}

// SplitWord returns the low and high byte of a 16-bit value.
func SplitWord(w uint16) (low, high byte) {
	return byte(w), byte(w >> 8)
}

// JoinWord builds a 16-bit value from its low and high byte.
func JoinWord(low, high byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}
