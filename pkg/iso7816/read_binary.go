package iso7816

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// READ BINARY COMMAND LOGIC (ETSI TS 102 221 §11.1.3):
// READ BINARY (INS 'B0') reads a transparent EF.
//
// P1 bit 8 = 0: P1-P2 is a 15-bit offset into the current EF.
// P1 bit 8 = 1: bits 5-1 of P1 are an SFI and P2 is the offset (0-255).
//
// Only the offset form is built here; files are always selected first.

// MaxBinaryOffset is the largest offset addressable on the current EF.
const MaxBinaryOffset = 0x7FFF

// ReadBinary reads ne bytes of the current EF starting at offset. Offsets
// past MaxBinaryOffset would set the SFI bit of P1 and are refused.
func ReadBinary(cla Class, offset uint16, ne int) (*CommandAPDU, error) {
	if offset > MaxBinaryOffset {
		return nil, fmt.Errorf("offset 0x%04X out of range (max 0x%04X)", offset, MaxBinaryOffset)
	}
	lo, hi := bits.SplitWord(offset)
	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), hi, lo, nil, ne), nil
}
