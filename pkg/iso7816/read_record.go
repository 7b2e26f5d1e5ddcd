package iso7816

import (
	"fmt"
)

// READ RECORD COMMAND LOGIC (ETSI TS 102 221 §11.1.5):
// READ RECORD (INS 'B2') reads one record of the current linear fixed or
// cyclic EF, or of the EF named by a Short File Identifier.
//
// P1: Record number ('00' = current record).
// P2:
// - Bits 8-4: SFI, 0 = current EF.
// - Bits 3-1: Mode ('010' next, '011' previous, '100' absolute/current).
//
// Le is the record length reported in the file descriptor of the FCP.

// ReadRecordMode selects the record addressing mode (bits 3-1 of P2).
type ReadRecordMode byte

const (
	RecordNext     ReadRecordMode = 0b010
	RecordPrevious ReadRecordMode = 0b011
	RecordAbsolute ReadRecordMode = 0b100
)

func (m ReadRecordMode) String() string {
	switch m {
	case RecordNext:
		return "Next Record"
	case RecordPrevious:
		return "Previous Record"
	case RecordAbsolute:
		return "Absolute/Current Record"
	default:
		return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
	}
}

// NewReadRecordCommand creates a raw READ RECORD command. recordLength 0
// asks for 256 bytes.
func NewReadRecordCommand(cla Class, sfi, p1 byte, mode ReadRecordMode, recordLength int) *CommandAPDU {
	p2 := (sfi&0x1F)<<3 | byte(mode)

	ne := recordLength
	if ne <= 0 || ne > MaxShortLe {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, mustInstruction(INS_READ_RECORD), p1, p2, nil, ne)
}

// ReadRecord reads record number n of the current EF (sfi 0) or of sfi.
func ReadRecord(cla Class, sfi, n byte, recordLength int) *CommandAPDU {
	return NewReadRecordCommand(cla, sfi, n, RecordAbsolute, recordLength)
}
