package iso7816

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// APDU (Application Protocol Data Unit) encoding according to ISO/IEC 7816-3/4.
//
// COMMAND APDU (C-APDU): Header (CLA INS P1 P2) followed by an optional body
// (Lc, Data, Le). The four encoding cases are:
// - Case 1: Header only.
// - Case 2: Header + Le (READ BINARY, READ RECORD).
// - Case 3: Header + Lc + Data (VERIFY, CHANGE REFERENCE DATA).
// - Case 4: Header + Lc + Data + Le.
//
// Lc/Le use one byte (short mode) unless Lc > 255 or Le > 256, in which case
// the extended three-byte form is used.
//
// RESPONSE APDU (R-APDU): optional data followed by the SW1 SW2 trailer.

const (
	// MaxShortLc is the largest data field encodable on one byte.
	MaxShortLc = 255

	// MaxShortLe is the largest Ne in short mode (encoded as 0x00).
	MaxShortLe = 256

	// MaxExtendedLc is the largest data field in extended mode.
	MaxExtendedLc = 65535

	// MaxExtendedLe is the largest Ne in extended mode (encoded as 0x0000).
	MaxExtendedLe = 65536
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command, choosing short or extended length fields from
// the data length (Nc) and the expected response length (Ne).
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes", nc)
	}
	if c.Ne < 0 || c.Ne > MaxExtendedLe {
		return nil, fmt.Errorf("invalid Ne %d", c.Ne)
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 4+3+nc+3))
	buf.Write([]byte{class, byte(c.Instruction.Raw), c.P1, c.P2})

	extended := nc > MaxShortLc || c.Ne > MaxShortLe

	if nc > 0 {
		if extended {
			lo, hi := bits.SplitWord(uint16(nc))
			buf.Write([]byte{0x00, hi, lo})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		writeLe(buf, c.Ne, extended, nc == 0)
	}

	return buf.Bytes(), nil
}

// writeLe appends the Le field. Short mode encodes 256 as 00, extended mode
// encodes 65536 as 0000 and needs a leading 00 when no Lc precedes it.
func writeLe(buf *bytes.Buffer, ne int, extended, noLc bool) {
	if !extended {
		buf.WriteByte(byte(ne % MaxShortLe))
		return
	}
	if noLc {
		buf.WriteByte(0x00)
	}
	lo, hi := bits.SplitWord(uint16(ne % MaxExtendedLe))
	buf.Write([]byte{hi, lo})
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Raw, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw card bytes into data and status word.
// The input must contain at least SW1 SW2.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:n],
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
