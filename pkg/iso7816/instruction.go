package iso7816

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// Instruction Byte (INS) according to ISO/IEC 7816-4 and ETSI TS 102 221.
//
// 1. Data Encoding (Bit 1):
//    For interindustry instructions an odd INS means a BER-TLV data field,
//    e.g. READ BINARY (0xB0) vs READ BINARY (BER-TLV) (0xB1).
//
// 2. Reserved Ranges:
//    '6X' and '9X' collide with SW1 procedure bytes (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes used by UICC file and PIN management.
const (
	INS_DEACTIVATE_FILE       InsCode = 0x04
	INS_TERMINAL_PROFILE      InsCode = 0x10
	INS_FETCH                 InsCode = 0x12
	INS_TERMINAL_RESPONSE     InsCode = 0x14
	INS_VERIFY                InsCode = 0x20
	INS_CHANGE_REFERENCE_DATA InsCode = 0x24
	INS_DISABLE_VERIF_REQ     InsCode = 0x26
	INS_ENABLE_VERIF_REQ      InsCode = 0x28
	INS_RESET_RETRY_COUNTER   InsCode = 0x2C
	INS_INCREASE              InsCode = 0x32
	INS_ACTIVATE_FILE         InsCode = 0x44
	INS_MANAGE_CHANNEL        InsCode = 0x70
	INS_GET_CHALLENGE         InsCode = 0x84
	INS_INTERNAL_AUTHENTICATE InsCode = 0x88
	INS_SEARCH_RECORD         InsCode = 0xA2
	INS_SELECT                InsCode = 0xA4
	INS_READ_BINARY           InsCode = 0xB0
	INS_READ_BINARY_BER       InsCode = 0xB1
	INS_READ_RECORD           InsCode = 0xB2
	INS_GET_RESPONSE          InsCode = 0xC0
	INS_ENVELOPE              InsCode = 0xC2
	INS_UPDATE_BINARY         InsCode = 0xD6
	INS_UPDATE_RECORD         InsCode = 0xDC
	INS_STATUS                InsCode = 0xF2
)

var insNames = map[InsCode]string{
	INS_DEACTIVATE_FILE:       "INS_DEACTIVATE_FILE",
	INS_TERMINAL_PROFILE:      "INS_TERMINAL_PROFILE",
	INS_FETCH:                 "INS_FETCH",
	INS_TERMINAL_RESPONSE:     "INS_TERMINAL_RESPONSE",
	INS_VERIFY:                "INS_VERIFY",
	INS_CHANGE_REFERENCE_DATA: "INS_CHANGE_REFERENCE_DATA",
	INS_DISABLE_VERIF_REQ:     "INS_DISABLE_VERIF_REQ",
	INS_ENABLE_VERIF_REQ:      "INS_ENABLE_VERIF_REQ",
	INS_RESET_RETRY_COUNTER:   "INS_RESET_RETRY_COUNTER",
	INS_INCREASE:              "INS_INCREASE",
	INS_ACTIVATE_FILE:         "INS_ACTIVATE_FILE",
	INS_MANAGE_CHANNEL:        "INS_MANAGE_CHANNEL",
	INS_GET_CHALLENGE:         "INS_GET_CHALLENGE",
	INS_INTERNAL_AUTHENTICATE: "INS_INTERNAL_AUTHENTICATE",
	INS_SEARCH_RECORD:         "INS_SEARCH_RECORD",
	INS_SELECT:                "INS_SELECT",
	INS_READ_BINARY:           "INS_READ_BINARY",
	INS_READ_BINARY_BER:       "INS_READ_BINARY_BER",
	INS_READ_RECORD:           "INS_READ_RECORD",
	INS_GET_RESPONSE:          "INS_GET_RESPONSE",
	INS_ENVELOPE:              "INS_ENVELOPE",
	INS_UPDATE_BINARY:         "INS_UPDATE_BINARY",
	INS_UPDATE_RECORD:         "INS_UPDATE_RECORD",
	INS_STATUS:                "INS_STATUS",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// Instruction represents the parsed INS byte.
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction validates ins. '6X' and '9X' values are rejected.
func NewInstruction(ins InsCode) (Instruction, error) {
	high, _ := bits.Nibbles(byte(ins))
	if high == 0x6 || high == 0x9 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// mustInstruction is used for the fixed instruction codes above, which are
// all valid.
func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw, format)
}
