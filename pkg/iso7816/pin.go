package iso7816

import (
	"fmt"
)

// PIN MANAGEMENT COMMANDS (ETSI TS 102 221 §11.1.9 - §11.1.13):
//
//	VERIFY PIN   '20'  P2 = key reference, data = PIN (8 bytes)
//	CHANGE PIN   '24'  data = old PIN || new PIN (16 bytes)
//	DISABLE PIN  '26'  data = PIN
//	ENABLE PIN   '28'  data = PIN
//	UNBLOCK PIN  '2C'  data = PUK || new PIN
//
// PINs are 4 to 8 ASCII digits padded with 'FF'. VERIFY and UNBLOCK sent
// without data do not consume an attempt: the card answers '63CX' with the
// retries left, or '9000' when the PIN is already verified or disabled.

// PinReference is the key reference placed in P2.
type PinReference byte

const (
	PinRefPIN1      PinReference = 0x01
	PinRefUniversal PinReference = 0x11
	PinRefPIN2      PinReference = 0x81
)

func (r PinReference) String() string {
	switch r {
	case PinRefPIN1:
		return "PIN1"
	case PinRefUniversal:
		return "UPIN"
	case PinRefPIN2:
		return "PIN2"
	default:
		return fmt.Sprintf("KeyRef(0x%02X)", byte(r))
	}
}

// PinBlockSize is the length of a padded PIN block.
const PinBlockSize = 8

// EncodePin validates a PIN and pads it with 'FF' to PinBlockSize.
func EncodePin(pin string) ([]byte, error) {
	if len(pin) < 4 || len(pin) > PinBlockSize {
		return nil, fmt.Errorf("pin must be 4 to %d digits, got %d", PinBlockSize, len(pin))
	}

	block := make([]byte, PinBlockSize)
	for i := range block {
		block[i] = 0xFF
	}
	for i, r := range pin {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("pin must only contain digits")
		}
		block[i] = byte(r)
	}
	return block, nil
}

// Verify presents a PIN block.
func Verify(cla Class, ref PinReference, block []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_VERIFY), 0x00, byte(ref), block, 0)
}

// VerifyStatus queries the PIN retry counter without presenting a PIN.
func VerifyStatus(cla Class, ref PinReference) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_VERIFY), 0x00, byte(ref), nil, 0)
}

// ChangePin replaces oldBlock by newBlock.
func ChangePin(cla Class, ref PinReference, oldBlock, newBlock []byte) *CommandAPDU {
	data := make([]byte, 0, len(oldBlock)+len(newBlock))
	data = append(data, oldBlock...)
	data = append(data, newBlock...)
	return NewCommandAPDU(cla, mustInstruction(INS_CHANGE_REFERENCE_DATA), 0x00, byte(ref), data, 0)
}

// DisablePin turns PIN verification off.
func DisablePin(cla Class, ref PinReference, block []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_DISABLE_VERIF_REQ), 0x00, byte(ref), block, 0)
}

// EnablePin turns PIN verification on.
func EnablePin(cla Class, ref PinReference, block []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_ENABLE_VERIF_REQ), 0x00, byte(ref), block, 0)
}

// UnblockPin resets the PIN counter with the PUK and sets a new PIN.
func UnblockPin(cla Class, ref PinReference, pukBlock, newBlock []byte) *CommandAPDU {
	data := make([]byte, 0, len(pukBlock)+len(newBlock))
	data = append(data, pukBlock...)
	data = append(data, newBlock...)
	return NewCommandAPDU(cla, mustInstruction(INS_RESET_RETRY_COUNTER), 0x00, byte(ref), data, 0)
}

// UnblockStatus queries the PUK retry counter without presenting a PUK.
func UnblockStatus(cla Class, ref PinReference) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_RESET_RETRY_COUNTER), 0x00, byte(ref), nil, 0)
}
