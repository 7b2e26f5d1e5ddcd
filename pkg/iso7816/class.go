package iso7816

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// Class Byte (CLA) according to ISO/IEC 7816-4 and ETSI TS 102 221.
//
// Bit 8: 0 = interindustry ('0X', '4X'), 1 = UICC proprietary ('8X', 'CX').
// Bit 7: 0 = first range (channels 0-3), 1 = further range (channels 4-19).
// Bit 5: command chaining.
//
// First range (x0xx xxxx):
//   - Bits 4-3: Secure Messaging.
//   - Bits 2-1: Logical channel (0-3).
//
// Further range (x1xx xxxx):
//   - Bit 6: Secure Messaging (on/off).
//   - Bits 4-1: Logical channel minus 4.
//
// UICC proprietary classes reuse the interindustry channel coding. 'A0' is
// the GSM SIM class and carries no channel information.

// GSMClassByte is the CLA byte of 2G SIM (GSM 11.11) commands.
const GSMClassByte = 0xA0

// SecureMessaging defines the security level applied to the APDU.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3
)

// Class represents a parsed CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool // UICC proprietary ('8X'/'CX') or GSM ('A0')
	IsGSM           bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // Logical channel number (0-19)
}

// NewClass decodes a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}

	if cla == GSMClassByte {
		c.IsProprietary = true
		c.IsGSM = true
		return c, nil
	}

	if bits.IsSet(cla, 8) {
		// '8X'/'CX' only; 'AX'/'EX' other than A0 are RFU.
		if bits.IsSet(cla, 6) {
			return Class{}, fmt.Errorf("invalid CLA value: 0x%02X is reserved", cla)
		}
		c.IsProprietary = true
	}

	c.IsChained = bits.IsSet(cla, 5)

	if !bits.IsSet(cla, 7) {
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
		return c, nil
	}

	if bits.IsSet(cla, 6) {
		c.SecureMessaging = SMHeaderNoProc
	}
	c.Channel = bits.GetRange(cla, 4, 1) + 4

	return c, nil
}

// NewInterindustryClass builds a class from its parameters, picking the first
// or further range from the channel number.
func NewInterindustryClass(isChained bool, sm SecureMessaging, channel uint8) (Class, error) {
	if channel > 19 {
		return Class{}, fmt.Errorf("channel %d out of range (max 19)", channel)
	}

	// The further range has a single SM bit.
	if channel >= 4 && (sm == SMProprietary || sm == SMHeaderAuth) {
		return Class{}, fmt.Errorf("SM indicator %d not supported for further interindustry range (ch 4-19)", sm)
	}

	c := Class{
		IsChained:       isChained,
		SecureMessaging: sm,
		Channel:         channel,
	}

	raw, err := c.Encode()
	if err != nil {
		return Class{}, err
	}
	c.Raw = raw

	return c, nil
}

// Encode converts the Class back to its byte representation.
func (c *Class) Encode() (byte, error) {
	if c.IsGSM {
		return GSMClassByte, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}

	if c.Channel <= 3 {
		res |= byte(c.SecureMessaging) << 2
		res |= c.Channel
	} else {
		res = bits.Set(res, 7)
		if c.SecureMessaging != SMNone {
			res = bits.Set(res, 6)
		}
		res |= c.Channel - 4
	}

	if c.IsProprietary {
		res = bits.Set(res, 8)
	}

	return res, nil
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	if c.IsGSM {
		return fmt.Sprintf("Class: GSM (0x%02X)", c.Raw)
	}

	kind := "Interindustry"
	if c.IsProprietary {
		kind = "UICC Proprietary"
	}

	smDesc := "Unknown"
	switch c.SecureMessaging {
	case SMNone:
		smDesc = "None"
	case SMProprietary:
		smDesc = "Proprietary"
	case SMHeaderNoProc:
		smDesc = "ISO (Header not processed)"
	case SMHeaderAuth:
		smDesc = "ISO (Header authenticated)"
	}

	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf(
		"Class: %s (0x%02X)\nChaining: %s\nSecure Messaging: %s\nLogical Channel: %d",
		kind, c.Raw, chaining, smDesc, c.Channel,
	)
}
