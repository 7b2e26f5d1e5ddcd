package iso7816

import (
	"fmt"
)

// MANAGE CHANNEL (ETSI TS 102 221 §11.1.17):
// Opens or closes a logical channel. The command itself is always sent on
// the basic channel.
//
// P1: '00' open, '80' close.
// P2: channel number (1-19). '00' with P1='00' lets the card pick one and
//     return it in a one-byte response.

// MaxLogicalChannel is the highest logical channel number.
const MaxLogicalChannel = 19

// ManageChannelOpen opens the given logical channel.
func ManageChannelOpen(channel uint8) (*CommandAPDU, error) {
	if channel == 0 || channel > MaxLogicalChannel {
		return nil, fmt.Errorf("cannot open channel %d (valid: 1-%d)", channel, MaxLogicalChannel)
	}
	return NewCommandAPDU(Class{}, mustInstruction(INS_MANAGE_CHANNEL), 0x00, channel, nil, 0), nil
}

// ManageChannelClose closes the given logical channel.
func ManageChannelClose(channel uint8) (*CommandAPDU, error) {
	if channel == 0 || channel > MaxLogicalChannel {
		return nil, fmt.Errorf("cannot close channel %d (valid: 1-%d)", channel, MaxLogicalChannel)
	}
	return NewCommandAPDU(Class{}, mustInstruction(INS_MANAGE_CHANNEL), 0x80, channel, nil, 0), nil
}
