package uim

import (
	"fmt"
	"strings"
)

// REQUESTS:
// Typed request values handed to the transport layer. Every request names the
// session it runs in: provisioning sessions address the active telecom
// application (USIM/SIM), card sessions address the card as a whole.

// SessionType selects the session a request is executed in.
type SessionType uint8

const (
	SessionPrimaryGWProvisioning   SessionType = 0x00
	SessionPrimary1xProvisioning   SessionType = 0x01
	SessionSecondaryGWProvisioning SessionType = 0x02
	SessionSecondary1xProvisioning SessionType = 0x03
	SessionNonProvisioningSlot1    SessionType = 0x04
	SessionNonProvisioningSlot2    SessionType = 0x05
	SessionCardSlot1               SessionType = 0x06
	SessionCardSlot2               SessionType = 0x07
)

// IsProvisioning reports whether the session targets the telecom application.
func (s SessionType) IsProvisioning() bool {
	return s <= SessionSecondary1xProvisioning
}

// Session identifies the session and, for non-provisioning sessions, the
// application it is bound to.
type Session struct {
	Type          SessionType
	ApplicationID []byte
}

// PinID selects the PIN a request operates on.
type PinID uint8

const (
	PinID1         PinID = 0x01
	PinID2         PinID = 0x02
	PinIDUniversal PinID = 0x03
	PinIDHiddenKey PinID = 0x04
)

func (id PinID) String() string {
	switch id {
	case PinID1:
		return "PIN1"
	case PinID2:
		return "PIN2"
	case PinIDUniversal:
		return "UPIN"
	case PinIDHiddenKey:
		return "hidden key"
	default:
		return fmt.Sprintf("PIN(0x%02X)", uint8(id))
	}
}

// ReadTransparentRequest reads a transparent elementary file.
// Length 0 means "the whole file".
type ReadTransparentRequest struct {
	Session Session
	File    EncodedPath
	Offset  uint16
	Length  uint16
}

// NewReadTransparentRequest encodes expr and builds a whole-file read in the
// primary provisioning session.
func NewReadTransparentRequest(expr string) (ReadTransparentRequest, error) {
	file, err := EncodePath(expr, PathSeparator)
	if err != nil {
		return ReadTransparentRequest{}, err
	}
	return ReadTransparentRequest{
		Session: Session{Type: SessionPrimaryGWProvisioning},
		File:    file,
	}, nil
}

// VerifyPinRequest presents a PIN.
type VerifyPinRequest struct {
	Session Session
	PinID   PinID
	Pin     string
}

// SetPinProtectionRequest enables or disables PIN verification.
type SetPinProtectionRequest struct {
	Session Session
	PinID   PinID
	Pin     string
	Enabled bool
}

// ChangePinRequest replaces a PIN value.
type ChangePinRequest struct {
	Session Session
	PinID   PinID
	OldPin  string
	NewPin  string
}

// UnblockPinRequest resets a blocked PIN with its unblock key (PUK).
type UnblockPinRequest struct {
	Session Session
	PinID   PinID
	Puk     string
	NewPin  string
}

// PinRequestBuilder carries the values staged by earlier command steps
// (current PIN, new PIN, PUK) to the step that consumes them. Each command
// sequence owns its builder; nothing is shared between sequences.
type PinRequestBuilder struct {
	pin    string
	newPin string
	puk    string
	pinID  PinID
}

// SetPin stages the current PIN.
func (b *PinRequestBuilder) SetPin(pin string) {
	b.pin = pin
}

// SetNewPin stages the replacement PIN.
func (b *PinRequestBuilder) SetNewPin(pin string) {
	b.newPin = pin
}

// SetPuk stages the unblock key.
func (b *PinRequestBuilder) SetPuk(puk string) {
	b.puk = puk
}

// PinID returns the PIN targeted by the last built request.
func (b *PinRequestBuilder) PinID() PinID {
	return b.pinID
}

// VerifyRequest builds a card-session PIN verification.
func (b *PinRequestBuilder) VerifyRequest(id PinID, pin string) (VerifyPinRequest, error) {
	if pin == "" {
		return VerifyPinRequest{}, fmt.Errorf("verify %s: %w: pin", id, ErrMissingPrecondition)
	}
	b.pinID = id
	return VerifyPinRequest{
		Session: Session{Type: SessionCardSlot1},
		PinID:   id,
		Pin:     pin,
	}, nil
}

// ProtectionRequest builds an enable/disable request from the staged PIN.
// value is "enabled" or "disabled", case-insensitive.
func (b *PinRequestBuilder) ProtectionRequest(id PinID, value string) (SetPinProtectionRequest, error) {
	if b.pin == "" {
		return SetPinProtectionRequest{}, fmt.Errorf("set %s protection: %w: pin", id, ErrMissingPrecondition)
	}

	enabled, err := ParseProtection(value)
	if err != nil {
		return SetPinProtectionRequest{}, err
	}

	b.pinID = id
	return SetPinProtectionRequest{
		Session: Session{Type: SessionCardSlot1},
		PinID:   id,
		Pin:     b.pin,
		Enabled: enabled,
	}, nil
}

// ChangeRequest builds a PIN change from the staged PIN and new PIN.
func (b *PinRequestBuilder) ChangeRequest(id PinID) (ChangePinRequest, error) {
	if b.pin == "" || b.newPin == "" {
		return ChangePinRequest{}, fmt.Errorf("change %s: %w: pin and new pin", id, ErrMissingPrecondition)
	}

	b.pinID = id
	return ChangePinRequest{
		Session: Session{Type: SessionCardSlot1},
		PinID:   id,
		OldPin:  b.pin,
		NewPin:  b.newPin,
	}, nil
}

// UnblockRequest builds a PIN unblock from the staged PUK and new PIN.
func (b *PinRequestBuilder) UnblockRequest(id PinID) (UnblockPinRequest, error) {
	if b.puk == "" || b.newPin == "" {
		return UnblockPinRequest{}, fmt.Errorf("unblock %s: %w: puk and new pin", id, ErrMissingPrecondition)
	}

	b.pinID = id
	return UnblockPinRequest{
		Session: Session{Type: SessionCardSlot1},
		PinID:   id,
		Puk:     b.puk,
		NewPin:  b.newPin,
	}, nil
}

// ParseProtection maps "enabled"/"disabled" to a boolean.
func ParseProtection(value string) (bool, error) {
	switch {
	case strings.EqualFold(value, "enabled"):
		return true, nil
	case strings.EqualFold(value, "disabled"):
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q (valid: disabled, enabled)", value)
	}
}
