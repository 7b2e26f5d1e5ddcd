package uicc

import (
	"errors"
	"fmt"

	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/uim"
)

func pinReference(id uim.PinID) (iso7816.PinReference, error) {
	switch id {
	case uim.PinID1:
		return iso7816.PinRefPIN1, nil
	case uim.PinID2:
		return iso7816.PinRefPIN2, nil
	case uim.PinIDUniversal:
		return iso7816.PinRefUniversal, nil
	}
	return 0, fmt.Errorf("%s: %w", id, ErrUnsupportedPin)
}

// enterPinContext makes current the DF holding the PIN: the session
// application, else the USIM, else the MF.
func (c *Card) enterPinContext(s uim.Session) error {
	inADF, err := c.enterSession(s)
	if err != nil || inADF {
		return err
	}

	_, err = c.selectUSIM()
	if !errors.Is(err, ErrNoUSIM) {
		return err
	}
	_, err = c.exec(iso7816.SelectMF(c.cla))
	return err
}

// VerifyPin presents req.Pin. A wrong PIN returns an error carrying the
// retries left (see iso7816.RetriesLeft).
func (c *Card) VerifyPin(req uim.VerifyPinRequest) error {
	ref, err := pinReference(req.PinID)
	if err != nil {
		return err
	}
	block, err := iso7816.EncodePin(req.Pin)
	if err != nil {
		return fmt.Errorf("verify %s: %w", req.PinID, err)
	}
	if err := c.enterPinContext(req.Session); err != nil {
		return err
	}

	if _, err := c.exec(iso7816.Verify(c.cla, ref, block)); err != nil {
		return fmt.Errorf("verify %s: %w", req.PinID, err)
	}
	c.logger.Info("pin verified", "pin", req.PinID.String())
	return nil
}

// SetPinProtection enables or disables verification of the PIN.
func (c *Card) SetPinProtection(req uim.SetPinProtectionRequest) error {
	ref, err := pinReference(req.PinID)
	if err != nil {
		return err
	}
	block, err := iso7816.EncodePin(req.Pin)
	if err != nil {
		return fmt.Errorf("set %s protection: %w", req.PinID, err)
	}
	if err := c.enterPinContext(req.Session); err != nil {
		return err
	}

	cmd := iso7816.DisablePin(c.cla, ref, block)
	if req.Enabled {
		cmd = iso7816.EnablePin(c.cla, ref, block)
	}
	if _, err := c.exec(cmd); err != nil {
		return fmt.Errorf("set %s protection: %w", req.PinID, err)
	}
	c.logger.Info("pin protection changed", "pin", req.PinID.String(), "enabled", req.Enabled)
	return nil
}

// ChangePin replaces the PIN value.
func (c *Card) ChangePin(req uim.ChangePinRequest) error {
	ref, err := pinReference(req.PinID)
	if err != nil {
		return err
	}
	oldBlock, err := iso7816.EncodePin(req.OldPin)
	if err != nil {
		return fmt.Errorf("change %s: old pin: %w", req.PinID, err)
	}
	newBlock, err := iso7816.EncodePin(req.NewPin)
	if err != nil {
		return fmt.Errorf("change %s: new pin: %w", req.PinID, err)
	}
	if err := c.enterPinContext(req.Session); err != nil {
		return err
	}

	if _, err := c.exec(iso7816.ChangePin(c.cla, ref, oldBlock, newBlock)); err != nil {
		return fmt.Errorf("change %s: %w", req.PinID, err)
	}
	c.logger.Info("pin changed", "pin", req.PinID.String())
	return nil
}

// UnblockPin resets the PIN retry counter with the PUK and sets the new PIN.
// A wrong PUK returns an error carrying the PUK retries left.
func (c *Card) UnblockPin(req uim.UnblockPinRequest) error {
	ref, err := pinReference(req.PinID)
	if err != nil {
		return err
	}
	pukBlock, err := iso7816.EncodePin(req.Puk)
	if err != nil {
		return fmt.Errorf("unblock %s: puk: %w", req.PinID, err)
	}
	newBlock, err := iso7816.EncodePin(req.NewPin)
	if err != nil {
		return fmt.Errorf("unblock %s: new pin: %w", req.PinID, err)
	}
	if err := c.enterPinContext(req.Session); err != nil {
		return err
	}

	if _, err := c.exec(iso7816.UnblockPin(c.cla, ref, pukBlock, newBlock)); err != nil {
		return fmt.Errorf("unblock %s: %w", req.PinID, err)
	}
	c.logger.Info("pin unblocked", "pin", req.PinID.String())
	return nil
}

// pinStatus is what the card tells about one PIN without consuming attempts.
type pinStatus struct {
	State      uim.PinState
	Retries    uint8
	PukRetries uint8
}

// queryPin reads the state of ref in the current DF. fcp is the FCP of that
// DF, whose PIN status template tells enabled from disabled.
func (c *Card) queryPin(ref iso7816.PinReference, fcp *iso7816.FCPTemplate) (pinStatus, error) {
	enabled, listed := fcp.PinEnabled(ref)
	if !listed {
		return pinStatus{State: uim.PinStateNotInitialized}, nil
	}

	var st pinStatus

	retries, sw, err := c.retryCounter(iso7816.VerifyStatus(c.cla, ref))
	if err != nil {
		return pinStatus{}, err
	}
	switch {
	case sw == iso7816.SW_ERR_REF_DATA_INVALIDATED || sw == iso7816.SW_ERR_REF_DATA_NOT_FOUND:
		return pinStatus{State: uim.PinStateNotInitialized}, nil
	case sw == iso7816.SW_ERR_AUTH_METHOD_BLOCKED || sw == iso7816.SW_WARN_COUNTER_0:
		st.State = uim.PinStateBlocked
	case !enabled:
		st.State = uim.PinStateDisabled
		st.Retries = retries
	case sw == iso7816.SW_NO_ERROR:
		st.State = uim.PinStateEnabledVerified
	default:
		st.State = uim.PinStateEnabledNotVerified
		st.Retries = retries
	}

	pukRetries, sw, err := c.retryCounter(iso7816.UnblockStatus(c.cla, ref))
	if err != nil {
		return pinStatus{}, err
	}
	st.PukRetries = pukRetries
	if st.State == uim.PinStateBlocked &&
		(sw == iso7816.SW_ERR_AUTH_METHOD_BLOCKED || sw == iso7816.SW_WARN_COUNTER_0) {
		st.State = uim.PinStatePermanentlyBlocked
	}

	return st, nil
}

// retryCounter sends a status query and returns the '63CX' counter along with
// the final status word. Card rejections are not errors here; only a failed
// exchange is.
func (c *Card) retryCounter(cmd *iso7816.CommandAPDU) (uint8, iso7816.StatusWord, error) {
	_, err := c.exec(cmd)
	if err == nil {
		return 0, iso7816.SW_NO_ERROR, nil
	}

	var se *iso7816.StatusError
	if !errors.As(err, &se) {
		return 0, 0, err
	}
	n, _ := se.Status.RetriesLeft()
	return uint8(n), se.Status, nil
}
