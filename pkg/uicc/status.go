package uicc

import (
	"errors"
	"fmt"

	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/uim"
)

// Legacy telecom DFs, looked up on cards without EF.DIR.
const (
	DFGSM  uint16 = 0x7F20
	DFCDMA uint16 = 0x7F25
)

// CardStatus queries the card into a one-slot status response. Only status
// queries are sent: no PIN attempt is consumed.
func (c *Card) CardStatus() (uim.CardStatusResponse, error) {
	card := uim.Card{
		State:     uim.CardStatePresent,
		UpinState: uim.PinStateNotInitialized,
	}

	apps, err := c.Applications()
	if err != nil {
		return uim.CardStatusResponse{}, err
	}

	upinSeen := false
	for _, tmpl := range apps {
		app, upin, err := c.readApplication(tmpl.AID)
		if err != nil {
			return uim.CardStatusResponse{}, err
		}
		if upin != nil && !upinSeen {
			card.UpinState = upin.State
			card.UpinRetries = upin.Retries
			card.UpukRetries = upin.PukRetries
			upinSeen = true
		}
		card.Applications = append(card.Applications, app)
	}

	if len(apps) == 0 {
		legacy, err := c.findLegacy()
		if err != nil {
			return uim.CardStatusResponse{}, err
		}
		card.Applications = legacy
	}

	c.logger.Debug("card status", "applications", len(card.Applications), "upin", card.UpinState.String())
	return uim.CardStatusResponse{CardStatus: &uim.CardStatus{Cards: []uim.Card{card}}}, nil
}

// AbsentCardStatus reports an empty slot.
func AbsentCardStatus() uim.CardStatusResponse {
	return uim.CardStatusResponse{CardStatus: &uim.CardStatus{
		Cards: []uim.Card{{State: uim.CardStateAbsent}},
	}}
}

// ErrorCardStatus reports a card that could not be brought up.
func ErrorCardStatus(code uim.CardError) uim.CardStatusResponse {
	return uim.CardStatusResponse{CardStatus: &uim.CardStatus{
		Cards: []uim.Card{{State: uim.CardStateError, ErrorCode: code}},
	}}
}

// readApplication selects aid and reads its PIN states. upin is set when the
// application lists the universal PIN.
func (c *Card) readApplication(aid []byte) (uim.Application, *pinStatus, error) {
	app := uim.Application{
		Type:                   ApplicationTypeOf(aid),
		State:                  uim.ApplicationStateDetected,
		ApplicationID:          aid,
		PersonalizationState:   uim.PersonalizationStateReady,
		PersonalizationFeature: uim.PersonalizationFeatureUnknown,
	}

	fcp, err := c.selectAID(aid)
	if err != nil {
		var se *iso7816.StatusError
		if errors.As(err, &se) {
			c.logger.Warn("application not selectable", "aid", uim.FormatHex(aid, false), "error", err)
			return app, nil, nil
		}
		return app, nil, err
	}

	upin, err := c.fillPins(&app, fcp)
	return app, upin, err
}

// findLegacy looks for the 2G SIM and R-UIM directories.
func (c *Card) findLegacy() ([]uim.Application, error) {
	candidates := []struct {
		df  uint16
		typ uim.ApplicationType
	}{
		{DFGSM, uim.ApplicationTypeSIM},
		{DFCDMA, uim.ApplicationTypeRUIM},
	}

	var apps []uim.Application
	for _, cand := range candidates {
		data, err := c.exec(iso7816.SelectFileID(c.cla, cand.df, iso7816.ReturnFCP))
		if errors.Is(err, iso7816.ErrFileNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("select DF %04X: %w", cand.df, err)
		}

		fcp, err := iso7816.ParseFCP(data)
		if err != nil {
			return nil, fmt.Errorf("DF %04X: %w", cand.df, err)
		}

		app := uim.Application{
			Type:                   cand.typ,
			State:                  uim.ApplicationStateDetected,
			PersonalizationState:   uim.PersonalizationStateReady,
			PersonalizationFeature: uim.PersonalizationFeatureUnknown,
		}
		if _, err := c.fillPins(&app, fcp); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (c *Card) fillPins(app *uim.Application, fcp *iso7816.FCPTemplate) (*pinStatus, error) {
	pin1, err := c.queryPin(iso7816.PinRefPIN1, fcp)
	if err != nil {
		return nil, fmt.Errorf("query PIN1: %w", err)
	}
	pin2, err := c.queryPin(iso7816.PinRefPIN2, fcp)
	if err != nil {
		return nil, fmt.Errorf("query PIN2: %w", err)
	}

	app.Pin1State, app.Pin1Retries, app.Puk1Retries = pin1.State, pin1.Retries, pin1.PukRetries
	app.Pin2State, app.Pin2Retries, app.Puk2Retries = pin2.State, pin2.Retries, pin2.PukRetries

	var upin *pinStatus
	if _, listed := fcp.PinEnabled(iso7816.PinRefUniversal); listed {
		st, err := c.queryPin(iso7816.PinRefUniversal, fcp)
		if err != nil {
			return nil, fmt.Errorf("query UPIN: %w", err)
		}
		upin = &st
	}

	// The PS_DO marks the PIN used for the application: an enabled UPIN
	// next to a disabled PIN1 means the UPIN stands in for PIN1.
	effective := pin1
	if upin != nil && upin.State != uim.PinStateDisabled && upin.State != uim.PinStateNotInitialized &&
		pin1.State == uim.PinStateDisabled {
		app.UpinReplacesPin1 = true
		effective = *upin
	}
	app.State = applicationState(effective.State)

	return upin, nil
}

func applicationState(pin uim.PinState) uim.ApplicationState {
	switch pin {
	case uim.PinStateEnabledNotVerified:
		return uim.ApplicationStatePin1OrUpinPinRequired
	case uim.PinStateBlocked:
		return uim.ApplicationStatePuk1OrUpinPukRequired
	case uim.PinStatePermanentlyBlocked:
		return uim.ApplicationStatePin1Blocked
	}
	return uim.ApplicationStateReady
}
