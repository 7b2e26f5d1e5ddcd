package uim

// CardStatusReport is the presentation tree of a card status response.
// It is built once and never mutated.
type CardStatusReport struct {
	Slots []SlotReport `json:"slots" yaml:"slots"`
}

// SlotReport describes one slot. Exactly one of CardState and CardError is set.
type SlotReport struct {
	SlotIndex    int                 `json:"slot" yaml:"slot"`
	CardState    string              `json:"card_state,omitempty" yaml:"card_state,omitempty"`
	CardError    string              `json:"card_error,omitempty" yaml:"card_error,omitempty"`
	UpinState    string              `json:"upin_state" yaml:"upin_state"`
	UpinRetries  int                 `json:"upin_retries" yaml:"upin_retries"`
	UpukRetries  int                 `json:"upuk_retries" yaml:"upuk_retries"`
	Applications []ApplicationReport `json:"applications" yaml:"applications"`
}

// ApplicationReport describes one application of a slot.
type ApplicationReport struct {
	Index            int                   `json:"application" yaml:"application"`
	Type             string                `json:"type" yaml:"type"`
	State            string                `json:"state" yaml:"state"`
	ApplicationID    string                `json:"application_id" yaml:"application_id"`
	Personalization  PersonalizationReport `json:"personalization" yaml:"personalization"`
	UpinReplacesPin1 bool                  `json:"upin_replaces_pin1" yaml:"upin_replaces_pin1"`
	Pin1             PinReport             `json:"pin1" yaml:"pin1"`
	Pin2             PinReport             `json:"pin2" yaml:"pin2"`
}

// PersonalizationReport describes the SIM-lock state. Feature and the retry
// counters are only present while the lock waits for a code.
type PersonalizationReport struct {
	State          string `json:"state" yaml:"state"`
	Feature        string `json:"feature,omitempty" yaml:"feature,omitempty"`
	DisableRetries *int   `json:"disable_retries,omitempty" yaml:"disable_retries,omitempty"`
	UnblockRetries *int   `json:"unblock_retries,omitempty" yaml:"unblock_retries,omitempty"`
}

// Locked reports whether the lock details are present.
func (p PersonalizationReport) Locked() bool {
	return p.DisableRetries != nil
}

// PinReport describes a PIN and its unblocking key.
type PinReport struct {
	State      string `json:"state" yaml:"state"`
	Retries    int    `json:"retries" yaml:"retries"`
	PukRetries int    `json:"puk_retries" yaml:"puk_retries"`
}

// PinInfoReport is the restricted report listing only the PIN blocks of the
// USIM applications.
type PinInfoReport struct {
	Applications []PinInfo `json:"applications" yaml:"applications"`
}

// PinInfo holds the PIN1 and PIN2 blocks of one application.
type PinInfo struct {
	Pin1 PinReport `json:"pin1" yaml:"pin1"`
	Pin2 PinReport `json:"pin2" yaml:"pin2"`
}

// BuildCardStatusReport walks a decoded response into a report. A response
// without its card status section yields a report with no slots.
func BuildCardStatusReport(resp *CardStatusResponse) CardStatusReport {
	report := CardStatusReport{Slots: []SlotReport{}}
	if resp == nil || resp.CardStatus == nil {
		return report
	}

	for i, card := range resp.CardStatus.Cards {
		report.Slots = append(report.Slots, buildSlot(i, card))
	}
	return report
}

// BuildPin1OnlyReport keeps the PIN blocks of every USIM application, across
// all slots, in card order.
func BuildPin1OnlyReport(resp *CardStatusResponse) PinInfoReport {
	report := PinInfoReport{Applications: []PinInfo{}}
	if resp == nil || resp.CardStatus == nil {
		return report
	}

	for _, card := range resp.CardStatus.Cards {
		for _, app := range card.Applications {
			if app.Type.String() != "usim" {
				continue
			}
			report.Applications = append(report.Applications, PinInfo{
				Pin1: pin1Of(app),
				Pin2: pin2Of(app),
			})
		}
	}
	return report
}

func buildSlot(i int, card Card) SlotReport {
	slot := SlotReport{
		SlotIndex:    i + 1,
		UpinState:    card.UpinState.String(),
		UpinRetries:  int(card.UpinRetries),
		UpukRetries:  int(card.UpukRetries),
		Applications: make([]ApplicationReport, 0, len(card.Applications)),
	}

	if card.State == CardStateError {
		slot.CardError = card.ErrorCode.String()
	} else {
		slot.CardState = card.State.String()
	}

	for j, app := range card.Applications {
		slot.Applications = append(slot.Applications, buildApplication(j, app))
	}
	return slot
}

func buildApplication(j int, app Application) ApplicationReport {
	return ApplicationReport{
		Index:            j + 1,
		Type:             app.Type.String(),
		State:            app.State.String(),
		ApplicationID:    FormatHex(app.ApplicationID, false),
		Personalization:  personalizationOf(app),
		UpinReplacesPin1: app.UpinReplacesPin1,
		Pin1:             pin1Of(app),
		Pin2:             pin2Of(app),
	}
}

func personalizationOf(app Application) PersonalizationReport {
	p := PersonalizationReport{State: app.PersonalizationState.String()}
	if !app.PersonalizationState.RequiresCode() {
		return p
	}

	disable := int(app.PersonalizationRetries)
	unblock := int(app.PersonalizationUnblockRetries)
	p.Feature = app.PersonalizationFeature.String()
	p.DisableRetries = &disable
	p.UnblockRetries = &unblock
	return p
}

func pin1Of(app Application) PinReport {
	return PinReport{
		State:      app.Pin1State.String(),
		Retries:    int(app.Pin1Retries),
		PukRetries: int(app.Puk1Retries),
	}
}

func pin2Of(app Application) PinReport {
	return PinReport{
		State:      app.Pin2State.String(),
		Retries:    int(app.Pin2Retries),
		PukRetries: int(app.Puk2Retries),
	}
}
