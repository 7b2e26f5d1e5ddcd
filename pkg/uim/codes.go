package uim

// STATUS CODES:
// The card status response carries small enumerated codes (card state, PIN
// state, application type, ...). Each enumeration has a fixed label table;
// codes without a label translate to "Unknown" so every table is total.

// UnknownLabel is returned for codes missing from a table.
const UnknownLabel = "Unknown"

// StatusCodeTable maps an enumerated code to its label.
type StatusCodeTable map[uint8]string

// Translate returns the label of code, or UnknownLabel.
func Translate(table StatusCodeTable, code uint8) string {
	if label, ok := table[code]; ok && label != "" {
		return label
	}
	return UnknownLabel
}

// CardState is the presence state of the card in a slot.
type CardState uint8

const (
	CardStateAbsent  CardState = 0x00
	CardStatePresent CardState = 0x01
	CardStateError   CardState = 0x02
)

// CardStateTable labels CardState values. CardStateError has no label: an
// errored card is reported through CardErrorTable instead.
var CardStateTable = StatusCodeTable{
	uint8(CardStateAbsent):  "absent",
	uint8(CardStatePresent): "present",
}

func (s CardState) String() string { return Translate(CardStateTable, uint8(s)) }

// CardError qualifies a card in CardStateError.
type CardError uint8

const (
	CardErrorUnknown          CardError = 0x00
	CardErrorPowerDown        CardError = 0x01
	CardErrorPoll             CardError = 0x02
	CardErrorNoATRReceived    CardError = 0x03
	CardErrorVoltageMismatch  CardError = 0x04
	CardErrorParity           CardError = 0x05
	CardErrorPossiblyRemoved  CardError = 0x06
	CardErrorTechnicalProblem CardError = 0x07
)

var CardErrorTable = StatusCodeTable{
	uint8(CardErrorUnknown):          "unknown-error",
	uint8(CardErrorPowerDown):        "power-down",
	uint8(CardErrorPoll):             "poll-error",
	uint8(CardErrorNoATRReceived):    "no-ATR-received",
	uint8(CardErrorVoltageMismatch):  "voltage-mismatch",
	uint8(CardErrorParity):           "parity-error",
	uint8(CardErrorPossiblyRemoved):  "unknown-error-possibly-removed",
	uint8(CardErrorTechnicalProblem): "technical-problem",
}

func (e CardError) String() string { return Translate(CardErrorTable, uint8(e)) }

// PinState is the verification state of a PIN (PIN1, PIN2, UPIN).
type PinState uint8

const (
	PinStateNotInitialized     PinState = 0x00
	PinStateEnabledNotVerified PinState = 0x01
	PinStateEnabledVerified    PinState = 0x02
	PinStateDisabled           PinState = 0x03
	PinStateBlocked            PinState = 0x04
	PinStatePermanentlyBlocked PinState = 0x05
)

var PinStateTable = StatusCodeTable{
	uint8(PinStateNotInitialized):     "not-initialized",
	uint8(PinStateEnabledNotVerified): "enabled-not-verified",
	uint8(PinStateEnabledVerified):    "verified",
	uint8(PinStateDisabled):           "disabled",
	uint8(PinStateBlocked):            "blocked",
	uint8(PinStatePermanentlyBlocked): "permanently-blocked",
}

func (s PinState) String() string { return Translate(PinStateTable, uint8(s)) }

// ApplicationType identifies the kind of application on the card.
type ApplicationType uint8

const (
	ApplicationTypeUnknown ApplicationType = 0x00
	ApplicationTypeSIM     ApplicationType = 0x01
	ApplicationTypeUSIM    ApplicationType = 0x02
	ApplicationTypeRUIM    ApplicationType = 0x03
	ApplicationTypeCSIM    ApplicationType = 0x04
	ApplicationTypeISIM    ApplicationType = 0x05
)

var ApplicationTypeTable = StatusCodeTable{
	uint8(ApplicationTypeUnknown): "unknown",
	uint8(ApplicationTypeSIM):     "sim",
	uint8(ApplicationTypeUSIM):    "usim",
	uint8(ApplicationTypeRUIM):    "ruim",
	uint8(ApplicationTypeCSIM):    "csim",
	uint8(ApplicationTypeISIM):    "isim",
}

func (t ApplicationType) String() string { return Translate(ApplicationTypeTable, uint8(t)) }

// ApplicationState is the life-cycle state of an application.
type ApplicationState uint8

const (
	ApplicationStateUnknown                   ApplicationState = 0x00
	ApplicationStateDetected                  ApplicationState = 0x01
	ApplicationStatePin1OrUpinPinRequired     ApplicationState = 0x02
	ApplicationStatePuk1OrUpinPukRequired     ApplicationState = 0x03
	ApplicationStateCheckPersonalizationState ApplicationState = 0x04
	ApplicationStatePin1Blocked               ApplicationState = 0x05
	ApplicationStateIllegal                   ApplicationState = 0x06
	ApplicationStateReady                     ApplicationState = 0x07
)

var ApplicationStateTable = StatusCodeTable{
	uint8(ApplicationStateUnknown):                   "unknown",
	uint8(ApplicationStateDetected):                  "detected",
	uint8(ApplicationStatePin1OrUpinPinRequired):     "pin1-or-upin-pin-required",
	uint8(ApplicationStatePuk1OrUpinPukRequired):     "puk1-or-upin-required",
	uint8(ApplicationStateCheckPersonalizationState): "personalization-state-must-be-checked",
	uint8(ApplicationStatePin1Blocked):               "pin1-blocked",
	uint8(ApplicationStateIllegal):                   "illegal",
	uint8(ApplicationStateReady):                     "ready",
}

func (s ApplicationState) String() string { return Translate(ApplicationStateTable, uint8(s)) }

// PersonalizationState is the SIM-lock state of an application.
type PersonalizationState uint8

const (
	PersonalizationStateUnknown            PersonalizationState = 0x00
	PersonalizationStateInProgress         PersonalizationState = 0x01
	PersonalizationStateReady              PersonalizationState = 0x02
	PersonalizationStateCodeRequired       PersonalizationState = 0x03
	PersonalizationStatePukCodeRequired    PersonalizationState = 0x04
	PersonalizationStatePermanentlyBlocked PersonalizationState = 0x05
)

var PersonalizationStateTable = StatusCodeTable{
	uint8(PersonalizationStateUnknown):            "unknown",
	uint8(PersonalizationStateInProgress):         "in-progress",
	uint8(PersonalizationStateReady):              "ready",
	uint8(PersonalizationStateCodeRequired):       "code-required",
	uint8(PersonalizationStatePukCodeRequired):    "puk-code-required",
	uint8(PersonalizationStatePermanentlyBlocked): "permanently-blocked",
}

func (s PersonalizationState) String() string {
	return Translate(PersonalizationStateTable, uint8(s))
}

// RequiresCode reports whether the lock waits for an unlock code, in which
// case the feature and retry counters are meaningful.
func (s PersonalizationState) RequiresCode() bool {
	return s == PersonalizationStateCodeRequired || s == PersonalizationStatePukCodeRequired
}

// PersonalizationFeature names the lock category (network, corporate, ...).
type PersonalizationFeature uint8

const (
	PersonalizationFeatureGWNetwork         PersonalizationFeature = 0x00
	PersonalizationFeatureGWNetworkSubset   PersonalizationFeature = 0x01
	PersonalizationFeatureGWServiceProvider PersonalizationFeature = 0x02
	PersonalizationFeatureGWCorporate       PersonalizationFeature = 0x03
	PersonalizationFeatureGWUIM             PersonalizationFeature = 0x04
	PersonalizationFeature1xNetworkType1    PersonalizationFeature = 0x05
	PersonalizationFeature1xNetworkType2    PersonalizationFeature = 0x06
	PersonalizationFeature1xHRPD            PersonalizationFeature = 0x07
	PersonalizationFeature1xServiceProvider PersonalizationFeature = 0x08
	PersonalizationFeature1xCorporate       PersonalizationFeature = 0x09
	PersonalizationFeature1xRUIM            PersonalizationFeature = 0x0A
	PersonalizationFeatureUnknown           PersonalizationFeature = 0x0B
)

var PersonalizationFeatureTable = StatusCodeTable{
	uint8(PersonalizationFeatureGWNetwork):         "gw-network",
	uint8(PersonalizationFeatureGWNetworkSubset):   "gw-network-subset",
	uint8(PersonalizationFeatureGWServiceProvider): "gw-service-provider",
	uint8(PersonalizationFeatureGWCorporate):       "gw-corporate",
	uint8(PersonalizationFeatureGWUIM):             "gw-uim",
	uint8(PersonalizationFeature1xNetworkType1):    "1x-network-type-1",
	uint8(PersonalizationFeature1xNetworkType2):    "1x-network-type-2",
	uint8(PersonalizationFeature1xHRPD):            "1x-hrpd",
	uint8(PersonalizationFeature1xServiceProvider): "1x-service-provider",
	uint8(PersonalizationFeature1xCorporate):       "1x-corporate",
	uint8(PersonalizationFeature1xRUIM):            "1x-ruim",
	uint8(PersonalizationFeatureUnknown):           "unknown",
}

func (f PersonalizationFeature) String() string {
	return Translate(PersonalizationFeatureTable, uint8(f))
}
