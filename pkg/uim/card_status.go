package uim

// CARD STATUS RESPONSE:
// Decoded form of a "get card status" response. Each optional section of the
// message is guarded by a presence bit; here an absent section is a nil
// pointer.
//
//   Response
//   └── CardStatus (optional)
//       └── Cards[]            one per physical slot
//           └── Applications[] one per application found on the card

// CardStatusResponse is a decoded card status response.
type CardStatusResponse struct {
	CardStatus *CardStatus
}

// CardStatus lists the cards known to the device.
type CardStatus struct {
	Cards []Card
}

// Card describes the card inserted in one slot.
type Card struct {
	State       CardState
	UpinState   PinState
	UpinRetries uint8
	UpukRetries uint8
	// ErrorCode is only meaningful when State is CardStateError.
	ErrorCode    CardError
	Applications []Application
}

// Application describes one application of a card.
type Application struct {
	Type  ApplicationType
	State ApplicationState

	PersonalizationState          PersonalizationState
	PersonalizationFeature        PersonalizationFeature
	PersonalizationRetries        uint8
	PersonalizationUnblockRetries uint8

	ApplicationID    []byte
	UpinReplacesPin1 bool

	Pin1State   PinState
	Pin1Retries uint8
	Puk1Retries uint8

	Pin2State   PinState
	Pin2Retries uint8
	Puk2Retries uint8
}
