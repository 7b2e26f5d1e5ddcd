package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gregLibert/uimtool/internal/config"
	"github.com/gregLibert/uimtool/pkg/uim"
)

// action is the flag name of the command to run.
type action string

const (
	actionCardStatus        action = "get-card-status"
	actionPin1Info          action = "get-pin1-info"
	actionListReaders       action = "list-readers"
	actionICCID             action = "get-iccid"
	actionIMSI              action = "get-imsi"
	actionReadTransparent   action = "read-transparent"
	actionVerifyPin1        action = "verify-pin1"
	actionVerifyPin2        action = "verify-pin2"
	actionSetPin1Protection action = "set-pin1-protection"
	actionSetPin2Protection action = "set-pin2-protection"
	actionChangePin1        action = "change-pin1"
	actionChangePin2        action = "change-pin2"
	actionUnblockPin1       action = "unblock-pin1"
	actionUnblockPin2       action = "unblock-pin2"
)

var actions = []action{
	actionCardStatus, actionPin1Info, actionListReaders,
	actionICCID, actionIMSI, actionReadTransparent,
	actionVerifyPin1, actionVerifyPin2,
	actionSetPin1Protection, actionSetPin2Protection,
	actionChangePin1, actionChangePin2,
	actionUnblockPin1, actionUnblockPin2,
}

func (a action) reportsStatus() bool {
	return a == actionCardStatus || a == actionPin1Info
}

// selectAction returns the single action flag set on fs.
func selectAction(fs *pflag.FlagSet) (action, error) {
	var set []string
	for _, a := range actions {
		if fs.Changed(string(a)) {
			set = append(set, "--"+string(a))
		}
	}

	switch len(set) {
	case 0:
		return "", fmt.Errorf("no action given (see --help)")
	case 1:
		return action(strings.TrimPrefix(set[0], "--")), nil
	default:
		return "", fmt.Errorf("only one action per invocation, got %s", strings.Join(set, ", "))
	}
}

// cardOps is the card surface the actions need.
type cardOps interface {
	CardStatus() (uim.CardStatusResponse, error)
	ReadICCID(expr string) (string, error)
	ReadIMSI(expr string) (string, error)
	ReadTransparent(req uim.ReadTransparentRequest) ([]byte, error)
	VerifyPin(req uim.VerifyPinRequest) error
	SetPinProtection(req uim.SetPinProtectionRequest) error
	ChangePin(req uim.ChangePinRequest) error
	UnblockPin(req uim.UnblockPinRequest) error
}

// step is an action bound to its validated arguments, ready to run on a card.
type step func(card cardOps) (describer, error)

// prepare validates the arguments of act and builds its requests, so that
// nothing touches the reader before the command line is known to be usable.
// The staging flags feed a builder owned by this invocation.
func prepare(act action, o *options, cfg *config.Config) (step, error) {
	var b uim.PinRequestBuilder
	if o.setPin != "" {
		b.SetPin(o.setPin)
	}
	if o.setNewPin != "" {
		b.SetNewPin(o.setNewPin)
	}
	if o.setPuk != "" {
		b.SetPuk(o.setPuk)
	}

	switch act {
	case actionCardStatus, actionPin1Info:
		return func(card cardOps) (describer, error) {
			resp, err := card.CardStatus()
			if err != nil {
				return nil, err
			}
			return statusResult(act, resp), nil
		}, nil

	case actionICCID:
		path := pathOrDefault(o.getICCID, cfg.Paths.ICCID)
		return func(card cardOps) (describer, error) {
			v, err := card.ReadICCID(path)
			if err != nil {
				return nil, err
			}
			return namedValue{Name: "iccid", Value: v}, nil
		}, nil

	case actionIMSI:
		path := pathOrDefault(o.getIMSI, cfg.Paths.IMSI)
		return func(card cardOps) (describer, error) {
			v, err := card.ReadIMSI(path)
			if err != nil {
				return nil, err
			}
			return namedValue{Name: "imsi", Value: v}, nil
		}, nil

	case actionReadTransparent:
		req, err := uim.NewReadTransparentRequest(o.readTransparent)
		if err != nil {
			return nil, err
		}
		return func(card cardOps) (describer, error) {
			data, err := card.ReadTransparent(req)
			if err != nil {
				return nil, err
			}
			return namedValue{Name: "data", Value: uim.FormatHex(data, false)}, nil
		}, nil

	case actionVerifyPin1, actionVerifyPin2:
		id, pin := uim.PinID1, o.verifyPin1
		if act == actionVerifyPin2 {
			id, pin = uim.PinID2, o.verifyPin2
		}
		req, err := b.VerifyRequest(id, pin)
		if err != nil {
			return nil, err
		}
		return func(card cardOps) (describer, error) {
			if err := card.VerifyPin(req); err != nil {
				return nil, err
			}
			return pinResult{Pin: id.String(), Outcome: "verified"}, nil
		}, nil

	case actionSetPin1Protection, actionSetPin2Protection:
		id, value := uim.PinID1, o.setPin1Protection
		if act == actionSetPin2Protection {
			id, value = uim.PinID2, o.setPin2Protection
		}
		req, err := b.ProtectionRequest(id, value)
		if err != nil {
			return nil, err
		}
		return func(card cardOps) (describer, error) {
			if err := card.SetPinProtection(req); err != nil {
				return nil, err
			}
			outcome := "disabled"
			if req.Enabled {
				outcome = "enabled"
			}
			return pinResult{Pin: id.String(), Outcome: outcome}, nil
		}, nil

	case actionChangePin1, actionChangePin2:
		id := uim.PinID1
		if act == actionChangePin2 {
			id = uim.PinID2
		}
		req, err := b.ChangeRequest(id)
		if err != nil {
			return nil, err
		}
		return func(card cardOps) (describer, error) {
			if err := card.ChangePin(req); err != nil {
				return nil, err
			}
			return pinResult{Pin: id.String(), Outcome: "changed"}, nil
		}, nil

	case actionUnblockPin1, actionUnblockPin2:
		id := uim.PinID1
		if act == actionUnblockPin2 {
			id = uim.PinID2
		}
		req, err := b.UnblockRequest(id)
		if err != nil {
			return nil, err
		}
		return func(card cardOps) (describer, error) {
			if err := card.UnblockPin(req); err != nil {
				return nil, err
			}
			return pinResult{Pin: id.String(), Outcome: "unblocked"}, nil
		}, nil
	}

	return nil, fmt.Errorf("unsupported action %q", act)
}

func statusResult(act action, resp uim.CardStatusResponse) describer {
	if act == actionPin1Info {
		return uim.BuildPin1OnlyReport(&resp)
	}
	return uim.BuildCardStatusReport(&resp)
}

func pathOrDefault(flagValue, configured string) string {
	if flagValue == "" || flagValue == useConfigured {
		return configured
	}
	return flagValue
}
