package iso7816

import (
	"errors"
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// Dynamic Status Word Logic (ISO/IEC 7816-4, ETSI TS 102 221 §10.2):
//
// 1. '61XX' (UICC) / '9FXX' (GSM SIM): Response available.
//    XX bytes can be fetched with GET RESPONSE.
//
// 2. '6CXX': Wrong length. XX is the Le the card expects.
//
// 3. '91XX': Normal ending, XX bytes of proactive command pending.
//
// 4. '63CX': Verification failed. X is the number of retries left.

// StatusWord represents the two-byte status response (SW1-SW2) returned by the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(bits.JoinWord(sw2, sw1))
}

// SW1 returns the high byte of the status word.
func (sw StatusWord) SW1() byte {
	_, high := bits.SplitWord(uint16(sw))
	return high
}

// SW2 returns the low byte of the status word.
func (sw StatusWord) SW2() byte {
	low, _ := bits.SplitWord(uint16(sw))
	return low
}

// IsCounter reports a '63CX' verification failure carrying a retry counter.
func (sw StatusWord) IsCounter() bool {
	return sw.SW1() == 0x63 && bits.GetRange(sw.SW2(), 8, 5) == 0x0C
}

// RetriesLeft returns the counter of a '63CX' status.
func (sw StatusWord) RetriesLeft() (int, bool) {
	if !sw.IsCounter() {
		return 0, false
	}
	return int(bits.GetRange(sw.SW2(), 4, 1)), true
}

// HasResponse reports whether the card holds data for GET RESPONSE.
func (sw StatusWord) HasResponse() bool {
	return sw.SW1() == 0x61 || sw.SW1() == 0x9F
}

// IsSuccess returns true for '9000', '91XX' and response-available statuses.
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.SW1() == 0x91 || sw.HasResponse()
}

// IsWarning returns true if the status indicates a warning (62XX or 63XX).
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError returns true if the status indicates an execution error (64XX to 6FXX).
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	sw2 := sw.SW2()

	if n, ok := sw.RetriesLeft(); ok {
		return fmt.Sprintf("[%04X] Verification failed, %d retries left", uint16(sw), n)
	}

	switch sw.SW1() {
	case 0x61, 0x9F:
		return fmt.Sprintf("[%04X] Process completed, %d bytes available", uint16(sw), sw2)
	case 0x6C:
		return fmt.Sprintf("[%04X] Wrong length, correct Le is %d", uint16(sw), sw2)
	case 0x91:
		return fmt.Sprintf("[%04X] Normal ending, %d bytes of proactive command pending", uint16(sw), sw2)
	}

	if name, ok := swNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

func (sw StatusWord) String() string {
	if name, ok := swNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x68:
		return "Checking Error: Function in CLA not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	case 0x98:
		return "Security Error (GSM)"
	default:
		return "Unknown Status"
	}
}

// Status words returned by UICC commands.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_NO_INFO          StatusWord = 0x6200
	SW_WARN_DATA_CORRUPTED   StatusWord = 0x6281
	SW_WARN_EOF_REACHED      StatusWord = 0x6282
	SW_WARN_FILE_DEACTIVATED StatusWord = 0x6283
	SW_WARN_FCI_BAD_FORMAT   StatusWord = 0x6284
	SW_WARN_TERMINATED       StatusWord = 0x6285
	SW_WARN_MORE_DATA        StatusWord = 0x62F1
	SW_WARN_NV_CHANGED       StatusWord = 0x6300
	SW_WARN_COUNTER_0        StatusWord = 0x63C0

	SW_ERR_EXEC_NO_INFO     StatusWord = 0x6400
	SW_ERR_MEMORY_FAILURE   StatusWord = 0x6581
	SW_ERR_WRONG_LENGTH     StatusWord = 0x6700
	SW_ERR_CHANNEL_NOT_SUPP StatusWord = 0x6881
	SW_ERR_SM_NOT_SUPP      StatusWord = 0x6882

	SW_ERR_CMD_INCOMPATIBLE_FILE   StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_REF_DATA_INVALIDATED    StatusWord = 0x6984
	SW_ERR_COND_OF_USE_NOT_SAT     StatusWord = 0x6985
	SW_ERR_CMD_NOT_ALLOWED_NO_EF   StatusWord = 0x6986

	SW_ERR_INCORRECT_PARAMS_DATA StatusWord = 0x6A80
	SW_ERR_FUNC_NOT_SUPPORTED    StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND        StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND      StatusWord = 0x6A83
	SW_ERR_NOT_ENOUGH_MEMORY     StatusWord = 0x6A84
	SW_ERR_INCORRECT_PARAMS_P1P2 StatusWord = 0x6A86
	SW_ERR_REF_DATA_NOT_FOUND    StatusWord = 0x6A88

	SW_ERR_WRONG_P1P2        StatusWord = 0x6B00
	SW_ERR_INS_INVALID       StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED StatusWord = 0x6E00
	SW_ERR_UNKNOWN           StatusWord = 0x6F00
)

var swNames = map[StatusWord]string{
	SW_NO_ERROR:                    "SW_NO_ERROR",
	SW_WARN_NO_INFO:                "SW_WARN_NO_INFO",
	SW_WARN_DATA_CORRUPTED:         "SW_WARN_DATA_CORRUPTED",
	SW_WARN_EOF_REACHED:            "SW_WARN_EOF_REACHED",
	SW_WARN_FILE_DEACTIVATED:       "SW_WARN_FILE_DEACTIVATED",
	SW_WARN_FCI_BAD_FORMAT:         "SW_WARN_FCI_BAD_FORMAT",
	SW_WARN_TERMINATED:             "SW_WARN_TERMINATED",
	SW_WARN_MORE_DATA:              "SW_WARN_MORE_DATA",
	SW_WARN_NV_CHANGED:             "SW_WARN_NV_CHANGED",
	SW_ERR_EXEC_NO_INFO:            "SW_ERR_EXEC_NO_INFO",
	SW_ERR_MEMORY_FAILURE:          "SW_ERR_MEMORY_FAILURE",
	SW_ERR_WRONG_LENGTH:            "SW_ERR_WRONG_LENGTH",
	SW_ERR_CHANNEL_NOT_SUPP:        "SW_ERR_CHANNEL_NOT_SUPP",
	SW_ERR_SM_NOT_SUPP:             "SW_ERR_SM_NOT_SUPP",
	SW_ERR_CMD_INCOMPATIBLE_FILE:   "SW_ERR_CMD_INCOMPATIBLE_FILE",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "SW_ERR_SECURITY_STATUS_NOT_SAT",
	SW_ERR_AUTH_METHOD_BLOCKED:     "SW_ERR_AUTH_METHOD_BLOCKED",
	SW_ERR_REF_DATA_INVALIDATED:    "SW_ERR_REF_DATA_INVALIDATED",
	SW_ERR_COND_OF_USE_NOT_SAT:     "SW_ERR_COND_OF_USE_NOT_SAT",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF:   "SW_ERR_CMD_NOT_ALLOWED_NO_EF",
	SW_ERR_INCORRECT_PARAMS_DATA:   "SW_ERR_INCORRECT_PARAMS_DATA",
	SW_ERR_FUNC_NOT_SUPPORTED:      "SW_ERR_FUNC_NOT_SUPPORTED",
	SW_ERR_FILE_NOT_FOUND:          "SW_ERR_FILE_NOT_FOUND",
	SW_ERR_RECORD_NOT_FOUND:        "SW_ERR_RECORD_NOT_FOUND",
	SW_ERR_NOT_ENOUGH_MEMORY:       "SW_ERR_NOT_ENOUGH_MEMORY",
	SW_ERR_INCORRECT_PARAMS_P1P2:   "SW_ERR_INCORRECT_PARAMS_P1P2",
	SW_ERR_REF_DATA_NOT_FOUND:      "SW_ERR_REF_DATA_NOT_FOUND",
	SW_ERR_WRONG_P1P2:              "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_INVALID:             "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:       "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_UNKNOWN:                 "SW_ERR_UNKNOWN",
}

// Sentinels matched by StatusError through errors.Is.
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrSecurityStatus     = errors.New("security status not satisfied")
	ErrVerificationFailed = errors.New("verification failed")
	ErrBlocked            = errors.New("authentication method blocked")
	ErrConditionsOfUse    = errors.New("conditions of use not satisfied")
	ErrRecordNotFound     = errors.New("record not found")
	ErrReferenceNotFound  = errors.New("referenced data not found")
)

// StatusError reports a command that ended with a non-success status word.
type StatusError struct {
	Instruction InsCode
	Status      StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Instruction, e.Status.Verbose())
}

// Is maps well-known status words to the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrFileNotFound:
		return e.Status == SW_ERR_FILE_NOT_FOUND
	case ErrSecurityStatus:
		return e.Status == SW_ERR_SECURITY_STATUS_NOT_SAT
	case ErrVerificationFailed:
		return e.Status.IsCounter()
	case ErrBlocked:
		return e.Status == SW_ERR_AUTH_METHOD_BLOCKED || e.Status == SW_WARN_COUNTER_0
	case ErrConditionsOfUse:
		return e.Status == SW_ERR_COND_OF_USE_NOT_SAT
	case ErrRecordNotFound:
		return e.Status == SW_ERR_RECORD_NOT_FOUND
	case ErrReferenceNotFound:
		return e.Status == SW_ERR_REF_DATA_NOT_FOUND
	}
	return false
}

// RetriesLeft extracts the '63CX' counter from err, if it carries one.
func RetriesLeft(err error) (int, bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Status.RetriesLeft()
}
