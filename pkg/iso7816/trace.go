package iso7816

import (
	"fmt"
	"strings"
)

// TRACE:
// One logical request (e.g. "read EF.ICCID") may take several physical
// exchanges: '61XX' triggers a GET RESPONSE and '6CXX' a resend with the
// corrected Le. A Trace keeps every exchange in order; the last one decides
// the outcome.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace, or nil when empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the final transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe renders every exchange of the trace, raw bytes first.
func (t Trace) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== APDU TRACE ===\n")

	if len(t) == 0 {
		sb.WriteString("    - Empty trace.\n")
		return strings.TrimRight(sb.String(), "\n")
	}

	for i, tx := range t {
		raw, err := tx.Command.Bytes()
		if err != nil {
			sb.WriteString(fmt.Sprintf("[%d] >> <unencodable: %v>\n", i+1, err))
		} else {
			sb.WriteString(fmt.Sprintf("[%d] >> %X\n", i+1, raw))
		}
		sb.WriteString(fmt.Sprintf("    + %s\n", tx.Command))

		if tx.Response == nil {
			sb.WriteString("    << no response\n")
			continue
		}
		if len(tx.Response.Data) > 0 {
			sb.WriteString(fmt.Sprintf("    << %X %04X\n", tx.Response.Data, uint16(tx.Response.Status)))
		} else {
			sb.WriteString(fmt.Sprintf("    << %04X\n", uint16(tx.Response.Status)))
		}
		sb.WriteString(fmt.Sprintf("    + %s\n", tx.Response.Status.Verbose()))
	}

	return strings.TrimRight(sb.String(), "\n")
}
