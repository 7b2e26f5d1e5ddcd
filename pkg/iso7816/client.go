package iso7816

import (
	"fmt"
	"log/slog"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives a Transmitter and hides the T=0 transport behaviours
// from the caller:
//
// 1. '61XX' / '9FXX' (Response Available):
//    A GET RESPONSE with Le = XX is sent on the same channel.
//
// 2. '6CXX' (Wrong Length):
//    The original command is resent with Le = XX.
//
// Send returns the whole Trace. Execute additionally turns a failed final
// status into a *StatusError.

// maxAutoSteps bounds GET RESPONSE / resend chains on misbehaving cards.
const maxAutoSteps = 8

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card   Transmitter
	Logger *slog.Logger

	// Observer, when set, receives the trace of every logical command.
	Observer func(Trace)
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card, Logger: slog.Default()}
}

// Send transmits a command and handles protocol logic (61xx, 9Fxx, 6Cxx).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	trace, err := c.send(cmd, 0)
	if c.Observer != nil && len(trace) > 0 {
		c.Observer(trace)
	}
	return trace, err
}

// Execute sends cmd and returns the final response data. A non-success final
// status is reported as a *StatusError together with the trace.
func (c *Client) Execute(cmd *CommandAPDU) ([]byte, Trace, error) {
	trace, err := c.Send(cmd)
	if err != nil {
		return nil, trace, err
	}

	last := trace.Last()
	if !last.IsSuccess() {
		return nil, trace, &StatusError{Instruction: cmd.Instruction.Raw, Status: last.Response.Status}
	}
	return last.Response.Data, trace, nil
}

func (c *Client) send(cmd *CommandAPDU, depth int) (Trace, error) {
	if depth > maxAutoSteps {
		return nil, fmt.Errorf("%s: too many protocol steps", cmd.Instruction.Raw)
	}

	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	c.logger().Debug("apdu command", "ins", cmd.Instruction.Raw.String(), "raw", fmt.Sprintf("%X", rawCmd))

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	c.logger().Debug("apdu response", "sw", fmt.Sprintf("%04X", uint16(resp.Status)), "len", len(resp.Data))

	trace := Trace{{Command: cmd, Response: resp}}
	sw2 := resp.Status.SW2()

	var next *CommandAPDU
	switch {
	case resp.Status.HasResponse():
		// GET RESPONSE stays on the channel of the original command.
		cls := cmd.Class
		cls.IsChained = false
		next = NewCommandAPDU(cls, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, leFromSW2(sw2))

	case resp.Status.SW1() == 0x6C:
		resend := *cmd
		resend.Ne = leFromSW2(sw2)
		next = &resend
	}

	if next == nil {
		return trace, nil
	}

	sub, err := c.send(next, depth+1)
	trace = append(trace, sub...)
	return trace, err
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// leFromSW2 maps a length announced in SW2 to Ne; 00 stands for 256.
func leFromSW2(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}
