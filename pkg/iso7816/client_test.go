package iso7816

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/uimtool/pkg/tlv"
)

// scriptedCard replays canned responses and records the commands it got.
type scriptedCard struct {
	responses [][]byte
	sent      [][]byte
	err       error
}

func (s *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	s.sent = append(s.sent, cmd)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return []byte{0x6F, 0x00}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func TestClient_Send(t *testing.T) {
	cla, _ := NewClass(0x00)

	tests := []struct {
		name      string
		cmd       *CommandAPDU
		responses [][]byte
		wantSent  [][]byte
		wantData  []byte
	}{
		{
			name:      "Direct Success",
			cmd:       readBinary(cla, 0, 10),
			responses: [][]byte{tlv.Hex("98 10 32 54 76 98 10 32 54 F6 90 00")},
			wantSent:  [][]byte{tlv.Hex("00 B0 00 00 0A")},
			wantData:  tlv.Hex("98 10 32 54 76 98 10 32 54 F6"),
		},
		{
			name:      "61XX triggers GET RESPONSE",
			cmd:       SelectByPath(cla, tlv.Hex("2F E2"), ReturnFCP),
			responses: [][]byte{tlv.Hex("61 05"), tlv.Hex("62 03 80 01 0A 90 00")},
			wantSent:  [][]byte{tlv.Hex("00 A4 08 04 02 2F E2"), tlv.Hex("00 C0 00 00 05")},
			wantData:  tlv.Hex("62 03 80 01 0A"),
		},
		{
			name:      "9FXX on GSM class",
			cmd:       NewCommandAPDU(Class{Raw: GSMClassByte, IsGSM: true, IsProprietary: true}, mustInstruction(INS_SELECT), 0, 0, tlv.Hex("3F 00"), 0),
			responses: [][]byte{tlv.Hex("9F 02"), tlv.Hex("AA BB 90 00")},
			wantSent:  [][]byte{tlv.Hex("A0 A4 00 00 02 3F 00"), tlv.Hex("A0 C0 00 00 02")},
			wantData:  tlv.Hex("AA BB"),
		},
		{
			name:      "6CXX resends with corrected Le",
			cmd:       readBinary(cla, 0, MaxShortLe),
			responses: [][]byte{tlv.Hex("6C 0A"), tlv.Hex("01 02 03 04 05 06 07 08 09 0A 90 00")},
			wantSent:  [][]byte{tlv.Hex("00 B0 00 00 00"), tlv.Hex("00 B0 00 00 0A")},
			wantData:  tlv.Hex("01 02 03 04 05 06 07 08 09 0A"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &scriptedCard{responses: tt.responses}
			client := NewClient(card)

			var observed Trace
			client.Observer = func(tr Trace) { observed = tr }

			data, trace, err := client.Execute(tt.cmd)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if diff := cmp.Diff(tt.wantSent, card.sent); diff != "" {
				t.Errorf("sent APDUs mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantData, data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
			if len(trace) != len(tt.wantSent) || len(observed) != len(trace) {
				t.Errorf("trace length = %d, observed %d, want %d", len(trace), len(observed), len(tt.wantSent))
			}
		})
	}
}

func TestClient_ExecuteStatusError(t *testing.T) {
	cla, _ := NewClass(0x00)
	card := &scriptedCard{responses: [][]byte{tlv.Hex("63 C2")}}

	_, _, err := NewClient(card).Execute(Verify(cla, PinRefPIN1, []byte("1234")))

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *StatusError", err)
	}
	if se.Instruction != INS_VERIFY {
		t.Errorf("Instruction = %s, want INS_VERIFY", se.Instruction)
	}
	if !errors.Is(err, ErrVerificationFailed) {
		t.Error("63C2 should match ErrVerificationFailed")
	}
}

func TestClient_TransmitError(t *testing.T) {
	cla, _ := NewClass(0x00)
	boom := errors.New("reader removed")
	card := &scriptedCard{err: boom}

	_, err := NewClient(card).Send(readBinary(cla, 0, 1))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapping %v", err, boom)
	}
}

func TestClient_LoopGuard(t *testing.T) {
	cla, _ := NewClass(0x00)
	var responses [][]byte
	for i := 0; i < maxAutoSteps+2; i++ {
		responses = append(responses, tlv.Hex("6C 0A"))
	}
	card := &scriptedCard{responses: responses}

	if _, err := NewClient(card).Send(readBinary(cla, 0, 5)); err == nil {
		t.Error("expected an error for an endless 6CXX chain")
	}
}
