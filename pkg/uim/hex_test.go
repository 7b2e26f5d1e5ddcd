package uim

import (
	"testing"

	"github.com/gregLibert/uimtool/pkg/tlv"
)

func TestFormatHex(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		reverse bool
		want    string
	}{
		{"Plain", []byte{0x12, 0x34}, false, "1234"},
		{"Reversed", []byte{0x12, 0x34}, true, "2143"},
		{"Empty", []byte{}, false, ""},
		{"Empty Reversed", nil, true, ""},
		{"Upper Case", []byte{0xab, 0xcd, 0xef}, false, "ABCDEF"},
		{"ICCID", tlv.Hex("98 94 00 10 32 54 76 98 10 F2"), true, "8949000123456789012F"},
		{"IMSI", tlv.Hex("08 29 80 01 00 00 00 00 10"), false, "082980010000000010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatHex(tt.data, tt.reverse)
			if got != tt.want {
				t.Errorf("FormatHex(%X, %v) = %q, want %q", tt.data, tt.reverse, got, tt.want)
			}
			if len(got) != 2*len(tt.data) {
				t.Errorf("len = %d, want %d", len(got), 2*len(tt.data))
			}
		})
	}
}

func TestFormatHex_LongInput(t *testing.T) {
	// Exceeds any small fixed scratch buffer.
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	got := FormatHex(data, true)
	if len(got) != 600 {
		t.Fatalf("len = %d, want 600", len(got))
	}
	if got[:6] != "001020" || got[len(got)-2:] != "B2" {
		t.Errorf("unexpected rendering: %s...%s", got[:6], got[len(got)-2:])
	}
}
