package iso7816

import (
	"strings"
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name    string
		cla     byte
		wantErr bool
		check   func(Class) bool
	}{
		{
			name:    "Reserved FF",
			cla:     0xFF,
			wantErr: true,
		},
		{
			name:    "Reserved E0",
			cla:     0xE0,
			wantErr: true,
		},
		{
			name: "First Interindustry - Ch 0, No SM",
			cla:  0b0_0_00_0_00,
			check: func(c Class) bool {
				return !c.IsProprietary && c.Channel == 0 && c.SecureMessaging == SMNone
			},
		},
		{
			name: "First Interindustry - Ch 3, Chaining, SM Auth",
			cla:  0b0_0_11_1_11,
			check: func(c Class) bool {
				return c.IsChained && c.Channel == 3 && c.SecureMessaging == SMHeaderAuth
			},
		},
		{
			name: "Further Interindustry - Ch 19, SM, Chaining",
			cla:  0b0_1_1_1_1111,
			check: func(c Class) bool {
				return c.IsChained && c.Channel == 19 && c.SecureMessaging == SMHeaderNoProc
			},
		},
		{
			name: "UICC Proprietary - Ch 1",
			cla:  0x81,
			check: func(c Class) bool {
				return c.IsProprietary && !c.IsGSM && c.Channel == 1
			},
		},
		{
			name: "UICC Proprietary - Ch 5",
			cla:  0xC1,
			check: func(c Class) bool {
				return c.IsProprietary && c.Channel == 5
			},
		},
		{
			name: "GSM Class",
			cla:  GSMClassByte,
			check: func(c Class) bool {
				return c.IsProprietary && c.IsGSM && c.Channel == 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClass(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClass() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !tt.check(c) {
				t.Errorf("NewClass(%08b) failed validation: %+v", tt.cla, c)
			}
		})
	}
}

func TestNewInterindustryClass_Validation(t *testing.T) {
	t.Run("Unsupported SM for Further Interindustry", func(t *testing.T) {
		if _, err := NewInterindustryClass(false, SMHeaderAuth, 5); err == nil {
			t.Error("Should have failed: SMHeaderAuth is not supported for channels 4-19")
		}
	})

	t.Run("Channel Out of Range", func(t *testing.T) {
		if _, err := NewInterindustryClass(false, SMNone, 20); err == nil {
			t.Error("Should have failed: channel 20 is out of range")
		}
	})

	t.Run("Valid Construction", func(t *testing.T) {
		c, err := NewInterindustryClass(true, SMHeaderNoProc, 10)
		if err != nil {
			t.Fatalf("Should have succeeded, got error: %v", err)
		}
		// 10 = 4 + 6 -> 0_1_1_1_0110
		if want := byte(0b0_1_1_1_0110); c.Raw != want {
			t.Errorf("Computed Raw byte invalid: got %08b, want %08b", c.Raw, want)
		}
	})
}

func TestClass_Encode_RoundTrip(t *testing.T) {
	testCases := []byte{
		0b0_0_00_0_00,
		0b0_0_11_1_11,
		0b0_1_0_0_0000,
		0b0_1_1_1_1111,
		0x80,
		0xC3,
		GSMClassByte,
	}

	for _, originalCla := range testCases {
		c, err := NewClass(originalCla)
		if err != nil {
			t.Fatalf("Failed to create class from %08b: %v", originalCla, err)
		}

		encoded, err := c.Encode()
		if err != nil {
			t.Fatalf("Failed to encode class %v: %v", c, err)
		}

		if encoded != originalCla {
			t.Errorf("Round-trip mismatch: got %08b, want %08b", encoded, originalCla)
		}
	}
}

func TestClass_Verbose(t *testing.T) {
	c, _ := NewClass(0x81)
	if got := c.Verbose(); !strings.Contains(got, "UICC Proprietary") || !strings.Contains(got, "Logical Channel: 1") {
		t.Errorf("Verbose() = %q", got)
	}
}
