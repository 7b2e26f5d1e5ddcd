package tlv

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/moov-io/bertlv"
)

type lifeCycle struct {
	Val string
}

func (l *lifeCycle) UnmarshalTLV(data []byte) error {
	l.Val = "lcs:" + hex.EncodeToString(data)
	return nil
}

type securityAttributes struct {
	Reference []byte `tlv:"8B"`
}

type fileControl struct {
	Size       uint16              `tlv:"80"`
	TotalSize  uint32              `tlv:"81"`
	Descriptor []byte              `tlv:"82"`
	FileID     []byte              `tlv:"83"`
	LifeCycle  lifeCycle           `tlv:"8A"`
	Security   *securityAttributes `tlv:"A5"`
	Other      []bertlv.TLV        `tlv:",unknown"`
}

type appTemplate struct {
	AID   []byte `tlv:"4F"`
	Label []byte `tlv:"50"`
}

type directory struct {
	Entries []appTemplate `tlv:"61"`
}

func TestUnmarshal(t *testing.T) {
	raw := Hex(
		"80 02 00 0A",    // size
		"81 03 01 00 00", // total size
		"82 02 41 21",    // descriptor
		"83 02 2F E2",    // file id
		"8A 01 05",       // life cycle
		"A5 03 8B 01 0F", // nested template
		"C6 01 90",       // unknown
	)

	var got fileControl
	if err := Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := fileControl{
		Size:       10,
		TotalSize:  0x010000,
		Descriptor: Hex("41 21"),
		FileID:     Hex("2F E2"),
		LifeCycle:  lifeCycle{Val: "lcs:05"},
		Security:   &securityAttributes{Reference: Hex("0F")},
	}

	if diff := cmp.Diff(want, got, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Other"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("Unmarshal mismatch (-want +got):\n%s", diff)
	}

	if len(got.Other) != 1 || strings.ToUpper(got.Other[0].Tag) != "C6" {
		t.Errorf("unknown tag C6 not captured, got %v", got.Other)
	}
}

func TestUnmarshal_RepeatedTemplates(t *testing.T) {
	raw := Hex(
		"61 0B 4F 07 A0 00 00 00 87 10 02 50 00",
		"61 0D 4F 07 A0 00 00 00 87 10 04 50 02 49 4D",
	)

	var got directory
	if err := Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := directory{Entries: []appTemplate{
		{AID: Hex("A0 00 00 00 87 10 02")},
		{AID: Hex("A0 00 00 00 87 10 04"), Label: []byte("IM")},
	}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	packets, err := bertlv.Decode(Hex("80 02 00 0A 83 02 6F 07"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	t.Run("Existing Tag", func(t *testing.T) {
		p, ok := Find(packets, "83")
		if !ok {
			t.Fatal("tag 83 not found")
		}
		if diff := cmp.Diff(Hex("6F 07"), p.Value); diff != "" {
			t.Errorf("value mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing Tag", func(t *testing.T) {
		if _, ok := Find(packets, "88"); ok {
			t.Error("expected tag 88 to be missing")
		}
	})
}

func TestUnmarshalErrors(t *testing.T) {
	t.Run("Non-pointer target", func(t *testing.T) {
		err := Unmarshal(Hex("80 00"), fileControl{})
		if err == nil || !strings.Contains(err.Error(), "pointer") {
			t.Errorf("expected pointer error, got %v", err)
		}
	})

	t.Run("Integer overflow", func(t *testing.T) {
		var v struct {
			Size uint16 `tlv:"80"`
		}
		if err := Unmarshal(Hex("80 03 01 00 00"), &v); err == nil {
			t.Error("expected overflow error, got nil")
		}
	})

	t.Run("Unsupported field", func(t *testing.T) {
		var v struct {
			Name string `tlv:"50"`
		}
		if err := Unmarshal(Hex("50 01 41"), &v); err == nil {
			t.Error("expected unsupported type error, got nil")
		}
	})
}
