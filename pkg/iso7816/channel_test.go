package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/uimtool/pkg/tlv"
)

func TestManageChannel(t *testing.T) {
	open, err := ManageChannelOpen(2)
	if err != nil {
		t.Fatalf("ManageChannelOpen failed: %v", err)
	}
	got, _ := open.Bytes()
	if diff := cmp.Diff(tlv.Hex("00 70 00 02"), got); diff != "" {
		t.Errorf("open APDU mismatch (-want +got):\n%s", diff)
	}

	closeCmd, err := ManageChannelClose(2)
	if err != nil {
		t.Fatalf("ManageChannelClose failed: %v", err)
	}
	got, _ = closeCmd.Bytes()
	if diff := cmp.Diff(tlv.Hex("00 70 80 02"), got); diff != "" {
		t.Errorf("close APDU mismatch (-want +got):\n%s", diff)
	}

	for _, ch := range []uint8{0, 20} {
		if _, err := ManageChannelOpen(ch); err == nil {
			t.Errorf("ManageChannelOpen(%d) should fail", ch)
		}
		if _, err := ManageChannelClose(ch); err == nil {
			t.Errorf("ManageChannelClose(%d) should fail", ch)
		}
	}
}
