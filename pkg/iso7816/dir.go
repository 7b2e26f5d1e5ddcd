package iso7816

import (
	"errors"
	"fmt"

	"github.com/gregLibert/uimtool/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// EF.DIR (ETSI TS 102 221 §13.1):
// The linear fixed EF '2F00' under the MF lists the applications of the UICC,
// one application template (tag '61') per record, padded with 'FF'.

// EFDirID is the file identifier of EF.DIR.
const EFDirID = 0x2F00

// ErrEmptyRecord is returned for an unused ('FF' filled) record.
var ErrEmptyRecord = errors.New("empty record")

// ApplicationTemplate (Tag '61') describes one application of the card.
type ApplicationTemplate struct {
	AID           []byte `tlv:"4F"` // Mandatory
	Label         []byte `tlv:"50"`
	Discretionary []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseDirRecord interprets one EF.DIR record.
func ParseDirRecord(data []byte) (*ApplicationTemplate, error) {
	if len(data) == 0 || data[0] == 0xFF {
		return nil, ErrEmptyRecord
	}

	// Drop the padding after a short-form template; AIDs may end in 'FF'.
	if data[0] == 0x61 && len(data) >= 2 && data[1] < 0x80 {
		if end := 2 + int(data[1]); end <= len(data) {
			data = data[:end]
		}
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	template, ok := tlv.Find(packets, "61")
	if !ok {
		return nil, fmt.Errorf("missing mandatory Application Template (Tag 61)")
	}

	app := &ApplicationTemplate{}
	if err := tlv.UnmarshalFromPackets(template.TLVs, app); err != nil {
		return nil, fmt.Errorf("failed to map application template: %w", err)
	}
	if len(app.AID) == 0 {
		return nil, fmt.Errorf("application template without AID")
	}

	return app, nil
}
