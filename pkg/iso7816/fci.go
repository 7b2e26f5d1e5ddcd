package iso7816

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
	"github.com/gregLibert/uimtool/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FILE CONTROL PARAMETERS (ETSI TS 102 221 §11.1.1.3):
// A UICC answers SELECT with P2='04' by an FCP template (tag '62').
//
//	'82' File descriptor: descriptor byte, data coding, [record length (2), record count (1)]
//	'83' File identifier
//	'84' DF name (AID), ADF only
//	'80' File size (EF)
//	'88' Short file identifier
//	'8A' Life cycle status
//	'C6' PIN status template DO (DF/ADF): '90' PS_DO bitmap followed by
//	     '83' key references. Bit 8 of PS_DO byte 1 maps to the first key
//	     reference and so on; a set bit means the PIN is enabled.

// FileStructure is the EF structure encoded in the descriptor byte.
type FileStructure byte

const (
	StructureUnknown     FileStructure = 0
	StructureTransparent FileStructure = 0b001
	StructureLinearFixed FileStructure = 0b010
	StructureCyclic      FileStructure = 0b110
	StructureBERTLV      FileStructure = 0b111
	StructureDF          FileStructure = 0xFF
)

func (s FileStructure) String() string {
	switch s {
	case StructureTransparent:
		return "transparent"
	case StructureLinearFixed:
		return "linear fixed"
	case StructureCyclic:
		return "cyclic"
	case StructureBERTLV:
		return "BER-TLV"
	case StructureDF:
		return "DF"
	default:
		return "unknown"
	}
}

// PinStatusTemplate is the PIN status template DO (tag 'C6').
type PinStatusTemplate struct {
	PSDO          []byte       `tlv:"90"`
	KeyReferences [][]byte     `tlv:"83"`
	Unknown       []bertlv.TLV `tlv:",unknown"`
}

// FCPTemplate (File Control Parameters) - Tag '62'.
type FCPTemplate struct {
	FileSize       uint32             `tlv:"80"`
	TotalFileSize  uint32             `tlv:"81"`
	FileDescriptor []byte             `tlv:"82"`
	FileIdentifier []byte             `tlv:"83"`
	DFName         []byte             `tlv:"84"`
	ShortFileID    []byte             `tlv:"88"`
	LifeCycle      []byte             `tlv:"8A"`
	Proprietary    []byte             `tlv:"A5"`
	PinStatus      *PinStatusTemplate `tlv:"C6"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseFCP decodes the data of a SELECT response carrying an FCP template.
func ParseFCP(data []byte) (*FCPTemplate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty FCP data")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	template, ok := tlv.Find(packets, "62")
	if !ok {
		return nil, fmt.Errorf("mandatory tag '62' not found")
	}

	fcp := &FCPTemplate{}
	if err := tlv.UnmarshalFromPackets(template.TLVs, fcp); err != nil {
		return nil, fmt.Errorf("FCP unmarshal failed: %w", err)
	}
	return fcp, nil
}

// Structure decodes the file structure from the descriptor byte.
func (f *FCPTemplate) Structure() FileStructure {
	if len(f.FileDescriptor) == 0 {
		return StructureUnknown
	}
	d := f.FileDescriptor[0]
	if bits.GetRange(d, 6, 4) == 0b111 {
		return StructureDF
	}
	return FileStructure(bits.GetRange(d, 3, 1))
}

// RecordLength returns the record size of a linear fixed or cyclic EF.
func (f *FCPTemplate) RecordLength() int {
	if len(f.FileDescriptor) < 4 {
		return 0
	}
	return int(bits.JoinWord(f.FileDescriptor[3], f.FileDescriptor[2]))
}

// RecordCount returns the number of records of a linear fixed or cyclic EF.
func (f *FCPTemplate) RecordCount() int {
	if len(f.FileDescriptor) < 5 {
		return 0
	}
	return int(f.FileDescriptor[4])
}

// Size returns the EF body size: tag '80' when present, records otherwise.
func (f *FCPTemplate) Size() int {
	if f.FileSize > 0 {
		return int(f.FileSize)
	}
	return f.RecordLength() * f.RecordCount()
}

// PinEnabled looks ref up in the PIN status template. listed is false when
// the template does not mention ref.
func (f *FCPTemplate) PinEnabled(ref PinReference) (enabled, listed bool) {
	if f.PinStatus == nil {
		return false, false
	}

	for i, kr := range f.PinStatus.KeyReferences {
		if len(kr) != 1 || kr[0] != byte(ref) {
			continue
		}
		byteIdx := i / 8
		if byteIdx >= len(f.PinStatus.PSDO) {
			return false, true
		}
		return bits.IsSet(f.PinStatus.PSDO[byteIdx], uint(8-i%8)), true
	}
	return false, false
}
