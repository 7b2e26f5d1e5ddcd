package iso7816

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// SELECT COMMAND LOGIC (ISO 7816-4, ETSI TS 102 221 §11.1.1):
// The SELECT command (INS 'A4') makes a MF, DF, ADF or EF current.
//
// P1 (Selection Method): by file id, by DF name (AID), by path from MF, ...
// P2 (Selection Control):
// - Bits 4-3: Response type. UICCs answer with an FCP template ('04').
// - Bits 2-1: Occurrence (only meaningful for AID selection).

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04 // Select by AID
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileID:
		return "Select by File ID"
	case SelectChildDF:
		return "Select Child DF"
	case SelectEFUnderCurrentDF:
		return "Select EF under current DF"
	case SelectParentDF:
		return "Select Parent DF"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	case SelectPathFromMF:
		return "Select Path from MF"
	case SelectPathFromCurrentDF:
		return "Select Path from Current DF"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// FileOccurrence defines which instance of the file to select (Bits 2-1 of P2).
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b00
	LastOccurrence        FileOccurrence = 0b01
	NextOccurrence        FileOccurrence = 0b10
	PreviousOccurrence    FileOccurrence = 0b11
)

// SelectionControl defines what data to return (Bits 4-3 of P2).
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000
	ReturnFCP    SelectionControl = 0b0100
	ReturnFMD    SelectionControl = 0b1000
	ReturnNoData SelectionControl = 0b1100
)

func (s SelectionControl) String() string {
	switch s {
	case ReturnFCI:
		return "Return FCI"
	case ReturnFCP:
		return "Return FCP"
	case ReturnFMD:
		return "Return FMD"
	case ReturnNoData:
		return "No Response Data"
	default:
		return "Unknown Control"
	}
}

// NewSelectCommand creates a generic SELECT command.
func NewSelectCommand(
	cla Class,
	method SelectionMethod,
	occurrence FileOccurrence,
	ctrl SelectionControl,
	data []byte,
) *CommandAPDU {
	p2 := byte(ctrl) | byte(occurrence)

	// T=0: a case 3 command cannot carry Le. The card answers '61XX' and
	// the Client fetches the data.
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), p2, data, ne)
}

// SelectByAID selects an application by its AID and asks for its FCP.
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, FirstOrOnlyOccurrence, ReturnFCP, aid)
}

// SelectFileID selects a file by its two-byte identifier.
func SelectFileID(cla Class, fid uint16, ctrl SelectionControl) *CommandAPDU {
	lo, hi := bits.SplitWord(fid)
	return NewSelectCommand(cla, SelectByFileID, FirstOrOnlyOccurrence, ctrl, []byte{hi, lo})
}

// SelectByPath selects a file by its path from the MF. path holds the
// big-endian identifiers after '3F00', the target file last.
func SelectByPath(cla Class, path []byte, ctrl SelectionControl) *CommandAPDU {
	return NewSelectCommand(cla, SelectPathFromMF, FirstOrOnlyOccurrence, ctrl, path)
}

// SelectMF selects the Master File.
func SelectMF(cla Class) *CommandAPDU {
	return SelectFileID(cla, 0x3F00, ReturnFCP)
}
