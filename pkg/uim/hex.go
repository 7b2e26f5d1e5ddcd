package uim

import "github.com/gregLibert/uimtool/pkg/bits"

const hexDigits = "0123456789ABCDEF"

// FormatHex renders data as uppercase hex, two digits per byte.
//
// With reverseNibbles the two digits of each byte are swapped, which decodes
// BCD-swapped fields such as the ICCID (EF 2FE2): 98 10 -> "8901".
func FormatHex(data []byte, reverseNibbles bool) string {
	if len(data) == 0 {
		return ""
	}

	out := make([]byte, 2*len(data))
	for i, b := range data {
		if reverseNibbles {
			b = bits.SwapNibbles(b)
		}
		high, low := bits.Nibbles(b)
		out[2*i] = hexDigits[high]
		out[2*i+1] = hexDigits[low]
	}
	return string(out)
}
