/*
Package uim holds the data-shape logic of the UIM (UICC management) commands:
file path encoding, hex rendering of card data, status code translation and
the card status report.

Everything here works on in-memory values. Sending the requests to a card and
decoding the raw answers is the job of the transport (see package uicc).

# File Paths

A file is given as a comma separated list of hex identifiers, the last one
being the file itself:

	p, err := uim.EncodePath("3F00,7FFF,6F07", uim.PathSeparator)
	// p.FileID    == 0x6F07
	// p.PathBytes == []byte{0x00, 0x3F, 0xFF, 0x7F}

Paths deeper than MaxPathElements fail with ErrPathTooDeep, malformed ones
with ErrInvalidPath.

# Card Status

	report := uim.BuildCardStatusReport(resp)
	fmt.Println(report.Describe())

BuildPin1OnlyReport restricts the output to the PIN blocks of the USIM
applications.
*/
package uim
