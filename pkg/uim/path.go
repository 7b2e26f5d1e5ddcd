package uim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gregLibert/uimtool/pkg/bits"
)

// FILE PATH ENCODING:
// A UICC file is addressed by the chain of directory identifiers leading to it
// followed by its own 2-byte file identifier, e.g. "3F00,7FFF,6F07".
//
// The request carries the two parts separately:
//   - FileID:    the terminal identifier (last element).
//   - PathBytes: every other element, 2 bytes each, LOW byte first.
//
// Example: "3F00,7FFF,6F07" -> FileID 6F07, PathBytes 00 3F FF 7F
//
// Realistic UICC trees are shallow; the path part is bounded to
// MaxPathElements elements and deeper paths are rejected, never truncated.

const (
	// PathSeparator splits the elements of a path expression.
	PathSeparator = ","

	// MaxPathElements is the maximum number of non-terminal elements.
	MaxPathElements = 5

	// MaxPathBytes is the capacity of EncodedPath.PathBytes.
	MaxPathBytes = 2 * MaxPathElements

	// MasterFileID is the identifier of the MF, the root of the card tree.
	MasterFileID uint16 = 0x3F00
)

// EncodedPath is a file reference ready to be placed in a request.
type EncodedPath struct {
	FileID    uint16
	PathBytes []byte
}

// TokenizePath splits a path expression into its hex elements.
func TokenizePath(expr string) ([]string, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, invalidPath(expr, "empty expression")
	}

	raw := strings.Split(expr, PathSeparator)
	tokens := make([]string, 0, len(raw))

	for i, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, invalidPath(expr, fmt.Sprintf("empty element at position %d", i+1))
		}
		tokens = append(tokens, tok)
	}

	if len(tokens) > MaxPathElements+1 {
		return nil, &PathError{
			Path:   expr,
			Reason: fmt.Sprintf("%d elements, max %d", len(tokens)-1, MaxPathElements),
			Err:    ErrPathTooDeep,
		}
	}

	return tokens, nil
}

// EncodePath tokenizes and encodes a path expression.
//
// The separator argument is kept for call-site compatibility only: elements
// are always split on PathSeparator.
func EncodePath(expr string, _ string) (EncodedPath, error) {
	tokens, err := TokenizePath(expr)
	if err != nil {
		return EncodedPath{}, err
	}

	p, err := EncodeTokens(tokens)
	if err != nil {
		if pe, ok := err.(*PathError); ok {
			pe.Path = expr
		}
		return EncodedPath{}, err
	}
	return p, nil
}

// EncodeTokens encodes already tokenized elements. The last token is the
// terminal file id, the others become PathBytes.
func EncodeTokens(tokens []string) (EncodedPath, error) {
	joined := strings.Join(tokens, PathSeparator)

	if len(tokens) == 0 {
		return EncodedPath{}, invalidPath(joined, "no elements")
	}

	var buf pathBuffer
	var fileID uint16

	for i, tok := range tokens {
		value, err := parseElement(tok)
		if err != nil {
			return EncodedPath{}, invalidPath(joined, fmt.Sprintf("element %q is not hex", tok))
		}

		// Zero is reserved to mean "no identifier parsed", for directory
		// elements as well as for the terminal id.
		if value == 0 {
			return EncodedPath{}, invalidPath(joined, fmt.Sprintf("element %q is zero", tok))
		}

		if i == len(tokens)-1 {
			fileID = value
			break
		}

		low, high := bits.SplitWord(value)
		if err := buf.push(low, high); err != nil {
			return EncodedPath{}, &PathError{
				Path:   joined,
				Reason: fmt.Sprintf("%d elements, max %d", len(tokens)-1, MaxPathElements),
				Err:    err,
			}
		}
	}

	return EncodedPath{FileID: fileID, PathBytes: buf.bytes()}, nil
}

// Elements splits PathBytes back into the 16-bit directory identifiers.
func (p EncodedPath) Elements() []uint16 {
	elems := make([]uint16, 0, len(p.PathBytes)/2)
	for i := 0; i+1 < len(p.PathBytes); i += 2 {
		elems = append(elems, bits.JoinWord(p.PathBytes[i], p.PathBytes[i+1]))
	}
	return elems
}

// Contains reports whether id appears among the directory identifiers.
func (p EncodedPath) Contains(id uint16) bool {
	for _, e := range p.Elements() {
		if e == id {
			return true
		}
	}
	return false
}

// ISOPath renders the reference as an ISO 7816-4 path from the MF
// (SELECT P1='08'): big-endian identifiers, MF omitted, file id last.
func (p EncodedPath) ISOPath() []byte {
	elems := p.Elements()
	if len(elems) > 0 && elems[0] == MasterFileID {
		elems = elems[1:]
	}

	out := make([]byte, 0, 2*len(elems)+2)
	for _, e := range append(elems, p.FileID) {
		lo, hi := bits.SplitWord(e)
		out = append(out, hi, lo)
	}
	return out
}

// String returns the reference in expression form, e.g. "3F00,7FFF,6F07".
func (p EncodedPath) String() string {
	parts := make([]string, 0, len(p.PathBytes)/2+1)
	for _, e := range p.Elements() {
		parts = append(parts, fmt.Sprintf("%04X", e))
	}
	parts = append(parts, fmt.Sprintf("%04X", p.FileID))
	return strings.Join(parts, PathSeparator)
}

const hexDigits = "0123456789abcdefABCDEF"

func parseElement(tok string) (uint16, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	if digits == "" || strings.Trim(digits, hexDigits) != "" {
		return 0, strconv.ErrSyntax
	}
	// Only the low 16 bits count, however long the token.
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// pathBuffer is the bounded container behind PathBytes.
type pathBuffer struct {
	data [MaxPathBytes]byte
	n    int
}

func (b *pathBuffer) push(vals ...byte) error {
	for _, v := range vals {
		if b.n == len(b.data) {
			return ErrPathTooDeep
		}
		b.data[b.n] = v
		b.n++
	}
	return nil
}

func (b *pathBuffer) bytes() []byte {
	out := make([]byte, b.n)
	copy(out, b.data[:b.n])
	return out
}
