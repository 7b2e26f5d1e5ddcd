package uicc

import (
	"fmt"

	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/uim"
)

// ReadTransparent reads a transparent EF. Length 0 reads from Offset to the
// end of the file.
func (c *Card) ReadTransparent(req uim.ReadTransparentRequest) ([]byte, error) {
	inADF, err := c.enterSession(req.Session)
	if err != nil {
		return nil, err
	}

	fcp, err := c.selectPath(req.File, inADF)
	if err != nil {
		return nil, err
	}
	if s := fcp.Structure(); s != iso7816.StructureTransparent {
		return nil, fmt.Errorf("%s is %s: %w", req.File, s, ErrNotTransparent)
	}

	offset := int(req.Offset)
	length := int(req.Length)
	size := fcp.Size()

	if offset > iso7816.MaxBinaryOffset || (size > 0 && offset > size) {
		return nil, fmt.Errorf("offset %d of %d byte file: %w", offset, size, ErrOutOfRange)
	}

	if length == 0 {
		length = size - offset
		if size == 0 {
			// No size in the FCP: let the card correct Le through '6CXX'.
			length = min(iso7816.MaxShortLe, iso7816.MaxBinaryOffset+1-offset)
		}
	}
	if size > 0 && offset+length > size {
		return nil, fmt.Errorf("%d bytes at %d of %d byte file: %w", length, offset, size, ErrOutOfRange)
	}
	if length > 0 && offset+length-1 > iso7816.MaxBinaryOffset {
		return nil, fmt.Errorf("%d bytes at %d pass offset %d: %w", length, offset, iso7816.MaxBinaryOffset, ErrOutOfRange)
	}

	out := make([]byte, 0, length)
	for len(out) < length {
		n := min(length-len(out), iso7816.MaxShortLe)

		cmd, err := iso7816.ReadBinary(c.cla, uint16(offset+len(out)), n)
		if err != nil {
			return nil, err
		}
		chunk, err := c.exec(cmd)
		if err != nil {
			return nil, fmt.Errorf("read %s at %d: %w", req.File, offset+len(out), err)
		}
		out = append(out, chunk...)

		if len(chunk) < n {
			break
		}
	}

	c.logger.Debug("read transparent", "file", req.File.String(), "bytes", len(out))
	return out, nil
}

// ReadICCID reads EF.ICCID at expr and renders it as the printed ICCID
// (nibble swapped BCD).
func (c *Card) ReadICCID(expr string) (string, error) {
	req, err := uim.NewReadTransparentRequest(expr)
	if err != nil {
		return "", err
	}
	req.Session = uim.Session{Type: uim.SessionCardSlot1}

	data, err := c.ReadTransparent(req)
	if err != nil {
		return "", err
	}
	return uim.FormatHex(data, true), nil
}

// ReadIMSI reads EF.IMSI at expr and renders its raw bytes.
func (c *Card) ReadIMSI(expr string) (string, error) {
	req, err := uim.NewReadTransparentRequest(expr)
	if err != nil {
		return "", err
	}

	data, err := c.ReadTransparent(req)
	if err != nil {
		return "", err
	}
	return uim.FormatHex(data, false), nil
}
