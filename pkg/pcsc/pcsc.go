// Package pcsc connects to a UICC through a PC/SC reader.
package pcsc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ebfe/scard"
)

var (
	// ErrNoReader is returned when PC/SC reports no reader at all.
	ErrNoReader = errors.New("no smart card reader found")

	// ErrNoCard is returned when the selected reader holds no card.
	ErrNoCard = errors.New("no card in reader")

	// ErrCardRemoved is returned when the card goes away mid-session.
	ErrCardRemoved = errors.New("card removed")

	// ErrCardUnresponsive is returned when the card does not answer the reset.
	ErrCardUnresponsive = errors.New("card does not respond to reset")
)

// Options selects the reader. A non-empty Name wins over Index and matches
// the first reader whose name contains it, case-insensitively.
type Options struct {
	Index  int
	Name   string
	Logger *slog.Logger
}

// Connection wraps a PC/SC card connection.
type Connection struct {
	ctx    *scard.Context
	card   *scard.Card
	logger *slog.Logger

	Reader string
}

// ListReaders returns the names of the connected readers.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}
	defer release(ctx, slog.Default())

	return listReaders(ctx)
}

// Connect establishes a connection to the card in the selected reader.
func Connect(opts Options) (*Connection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}

	readers, err := listReaders(ctx)
	if err != nil {
		release(ctx, logger)
		return nil, err
	}

	reader, err := SelectReader(readers, opts)
	if err != nil {
		release(ctx, logger)
		return nil, err
	}

	// T=0 or T=1 only; ProtocolAny trips some readers (SCARD_E_INVALID_PARAMETER).
	card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		release(ctx, logger)
		if isNoCard(err) {
			return nil, fmt.Errorf("%s: %w", reader, ErrNoCard)
		}
		if errors.Is(err, scard.ErrUnresponsiveCard) {
			return nil, fmt.Errorf("%s: %w", reader, ErrCardUnresponsive)
		}
		return nil, fmt.Errorf("connect to %s failed: %w", reader, err)
	}

	logger.Debug("pcsc connected", "reader", reader, "protocol", card.ActiveProtocol())

	return &Connection{ctx: ctx, card: card, logger: logger, Reader: reader}, nil
}

// SelectReader picks a reader name according to opts.
func SelectReader(readers []string, opts Options) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}

	if opts.Name != "" {
		want := strings.ToLower(opts.Name)
		for _, r := range readers {
			if strings.Contains(strings.ToLower(r), want) {
				return r, nil
			}
		}
		return "", fmt.Errorf("no reader matching %q", opts.Name)
	}

	if opts.Index < 0 || opts.Index >= len(readers) {
		return "", fmt.Errorf("reader index out of range (0..%d)", len(readers)-1)
	}
	return readers[opts.Index], nil
}

// Close disconnects the card and releases the PC/SC context.
func (c *Connection) Close() {
	if c == nil {
		return
	}
	if c.card != nil {
		if err := c.card.Disconnect(scard.LeaveCard); err != nil {
			c.logger.Warn("failed to disconnect card", "error", err)
		}
	}
	if c.ctx != nil {
		release(c.ctx, c.logger)
	}
}

type releaser interface {
	Release() error
}

// release frees a PC/SC context, logging any failure.
func release(ctx releaser, logger *slog.Logger) {
	if err := ctx.Release(); err != nil {
		logger.Warn("failed to release context", "error", err)
	}
}

// Transmit sends an APDU to the card.
func (c *Connection) Transmit(apdu []byte) ([]byte, error) {
	if c == nil || c.card == nil {
		return nil, fmt.Errorf("connection not established")
	}

	// scard panics on a connection without an active protocol.
	proto := c.card.ActiveProtocol()
	if proto != scard.ProtocolT0 && proto != scard.ProtocolT1 {
		return nil, ErrCardRemoved
	}

	resp, err := c.card.Transmit(apdu)
	if err != nil {
		if isNoCard(err) {
			return nil, fmt.Errorf("%w: %v", ErrCardRemoved, err)
		}
		return nil, fmt.Errorf("transmit failed: %w", err)
	}
	return resp, nil
}

func listReaders(ctx *scard.Context) ([]string, error) {
	readers, err := ctx.ListReaders()
	if err != nil {
		if errors.Is(err, scard.ErrNoReadersAvailable) {
			return nil, ErrNoReader
		}
		return nil, fmt.Errorf("ListReaders failed: %w", err)
	}
	if len(readers) == 0 {
		return nil, ErrNoReader
	}
	return readers, nil
}

func isNoCard(err error) bool {
	return errors.Is(err, scard.ErrRemovedCard) ||
		errors.Is(err, scard.ErrResetCard) ||
		errors.Is(err, scard.ErrNoSmartcard) ||
		errors.Is(err, scard.ErrUnpoweredCard)
}
