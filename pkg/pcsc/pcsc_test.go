package pcsc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/ebfe/scard"
)

func TestSelectReader(t *testing.T) {
	readers := []string{
		"Alcor Micro AU9540 00 00",
		"Identiv uTrust 4701 F Dual Interface Reader(1)",
		"Identiv uTrust 4701 F Dual Interface Reader(2)",
	}

	tests := []struct {
		name    string
		readers []string
		opts    Options
		want    string
		wantErr error
	}{
		{"Default Index", readers, Options{}, readers[0], nil},
		{"Explicit Index", readers, Options{Index: 2}, readers[2], nil},
		{"Name Wins Over Index", readers, Options{Index: 0, Name: "utrust"}, readers[1], nil},
		{"No Readers", nil, Options{}, "", ErrNoReader},
		{"Index Out Of Range", readers, Options{Index: 3}, "", nil},
		{"Negative Index", readers, Options{Index: -1}, "", nil},
		{"Unknown Name", readers, Options{Name: "omnikey"}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectReader(tt.readers, tt.opts)
			if tt.want == "" {
				if err == nil {
					t.Fatalf("SelectReader() = %q, want error", got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectReader() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectReader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNoCard(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{scard.ErrRemovedCard, true},
		{fmt.Errorf("wrapped: %w", scard.ErrNoSmartcard), true},
		{scard.ErrUnpoweredCard, true},
		{scard.ErrSharingViolation, false},
		{errors.New("other"), false},
	}

	for _, tt := range tests {
		if got := isNoCard(tt.err); got != tt.want {
			t.Errorf("isNoCard(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestTransmit_NotConnected(t *testing.T) {
	var c *Connection
	if _, err := c.Transmit([]byte{0x00, 0xA4, 0x00, 0x04}); err == nil {
		t.Error("expected error on nil connection")
	}
	c.Close()
}

type fakeContext struct {
	err      error
	released int
}

func (f *fakeContext) Release() error {
	f.released++
	return f.err
}

func TestRelease(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog string
	}{
		{"Released", nil, ""},
		{"Failure Logged", errors.New("invalid handle"), "failed to release context"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			ctx := &fakeContext{err: tt.err}

			release(ctx, logger)

			if ctx.released != 1 {
				t.Errorf("Release called %d times, want 1", ctx.released)
			}
			got := buf.String()
			if tt.wantLog == "" {
				if got != "" {
					t.Errorf("unexpected log output: %s", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantLog) || !strings.Contains(got, "level=WARN") {
				t.Errorf("log output = %q, want a warning containing %q", got, tt.wantLog)
			}
		})
	}
}
