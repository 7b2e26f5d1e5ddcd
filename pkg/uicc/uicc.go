/*
Package uicc runs the UIM operations against a UICC over an APDU transport.

It turns the typed requests of package uim into ISO 7816 / ETSI TS 102 221
command sequences (SELECT, READ BINARY, VERIFY, ...) and decodes the answers
back into uim values:

	card, err := uicc.New(conn, uicc.Options{})
	if err != nil {
		return err
	}
	defer card.Close()

	iccid, err := card.ReadICCID("3F00,2FE2")
*/
package uicc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/uim"
)

var (
	// ErrNoUSIM is returned when EF.DIR lists no USIM application.
	ErrNoUSIM = errors.New("no USIM application on card")

	// ErrNotTransparent is returned when a read targets a non transparent EF.
	ErrNotTransparent = errors.New("not a transparent file")

	// ErrOutOfRange is returned when offset and length exceed the file.
	ErrOutOfRange = errors.New("read outside file")

	// ErrUnsupportedPin is returned for PIN ids without a key reference.
	ErrUnsupportedPin = errors.New("unsupported pin")
)

// ADFIdentifier stands for the current ADF in paths from the MF.
const ADFIdentifier = 0x7FFF

// Options configures a Card.
type Options struct {
	// Channel is the logical channel to work on. Channels other than 0 are
	// opened by New and closed by Close.
	Channel uint8

	Logger *slog.Logger

	// Observer receives the APDU trace of every command.
	Observer func(iso7816.Trace)
}

// Card drives one UICC.
type Card struct {
	client  *iso7816.Client
	cla     iso7816.Class
	channel uint8
	logger  *slog.Logger

	apps       []iso7816.ApplicationTemplate
	appsLoaded bool
}

// New wraps t. It opens opts.Channel when it is not the basic channel.
func New(t iso7816.Transmitter, opts Options) (*Card, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cla, err := iso7816.NewInterindustryClass(false, iso7816.SMNone, opts.Channel)
	if err != nil {
		return nil, fmt.Errorf("invalid channel: %w", err)
	}

	client := iso7816.NewClient(t)
	client.Logger = logger
	client.Observer = opts.Observer

	c := &Card{client: client, cla: cla, channel: opts.Channel, logger: logger}

	if opts.Channel != 0 {
		cmd, err := iso7816.ManageChannelOpen(opts.Channel)
		if err != nil {
			return nil, err
		}
		if _, err := c.exec(cmd); err != nil {
			return nil, fmt.Errorf("open channel %d: %w", opts.Channel, err)
		}
	}

	return c, nil
}

// Close releases the logical channel opened by New.
func (c *Card) Close() error {
	if c.channel == 0 {
		return nil
	}
	cmd, err := iso7816.ManageChannelClose(c.channel)
	if err != nil {
		return err
	}
	if _, err := c.exec(cmd); err != nil {
		return fmt.Errorf("close channel %d: %w", c.channel, err)
	}
	return nil
}

// Applications lists the applications registered in EF.DIR. A card without
// EF.DIR (2G SIM) has none.
func (c *Card) Applications() ([]iso7816.ApplicationTemplate, error) {
	if c.appsLoaded {
		return c.apps, nil
	}

	fcp, err := c.selectISOPath([]byte{0x2F, 0x00})
	if errors.Is(err, iso7816.ErrFileNotFound) {
		c.logger.Debug("no EF.DIR on card")
		c.appsLoaded = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select EF.DIR: %w", err)
	}

	count := fcp.RecordCount()
	if count == 0 {
		count = 0xFE
	}

	var apps []iso7816.ApplicationTemplate
	for n := 1; n <= count; n++ {
		data, err := c.exec(iso7816.ReadRecord(c.cla, 0, byte(n), fcp.RecordLength()))
		if errors.Is(err, iso7816.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read EF.DIR record %d: %w", n, err)
		}

		app, err := iso7816.ParseDirRecord(data)
		if errors.Is(err, iso7816.ErrEmptyRecord) {
			continue
		}
		if err != nil {
			c.logger.Warn("skipping EF.DIR record", "record", n, "error", err)
			continue
		}
		apps = append(apps, *app)
	}

	c.apps = apps
	c.appsLoaded = true
	return apps, nil
}

// ApplicationTypeOf classifies an application by its AID (RID + application code).
func ApplicationTypeOf(aid []byte) uim.ApplicationType {
	if len(aid) < 7 {
		return uim.ApplicationTypeUnknown
	}
	rid, code := aid[:5], aid[5:7]

	switch {
	case bytes.Equal(rid, ridETSI3GPP) && bytes.Equal(code, []byte{0x10, 0x02}):
		return uim.ApplicationTypeUSIM
	case bytes.Equal(rid, ridETSI3GPP) && bytes.Equal(code, []byte{0x10, 0x04}):
		return uim.ApplicationTypeISIM
	case bytes.Equal(rid, rid3GPP2) && bytes.Equal(code, []byte{0x10, 0x02}):
		return uim.ApplicationTypeCSIM
	}
	return uim.ApplicationTypeUnknown
}

var (
	ridETSI3GPP = []byte{0xA0, 0x00, 0x00, 0x00, 0x87}
	rid3GPP2    = []byte{0xA0, 0x00, 0x00, 0x03, 0x43}
)

// selectUSIM makes the first USIM of EF.DIR the current ADF.
func (c *Card) selectUSIM() (*iso7816.FCPTemplate, error) {
	apps, err := c.Applications()
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if ApplicationTypeOf(app.AID) == uim.ApplicationTypeUSIM {
			return c.selectAID(app.AID)
		}
	}
	return nil, ErrNoUSIM
}

func (c *Card) selectAID(aid []byte) (*iso7816.FCPTemplate, error) {
	data, err := c.exec(iso7816.SelectByAID(c.cla, aid))
	if err != nil {
		return nil, fmt.Errorf("select AID %X: %w", aid, err)
	}
	return iso7816.ParseFCP(data)
}

// selectPath selects the file referenced by p. A path through '7FFF' enters
// the USIM ADF first, unless the session already selected an application.
func (c *Card) selectPath(p uim.EncodedPath, inADF bool) (*iso7816.FCPTemplate, error) {
	if p.Contains(ADFIdentifier) && !inADF {
		if _, err := c.selectUSIM(); err != nil {
			return nil, fmt.Errorf("select %s: %w", p, err)
		}
	}

	if len(p.PathBytes) == 0 && p.FileID == uim.MasterFileID {
		data, err := c.exec(iso7816.SelectMF(c.cla))
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", p, err)
		}
		return iso7816.ParseFCP(data)
	}

	fcp, err := c.selectISOPath(p.ISOPath())
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", p, err)
	}
	return fcp, nil
}

func (c *Card) selectISOPath(path []byte) (*iso7816.FCPTemplate, error) {
	data, err := c.exec(iso7816.SelectByPath(c.cla, path, iso7816.ReturnFCP))
	if err != nil {
		return nil, err
	}
	return iso7816.ParseFCP(data)
}

// enterSession selects the application a session is bound to. It reports
// whether an ADF is now current.
func (c *Card) enterSession(s uim.Session) (bool, error) {
	if len(s.ApplicationID) == 0 {
		return false, nil
	}
	if _, err := c.selectAID(s.ApplicationID); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Card) exec(cmd *iso7816.CommandAPDU) ([]byte, error) {
	data, _, err := c.client.Execute(cmd)
	return data, err
}
