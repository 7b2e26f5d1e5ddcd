// uimtool inspects and manages the UIM applications of a UICC through a
// PC/SC reader: card status, PIN state, ICCID/IMSI and raw transparent EFs.
//
// Usage:
//
//	uimtool --get-card-status
//	uimtool --get-iccid
//	uimtool --verify-pin1 1234
//	uimtool --set-pin 1234 --set-pin1-protection disabled
//	uimtool --set-pin 1234 --set-new-pin 4321 --change-pin1
//	uimtool --set-puk 12345678 --set-new-pin 4321 --unblock-pin1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gregLibert/uimtool/internal/config"
	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/pcsc"
	"github.com/gregLibert/uimtool/pkg/uicc"
	"github.com/gregLibert/uimtool/pkg/uim"
)

// useConfigured marks an optional path flag given without a value.
const useConfigured = "configured"

type options struct {
	configPath string
	reader     string
	format     string
	logFormat  string
	verbose    bool

	getCardStatus   bool
	getPin1Info     bool
	listReaders     bool
	getICCID        string
	getIMSI         string
	readTransparent string

	verifyPin1        string
	verifyPin2        string
	setPin            string
	setNewPin         string
	setPin1Protection string
	setPin2Protection string
	changePin1        bool
	changePin2        bool
	setPuk            string
	unblockPin1       bool
	unblockPin2       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("uimtool: %v", err)
	}
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("uimtool", pflag.ContinueOnError)

	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&o.reader, "reader", "", "reader index or part of its name")
	fs.StringVar(&o.format, "format", "", "output format: text, json or yaml")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging and APDU traces")

	fs.BoolVar(&o.getCardStatus, "get-card-status", false, "report the card status")
	fs.BoolVar(&o.getPin1Info, "get-pin1-info", false, "report the PIN1/PIN2 state of the USIM applications")
	fs.BoolVar(&o.listReaders, "list-readers", false, "list the PC/SC readers")
	fs.StringVar(&o.getICCID, "get-iccid", "", "read the ICCID (optional path, default from config)")
	fs.StringVar(&o.getIMSI, "get-imsi", "", "read the IMSI (optional path, default from config)")
	fs.StringVar(&o.readTransparent, "read-transparent", "", "read a transparent EF, e.g. 3F00,7FFF,6F07")
	fs.Lookup("get-iccid").NoOptDefVal = useConfigured
	fs.Lookup("get-imsi").NoOptDefVal = useConfigured

	fs.StringVar(&o.verifyPin1, "verify-pin1", "", "verify PIN1")
	fs.StringVar(&o.verifyPin2, "verify-pin2", "", "verify PIN2")
	fs.StringVar(&o.setPin, "set-pin", "", "current PIN for the protection and change actions")
	fs.StringVar(&o.setNewPin, "set-new-pin", "", "new PIN for the change actions")
	fs.StringVar(&o.setPin1Protection, "set-pin1-protection", "", "enabled or disabled (needs --set-pin)")
	fs.StringVar(&o.setPin2Protection, "set-pin2-protection", "", "enabled or disabled (needs --set-pin)")
	fs.BoolVar(&o.changePin1, "change-pin1", false, "change PIN1 (needs --set-pin and --set-new-pin)")
	fs.BoolVar(&o.changePin2, "change-pin2", false, "change PIN2 (needs --set-pin and --set-new-pin)")
	fs.StringVar(&o.setPuk, "set-puk", "", "unblock key for the unblock actions")
	fs.BoolVar(&o.unblockPin1, "unblock-pin1", false, "unblock PIN1 (needs --set-puk and --set-new-pin)")
	fs.BoolVar(&o.unblockPin2, "unblock-pin2", false, "unblock PIN2 (needs --set-puk and --set-new-pin)")

	return fs
}

func run(args []string, stdout io.Writer) error {
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, &o); err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	act, err := selectAction(fs)
	if err != nil {
		return err
	}

	if act == actionListReaders {
		readers, err := pcsc.ListReaders()
		if err != nil {
			return err
		}
		return render(stdout, cfg.Output.Format, readerList(readers))
	}

	st, err := prepare(act, &o, cfg)
	if err != nil {
		return err
	}

	conn, err := pcsc.Connect(pcsc.Options{
		Index:  cfg.Reader.Index,
		Name:   cfg.Reader.Name,
		Logger: logger,
	})
	if err != nil {
		if status, ok := unavailableCardStatus(err); ok && act.reportsStatus() {
			logger.Warn("no usable card", "error", err)
			return render(stdout, cfg.Output.Format, statusResult(act, status))
		}
		return err
	}
	defer conn.Close()
	logger.Info("using reader", "reader", conn.Reader)

	card, err := uicc.New(conn, uicc.Options{
		Channel:  uint8(cfg.Card.Channel),
		Logger:   logger,
		Observer: traceObserver(logger),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := card.Close(); err != nil {
			logger.Warn("failed to close channel", "error", err)
		}
	}()

	result, err := st(card)
	if err != nil {
		if n, ok := iso7816.RetriesLeft(err); ok {
			logger.Warn("pin rejected", "retries_left", n)
		}
		return err
	}
	return render(stdout, cfg.Output.Format, result)
}

// applyFlags lays the command line over the file configuration.
func applyFlags(cfg *config.Config, o *options) error {
	if o.reader != "" {
		if idx, err := strconv.Atoi(o.reader); err == nil {
			cfg.Reader.Index, cfg.Reader.Name = idx, ""
		} else {
			cfg.Reader.Name = o.reader
		}
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	return cfg.Validate()
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func traceObserver(logger *slog.Logger) func(iso7816.Trace) {
	return func(tr iso7816.Trace) {
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			logger.Debug("apdu trace", "trace", tr.Describe())
		}
	}
}

// unavailableCardStatus maps connection failures that still describe the
// slot to a status response.
func unavailableCardStatus(err error) (uim.CardStatusResponse, bool) {
	switch {
	case errors.Is(err, pcsc.ErrNoCard):
		return uicc.AbsentCardStatus(), true
	case errors.Is(err, pcsc.ErrCardUnresponsive):
		return uicc.ErrorCardStatus(uim.CardErrorNoATRReceived), true
	}
	return uim.CardStatusResponse{}, false
}
