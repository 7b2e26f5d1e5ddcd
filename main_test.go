package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/gregLibert/uimtool/internal/config"
	"github.com/gregLibert/uimtool/pkg/iso7816"
	"github.com/gregLibert/uimtool/pkg/pcsc"
	"github.com/gregLibert/uimtool/pkg/uim"
)

// fakeCard records the requests it gets and answers with canned values.
type fakeCard struct {
	status   uim.CardStatusResponse
	paths    []string
	verified []uim.VerifyPinRequest
	protect  []uim.SetPinProtectionRequest
	changed  []uim.ChangePinRequest
	unblock  []uim.UnblockPinRequest
	err      error
}

func (f *fakeCard) CardStatus() (uim.CardStatusResponse, error) { return f.status, f.err }

func (f *fakeCard) ReadICCID(expr string) (string, error) {
	f.paths = append(f.paths, expr)
	return "8901234567890123456F", f.err
}

func (f *fakeCard) ReadIMSI(expr string) (string, error) {
	f.paths = append(f.paths, expr)
	return "082980010000000010", f.err
}

func (f *fakeCard) ReadTransparent(req uim.ReadTransparentRequest) ([]byte, error) {
	f.paths = append(f.paths, req.File.String())
	return []byte{0xDE, 0xAD}, f.err
}

func (f *fakeCard) VerifyPin(req uim.VerifyPinRequest) error {
	f.verified = append(f.verified, req)
	return f.err
}

func (f *fakeCard) SetPinProtection(req uim.SetPinProtectionRequest) error {
	f.protect = append(f.protect, req)
	return f.err
}

func (f *fakeCard) ChangePin(req uim.ChangePinRequest) error {
	f.changed = append(f.changed, req)
	return f.err
}

func (f *fakeCard) UnblockPin(req uim.UnblockPinRequest) error {
	f.unblock = append(f.unblock, req)
	return f.err
}

// dispatch prepares act and runs it on card.
func dispatch(card cardOps, act action, o *options, cfg *config.Config) (describer, error) {
	st, err := prepare(act, o, cfg)
	if err != nil {
		return nil, err
	}
	return st(card)
}

func parse(t *testing.T, args ...string) (*options, action) {
	t.Helper()
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	act, err := selectAction(fs)
	if err != nil {
		t.Fatalf("selectAction(%v) failed: %v", args, err)
	}
	return &o, act
}

func TestSelectAction(t *testing.T) {
	tests := []struct {
		args    []string
		want    action
		wantErr bool
	}{
		{args: []string{"--get-card-status"}, want: actionCardStatus},
		{args: []string{"--get-iccid"}, want: actionICCID},
		{args: []string{"--get-imsi=3F00,7F20,6F07"}, want: actionIMSI},
		{args: []string{"--set-pin", "1234", "--change-pin1"}, want: actionChangePin1},
		{args: []string{"--set-pin", "1234"}, wantErr: true},
		{args: []string{"--get-card-status", "--get-iccid"}, wantErr: true},
		{args: nil, wantErr: true},
	}

	for _, tt := range tests {
		var o options
		fs := newFlagSet(&o)
		if err := fs.Parse(tt.args); err != nil {
			t.Fatalf("Parse(%v) failed: %v", tt.args, err)
		}

		got, err := selectAction(fs)
		if tt.wantErr {
			if err == nil {
				t.Errorf("selectAction(%v) = %q, want error", tt.args, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("selectAction(%v) = %q, %v; want %q", tt.args, got, err, tt.want)
		}
	}
}

func TestDispatch_Paths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ICCID = "2FE2"
	card := &fakeCard{}

	o, act := parse(t, "--get-iccid")
	if _, err := dispatch(card, act, o, cfg); err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}
	o, act = parse(t, "--get-imsi=3F00,7F20,6F07")
	if _, err := dispatch(card, act, o, cfg); err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}
	o, act = parse(t, "--read-transparent", "3f00,2fe2")
	res, err := dispatch(card, act, o, cfg)
	if err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}

	if diff := cmp.Diff([]string{"2FE2", "3F00,7F20,6F07", "3F00,2FE2"}, card.paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if got := res.Describe(); got != "DATA: DEAD" {
		t.Errorf("Describe() = %q, want %q", got, "DATA: DEAD")
	}
}

func TestDispatch_PinStaging(t *testing.T) {
	cfg := config.Default()
	card := &fakeCard{}

	o, act := parse(t, "--set-pin", "1234", "--set-new-pin", "4321", "--change-pin2")
	if _, err := dispatch(card, act, o, cfg); err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}
	want := []uim.ChangePinRequest{{
		Session: uim.Session{Type: uim.SessionCardSlot1},
		PinID:   uim.PinID2,
		OldPin:  "1234",
		NewPin:  "4321",
	}}
	if diff := cmp.Diff(want, card.changed); diff != "" {
		t.Errorf("change requests mismatch (-want +got):\n%s", diff)
	}

	o, act = parse(t, "--set-pin", "1234", "--set-pin1-protection", "Disabled")
	res, err := dispatch(card, act, o, cfg)
	if err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}
	if len(card.protect) != 1 || card.protect[0].Enabled {
		t.Errorf("protection requests = %+v, want one disable", card.protect)
	}
	if got := res.Describe(); got != "PIN1 disabled" {
		t.Errorf("Describe() = %q, want %q", got, "PIN1 disabled")
	}

	o, act = parse(t, "--change-pin1")
	if _, err := dispatch(card, act, o, cfg); !errors.Is(err, uim.ErrMissingPrecondition) {
		t.Errorf("change without staged pins error = %v, want ErrMissingPrecondition", err)
	}

	o, act = parse(t, "--set-pin", "1234", "--set-pin2-protection", "maybe")
	if _, err := dispatch(card, act, o, cfg); err == nil {
		t.Error("invalid protection value should fail")
	}
}

func TestDispatch_Unblock(t *testing.T) {
	card := &fakeCard{}

	o, act := parse(t, "--set-puk", "12345678", "--set-new-pin", "4321", "--unblock-pin1")
	res, err := dispatch(card, act, o, config.Default())
	if err != nil {
		t.Fatalf("dispatch(%s) failed: %v", act, err)
	}
	want := []uim.UnblockPinRequest{{
		Session: uim.Session{Type: uim.SessionCardSlot1},
		PinID:   uim.PinID1,
		Puk:     "12345678",
		NewPin:  "4321",
	}}
	if diff := cmp.Diff(want, card.unblock); diff != "" {
		t.Errorf("unblock requests mismatch (-want +got):\n%s", diff)
	}
	if got := res.Describe(); got != "PIN1 unblocked" {
		t.Errorf("Describe() = %q, want %q", got, "PIN1 unblocked")
	}
}

func TestPrepare_RejectsBeforeCard(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"Change Without Pins", []string{"--change-pin1"}, uim.ErrMissingPrecondition},
		{"Protection Without Pin", []string{"--set-pin2-protection", "enabled"}, uim.ErrMissingPrecondition},
		{"Unblock Without Puk", []string{"--set-new-pin", "4321", "--unblock-pin2"}, uim.ErrMissingPrecondition},
		{"Bad Path", []string{"--read-transparent", "3F00,,2FE2"}, uim.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, act := parse(t, tt.args...)
			if _, err := prepare(act, o, config.Default()); !errors.Is(err, tt.want) {
				t.Errorf("prepare error = %v, want %v", err, tt.want)
			}

			// run fails the same way without opening a PC/SC context.
			var out bytes.Buffer
			if err := run(tt.args, &out); !errors.Is(err, tt.want) {
				t.Errorf("run error = %v, want %v", err, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("run wrote %q", out.String())
			}
		})
	}
}

func TestTraceObserver(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  bool
	}{
		{"Info", slog.LevelInfo, false},
		{"Debug", slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: tt.level}))

			traceObserver(logger)(iso7816.Trace{})

			if !tt.want {
				if buf.Len() != 0 {
					t.Errorf("unexpected log output: %s", buf.String())
				}
				return
			}
			var rec map[string]any
			if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
				t.Fatalf("log output invalid: %v", err)
			}
			if rec["msg"] != "apdu trace" {
				t.Errorf("msg = %v, want %q", rec["msg"], "apdu trace")
			}
			if tr, _ := rec["trace"].(string); !strings.Contains(tr, "=== APDU TRACE ===") {
				t.Errorf("trace attribute = %q", tr)
			}
		})
	}
}

func TestDispatch_VerifyError(t *testing.T) {
	card := &fakeCard{err: errors.New("boom")}

	o, act := parse(t, "--verify-pin1", "1234")
	if _, err := dispatch(card, act, o, config.Default()); err == nil {
		t.Fatal("dispatch should surface the card error")
	}
	if len(card.verified) != 1 || card.verified[0].PinID != uim.PinID1 {
		t.Errorf("verify requests = %+v", card.verified)
	}
}

func TestRender(t *testing.T) {
	v := namedValue{Name: "iccid", Value: "8901"}

	var text bytes.Buffer
	if err := render(&text, config.FormatText, v); err != nil {
		t.Fatalf("render text failed: %v", err)
	}
	if got := text.String(); got != "ICCID: 8901\n" {
		t.Errorf("text = %q", got)
	}

	var js bytes.Buffer
	if err := render(&js, config.FormatJSON, v); err != nil {
		t.Fatalf("render json failed: %v", err)
	}
	var gotJSON map[string]string
	if err := json.Unmarshal(js.Bytes(), &gotJSON); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if gotJSON["iccid"] != "8901" {
		t.Errorf("json = %s", js.String())
	}

	var ym bytes.Buffer
	if err := render(&ym, config.FormatYAML, v); err != nil {
		t.Fatalf("render yaml failed: %v", err)
	}
	var gotYAML map[string]string
	if err := yaml.Unmarshal(ym.Bytes(), &gotYAML); err != nil {
		t.Fatalf("yaml output invalid: %v", err)
	}
	if gotYAML["iccid"] != "8901" {
		t.Errorf("yaml = %s", ym.String())
	}
}

func TestRender_StatusReport(t *testing.T) {
	status, ok := unavailableCardStatus(pcsc.ErrNoCard)
	if !ok {
		t.Fatal("ErrNoCard should map to a status")
	}

	var out bytes.Buffer
	if err := render(&out, config.FormatJSON, statusResult(actionCardStatus, status)); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out.String(), `"card_state": "absent"`) {
		t.Errorf("json report = %s", out.String())
	}

	if _, ok := unavailableCardStatus(pcsc.ErrNoReader); ok {
		t.Error("ErrNoReader must not map to a status")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Reader.Name = "Omnikey"

	if err := applyFlags(cfg, &options{reader: "2", format: "JSON", verbose: true}); err != nil {
		t.Fatalf("applyFlags failed: %v", err)
	}
	if cfg.Reader.Index != 2 || cfg.Reader.Name != "" {
		t.Errorf("reader = %+v, want index 2 and no name", cfg.Reader)
	}
	if cfg.Output.Format != config.FormatJSON || cfg.Log.Level != "debug" {
		t.Errorf("output/log = %+v / %+v", cfg.Output, cfg.Log)
	}

	if err := applyFlags(config.Default(), &options{format: "xml"}); err == nil {
		t.Error("applyFlags should reject an unknown format")
	}
}
