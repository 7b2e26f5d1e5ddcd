package uim

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		table StatusCodeTable
		code  uint8
		want  string
	}{
		{"Card Absent", CardStateTable, 0, "absent"},
		{"Card Present", CardStateTable, 1, "present"},
		{"Card Error Has No State Label", CardStateTable, 2, UnknownLabel},
		{"Card State Out of Range", CardStateTable, 200, UnknownLabel},
		{"No ATR", CardErrorTable, 3, "no-ATR-received"},
		{"Pin Verified", PinStateTable, 2, "verified"},
		{"Pin Out of Range", PinStateTable, 6, UnknownLabel},
		{"USIM", ApplicationTypeTable, 2, "usim"},
		{"App Ready", ApplicationStateTable, 7, "ready"},
		{"Perso Code Required", PersonalizationStateTable, 3, "code-required"},
		{"Feature 1x RUIM", PersonalizationFeatureTable, 10, "1x-ruim"},
		{"Feature Unknown Entry", PersonalizationFeatureTable, 11, "unknown"},
		{"Feature Out of Range", PersonalizationFeatureTable, 12, UnknownLabel},
		{"Empty Label", StatusCodeTable{1: ""}, 1, UnknownLabel},
		{"Nil Table", nil, 0, UnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Translate(tt.table, tt.code); got != tt.want {
				t.Errorf("Translate(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestCodeStringers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{CardStatePresent.String(), "present"},
		{CardErrorPossiblyRemoved.String(), "unknown-error-possibly-removed"},
		{PinStatePermanentlyBlocked.String(), "permanently-blocked"},
		{ApplicationTypeISIM.String(), "isim"},
		{ApplicationStatePuk1OrUpinPukRequired.String(), "puk1-or-upin-required"},
		{PersonalizationStatePukCodeRequired.String(), "puk-code-required"},
		{PersonalizationFeatureGWCorporate.String(), "gw-corporate"},
		{ApplicationType(9).String(), UnknownLabel},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPersonalizationState_RequiresCode(t *testing.T) {
	for s := PersonalizationState(0); s < 8; s++ {
		want := s == PersonalizationStateCodeRequired || s == PersonalizationStatePukCodeRequired
		if got := s.RequiresCode(); got != want {
			t.Errorf("%v.RequiresCode() = %v, want %v", s, got, want)
		}
	}
}
