package uim

import (
	"fmt"
	"strings"
)

// Describe generates an indented, human-readable report of the card status.
func (r CardStatusReport) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== CARD STATUS REPORT ===\n")

	if len(r.Slots) == 0 {
		sb.WriteString("    - No card status returned.\n")
		return strings.TrimRight(sb.String(), "\n")
	}

	for _, slot := range r.Slots {
		if slot.CardError != "" {
			sb.WriteString(fmt.Sprintf("[Slot %d] Card Error: %s\n", slot.SlotIndex, slot.CardError))
		} else {
			sb.WriteString(fmt.Sprintf("[Slot %d] Card State: %s\n", slot.SlotIndex, slot.CardState))
		}
		sb.WriteString(fmt.Sprintf("    + UPIN:    %s (retries %d, PUK retries %d)\n",
			slot.UpinState, slot.UpinRetries, slot.UpukRetries))

		if len(slot.Applications) == 0 {
			sb.WriteString("    - No applications.\n")
		}

		for _, app := range slot.Applications {
			sb.WriteString(fmt.Sprintf("    [App %d] %s (%s)\n", app.Index, app.Type, app.State))
			if app.ApplicationID != "" {
				sb.WriteString(fmt.Sprintf("        - Application ID:     %s\n", app.ApplicationID))
			}
			sb.WriteString(fmt.Sprintf("        - Personalization:    %s\n", describePersonalization(app.Personalization)))
			sb.WriteString(fmt.Sprintf("        - UPIN replaces PIN1: %s\n", yesNo(app.UpinReplacesPin1)))
			writePin(&sb, "        - ", "PIN1", app.Pin1)
			writePin(&sb, "        - ", "PIN2", app.Pin2)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Describe generates the PIN-only report.
func (r PinInfoReport) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== PIN INFO REPORT ===\n")

	if len(r.Applications) == 0 {
		sb.WriteString("    - No USIM application found.\n")
	}

	for _, info := range r.Applications {
		writePin(&sb, "    - ", "PIN1", info.Pin1)
		writePin(&sb, "    - ", "PIN2", info.Pin2)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func describePersonalization(p PersonalizationReport) string {
	if !p.Locked() {
		return p.State
	}
	return fmt.Sprintf("%s | feature %s | disable retries %d | unblock retries %d",
		p.State, p.Feature, *p.DisableRetries, *p.UnblockRetries)
}

func writePin(sb *strings.Builder, indent, name string, pin PinReport) {
	sb.WriteString(fmt.Sprintf("%s%s: %s (retries %d, PUK retries %d)\n",
		indent, name, pin.State, pin.Retries, pin.PukRetries))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
