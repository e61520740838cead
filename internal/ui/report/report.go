// Package report renders detection results and engine status for the
// terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/ui/theme"
	"github.com/lifeband/edgeai/internal/vitals"
)

func rhythmStyle(r vitals.ArrhythmiaResult) lipgloss.Style {
	switch {
	case r.IsCritical:
		return theme.CriticalBadge
	case r.RhythmType == vitals.RhythmNoSignal:
		return theme.Dim
	case r.RhythmType == vitals.RhythmNormal:
		return theme.OkBadge
	}
	return theme.WarningBadge
}

func riskStyle(r vitals.RiskResult) lipgloss.Style {
	switch r.RiskLevel {
	case vitals.RiskCritical:
		return theme.CriticalBadge
	case vitals.RiskHigh:
		return theme.WarningBadge
	case vitals.RiskModerate:
		return theme.WatchBadge
	case vitals.RiskLow:
		return theme.OkBadge
	}
	return theme.Dim
}

func flag(on bool, word string) string {
	if !on {
		return ""
	}
	return theme.CriticalBadge.Render(word)
}

// Arrhythmia formats one arrhythmia result.
func Arrhythmia(r vitals.ArrhythmiaResult) string {
	return fmt.Sprintf("%-13s %s %s %s",
		"arrhythmia",
		rhythmStyle(r).Render(fmt.Sprintf("%-12s", r.RhythmType)),
		theme.Body.Render(fmt.Sprintf("%5.1f%%", r.Confidence)),
		flag(r.IsCritical, "CRITICAL"),
	)
}

// Risk formats one anemia or preeclampsia result.
func Risk(name string, r vitals.RiskResult) string {
	return fmt.Sprintf("%-13s %s %s %s",
		name,
		riskStyle(r).Render(fmt.Sprintf("%-12s", r.RiskLevel)),
		theme.Body.Render(fmt.Sprintf("%5.1f%%", r.Confidence)),
		flag(r.Alert, "ALERT"),
	)
}

// WriteAssessment prints the three results for one sample.
func WriteAssessment(w io.Writer, a vitals.Assessment) error {
	lines := []string{
		Arrhythmia(a.Arrhythmia),
		Risk("anemia", a.Anemia),
		Risk("preeclampsia", a.Preeclampsia),
	}
	if a.DeviceID != "" {
		lines = append([]string{theme.Title.Render(a.DeviceID)}, lines...)
	}
	for _, l := range lines {
		if _, err := lipgloss.Fprintln(w, strings.TrimRight(l, " ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteStatus prints the engine mode and one line per detector.
func WriteStatus(w io.Writer, mode string, statuses []detect.DetectorStatus) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", theme.Title.Render("mode"), mode)
	fmt.Fprintf(&b, "%-13s  %-13s  %-6s  %s\n", "Detector", "State", "Path", "Error")
	b.WriteString(strings.Repeat("\u2500", 60))
	for _, s := range statuses {
		state := theme.OkBadge.Render(fmt.Sprintf("%-13s", s.State))
		if !s.Active {
			state = theme.WatchBadge.Render(fmt.Sprintf("%-13s", s.State))
		}
		fmt.Fprintf(&b, "\n%-13s  %s  %-6s  %s", s.Detector, state, s.Path, theme.Dim.Render(s.Error))
	}
	_, err := lipgloss.Fprintln(w, theme.Card.Render(b.String()))
	return err
}
