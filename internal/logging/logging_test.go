package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", FormatJSON)

	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "chatty", FormatJSON)

	l.Debug().Msg("debug")
	l.Info().Msg("info")

	if strings.Contains(buf.String(), `"debug"`) {
		t.Errorf("debug should be filtered: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"info"`) {
		t.Errorf("info missing: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", FormatJSON)

	c := l.Component("api")
	c.Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["component"] != "api" {
		t.Errorf("component = %v, want api", line["component"])
	}
}
