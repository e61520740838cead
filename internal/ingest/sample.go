// Package ingest feeds vital-sign samples to the detectors: from an MQTT
// broker, from JSON-lines replay files, and on a cron schedule.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lifeband/edgeai/internal/vitals"
)

// ErrNoDevice is returned when neither the payload nor the topic names a device.
var ErrNoDevice = errors.New("sample has no device id")

// DecodeSample parses one JSON sample. When the payload carries no
// device_id it is taken from the topic segment after the first level,
// e.g. "lifeband/band-01/vitals" -> "band-01".
func DecodeSample(topic string, payload []byte) (vitals.Sample, error) {
	s, err := decode(payload)
	if err != nil {
		return vitals.Sample{}, err
	}
	if s.DeviceID == "" {
		s.DeviceID = deviceFromTopic(topic)
	}
	if s.DeviceID == "" {
		return vitals.Sample{}, ErrNoDevice
	}
	return s, nil
}

func decode(payload []byte) (vitals.Sample, error) {
	var s vitals.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return vitals.Sample{}, fmt.Errorf("decode sample: %w", err)
	}
	if err := s.Validate(); err != nil {
		return vitals.Sample{}, err
	}
	if s.CollectedAt.IsZero() {
		s.CollectedAt = time.Now().UTC()
	}
	return s, nil
}

func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// ReadSamples reads JSON-lines samples. Blank lines and lines starting with
// '#' are skipped. device_id is optional. Errors carry the 1-based line number.
func ReadSamples(r io.Reader) ([]vitals.Sample, error) {
	var out []vitals.Sample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		s, err := decode([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return out, nil
}
