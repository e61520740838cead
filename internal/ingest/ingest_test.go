package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifeband/edgeai/internal/vitals"
)

func TestDecodeSample(t *testing.T) {
	s, err := DecodeSample("lifeband/band-07/vitals", []byte(`{"heart_rate":72,"hrv_sdnn":55,"spo2":98,"bp_systolic":118,"bp_diastolic":76}`))
	require.NoError(t, err)
	assert.Equal(t, "band-07", s.DeviceID, "device taken from topic")
	assert.Equal(t, 72, s.HeartRate)
	assert.Equal(t, 76, s.Diastolic)
	assert.False(t, s.CollectedAt.IsZero())

	s, err = DecodeSample("lifeband/band-07/vitals", []byte(`{"device_id":"band-01","heart_rate":60}`))
	require.NoError(t, err)
	assert.Equal(t, "band-01", s.DeviceID, "payload wins over topic")
}

func TestDecodeSample_Errors(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"not json", "lifeband/a/vitals", `{heart_rate}`},
		{"no device", "vitals", `{"heart_rate":70}`},
		{"negative", "lifeband/a/vitals", `{"heart_rate":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSample(tt.topic, []byte(tt.payload))
			require.Error(t, err)
		})
	}

	_, err := DecodeSample("x", []byte(`{"spo2":95}`))
	assert.True(t, errors.Is(err, ErrNoDevice))

	_, err = DecodeSample("lifeband/a/vitals", []byte(`{"heart_rate":72,"bp_diastolic":-3}`))
	var neg *vitals.NegativeReadingError
	require.ErrorAs(t, err, &neg)
	assert.Equal(t, "bp_diastolic", neg.Field)
}

func TestReadSamples(t *testing.T) {
	in := `# replay
{"device_id":"a","heart_rate":72}

{"device_id":"b","heart_rate":39}
`
	got, err := ReadSamples(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].DeviceID)
	assert.Equal(t, 39, got[1].HeartRate)

	got, err = ReadSamples(strings.NewReader(`{"heart_rate":50}`))
	require.NoError(t, err)
	assert.Empty(t, got[0].DeviceID, "device is optional in recordings")

	_, err = ReadSamples(strings.NewReader(`{"heart_rate":72}` + "\n" + `{"spo2":-1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2: spo2 must not be negative")

	_, err = ReadSamples(strings.NewReader("{\"device_id\":\"a\"}\n{oops}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLatest_DrainOnce(t *testing.T) {
	l := NewLatest()
	now := time.Now()

	l.PutAt(vitals.Sample{DeviceID: "b", HeartRate: 80}, now)
	l.PutAt(vitals.Sample{DeviceID: "a", HeartRate: 70}, now)
	l.PutAt(vitals.Sample{DeviceID: "a", HeartRate: 71}, now) // replaces

	got := l.Drain(now, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DeviceID)
	assert.Equal(t, 71, got[0].HeartRate)

	assert.Empty(t, l.Drain(now, 0), "samples are handed out once")

	l.PutAt(vitals.Sample{DeviceID: "a", HeartRate: 90}, now)
	got = l.Drain(now, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 90, got[0].HeartRate)
	assert.Equal(t, 2, l.Devices())
}

func TestLatest_SkipsStale(t *testing.T) {
	l := NewLatest()
	now := time.Now()
	l.PutAt(vitals.Sample{DeviceID: "old"}, now.Add(-time.Minute))
	l.PutAt(vitals.Sample{DeviceID: "new"}, now.Add(-time.Second))

	got := l.Drain(now, 10*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].DeviceID)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTSource_HandleMessage(t *testing.T) {
	var got []vitals.Sample
	src := NewMQTTSource(MQTTConfig{Topic: "lifeband/+/vitals"}, func(s vitals.Sample) {
		got = append(got, s)
	}, zerolog.Nop())

	src.handleMessage(nil, fakeMessage{topic: "lifeband/band-02/vitals", payload: []byte(`{"heart_rate":101,"spo2":97}`)})
	src.handleMessage(nil, fakeMessage{topic: "lifeband/band-02/vitals", payload: []byte(`garbage`)})

	require.Len(t, got, 1)
	assert.Equal(t, "band-02", got[0].DeviceID)
	assert.Equal(t, 101, got[0].HeartRate)
}

type mockAssessor struct {
	mock.Mock
}

func (m *mockAssessor) Assess(ctx context.Context, s vitals.Sample) vitals.Assessment {
	args := m.Called(ctx, s)
	return args.Get(0).(vitals.Assessment)
}

func TestMonitor_TickAssessesEachDeviceOnce(t *testing.T) {
	latest := NewLatest()
	latest.Put(vitals.Sample{DeviceID: "a", HeartRate: 70})
	latest.Put(vitals.Sample{DeviceID: "b", HeartRate: 120})

	engine := &mockAssessor{}
	engine.On("Assess", mock.Anything, mock.MatchedBy(func(s vitals.Sample) bool { return s.DeviceID == "a" })).
		Return(vitals.Assessment{DeviceID: "a"}).Once()
	engine.On("Assess", mock.Anything, mock.MatchedBy(func(s vitals.Sample) bool { return s.DeviceID == "b" })).
		Return(vitals.Assessment{DeviceID: "b"}).Once()

	var mu sync.Mutex
	reported := map[string]int{}
	m := NewMonitor(MonitorConfig{Schedule: "@every 1s", Workers: 2}, engine, latest, func(a vitals.Assessment) {
		mu.Lock()
		defer mu.Unlock()
		reported[a.DeviceID]++
	}, zerolog.Nop())

	assert.Equal(t, 2, m.Tick(context.Background()))
	assert.Equal(t, 0, m.Tick(context.Background()), "nothing new since last tick")

	engine.AssertExpectations(t)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, reported)
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	latest := NewLatest()
	engine := &mockAssessor{}
	m := NewMonitor(MonitorConfig{Schedule: "@every 1s", Workers: 1}, engine, latest, func(vitals.Assessment) {}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_RunRejectsBadSchedule(t *testing.T) {
	m := NewMonitor(MonitorConfig{Schedule: "whenever"}, &mockAssessor{}, NewLatest(), func(vitals.Assessment) {}, zerolog.Nop())
	require.Error(t, m.Run(context.Background()))
}
