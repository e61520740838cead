package ingest

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/lifeband/edgeai/internal/vitals"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Username string
	Password string
}

// MQTTSource subscribes to device vitals and hands decoded samples to a sink.
type MQTTSource struct {
	cfg    MQTTConfig
	sink   func(vitals.Sample)
	log    zerolog.Logger
	client mqtt.Client
}

// NewMQTTSource creates an unconnected source.
func NewMQTTSource(cfg MQTTConfig, sink func(vitals.Sample), log zerolog.Logger) *MQTTSource {
	return &MQTTSource{cfg: cfg, sink: sink, log: log}
}

// Run connects, subscribes on every (re)connect, and blocks until ctx is done.
func (s *MQTTSource) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.log.Warn().Err(err).Msg("mqtt connection lost")
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, err)
		}
	case <-ctx.Done():
		s.client.Disconnect(250)
		return nil
	}

	<-ctx.Done()
	s.log.Info().Msg("disconnecting from mqtt")
	s.client.Disconnect(250)
	return nil
}

func (s *MQTTSource) onConnect(c mqtt.Client) {
	s.log.Info().Str("broker", s.cfg.Broker).Msg("mqtt connected")
	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.log.Error().Err(err).Str("topic", s.cfg.Topic).Msg("mqtt subscribe failed")
		return
	}
	s.log.Info().Str("topic", s.cfg.Topic).Msg("subscribed")
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	sample, err := DecodeSample(msg.Topic(), msg.Payload())
	if err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("dropping malformed sample")
		return
	}
	s.log.Debug().Str("device", sample.DeviceID).Msg("sample received")
	s.sink(sample)
}
