package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lifeband/edgeai/internal/config"
	"github.com/lifeband/edgeai/internal/ingest"
	"github.com/lifeband/edgeai/internal/ui/report"
	"github.com/lifeband/edgeai/internal/vitals"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Assess live device samples from MQTT, or replay a recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		journal, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg, log.Component("detect"), journal)
		if err != nil {
			return err
		}

		latest := ingest.NewLatest()
		mon := ingest.NewMonitor(monitorConfig(cfg), eng, latest,
			printAssessments(cmd.OutOrStdout()), log.Component("monitor"))

		if path, _ := cmd.Flags().GetString("replay"); path != "" {
			return replay(ctx, path, latest, mon)
		}

		src := ingest.NewMQTTSource(mqttConfig(cfg), latest.Put, log.Component("mqtt"))
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return src.Run(gctx) })
		g.Go(func() error { return mon.Run(gctx) })
		return g.Wait()
	},
}

// replay feeds a recording through the monitor one sample per tick.
func replay(ctx context.Context, path string, latest *ingest.Latest, mon *ingest.Monitor) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	samples, err := ingest.ReadSamples(f)
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}
	for _, s := range samples {
		if ctx.Err() != nil {
			return nil
		}
		latest.Put(s)
		mon.Tick(ctx)
	}
	return nil
}

// printAssessments returns a report func that serializes writes to w.
func printAssessments(w io.Writer) func(vitals.Assessment) {
	var mu sync.Mutex
	return func(a vitals.Assessment) {
		mu.Lock()
		defer mu.Unlock()
		_ = report.WriteAssessment(w, a)
		fmt.Fprintln(w)
	}
}

// logAssessments returns a report func that logs every assessment, at warn
// level when any detector flagged it.
func logAssessments(log zerolog.Logger) func(vitals.Assessment) {
	return func(a vitals.Assessment) {
		ev := log.Debug()
		if a.Arrhythmia.IsCritical || a.Anemia.Alert || a.Preeclampsia.Alert {
			ev = log.Warn()
		}
		ev.Str("device", a.DeviceID).
			Str("rhythm", string(a.Arrhythmia.RhythmType)).
			Bool("rhythm_critical", a.Arrhythmia.IsCritical).
			Str("anemia", string(a.Anemia.RiskLevel)).
			Bool("anemia_alert", a.Anemia.Alert).
			Str("preeclampsia", string(a.Preeclampsia.RiskLevel)).
			Bool("preeclampsia_alert", a.Preeclampsia.Alert).
			Msg("assessment")
	}
}

func monitorConfig(cfg config.Config) ingest.MonitorConfig {
	return ingest.MonitorConfig{
		Schedule:   cfg.Monitor.Schedule,
		Workers:    cfg.Monitor.Workers,
		StaleAfter: cfg.Monitor.StaleAfter,
	}
}

func mqttConfig(cfg config.Config) ingest.MQTTConfig {
	return ingest.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		Topic:    cfg.MQTT.Topic,
		ClientID: cfg.MQTT.ClientID,
		QoS:      byte(cfg.MQTT.QoS),
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}
}

func init() {
	monitorCmd.Flags().String("replay", "", "JSON-lines recording to replay instead of subscribing to MQTT")
}
