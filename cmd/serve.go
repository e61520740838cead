package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lifeband/edgeai/internal/api"
	"github.com/lifeband/edgeai/internal/ingest"
	"github.com/lifeband/edgeai/internal/metrics"
	"github.com/lifeband/edgeai/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the MQTT ingest and the monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		noMQTT, _ := cmd.Flags().GetBool("no-mqtt")
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := tracing.Init(ctx, tracing.Config{
			Enabled:      cfg.Tracing.Enabled,
			ServiceName:  cfg.Tracing.ServiceName,
			OTLPEndpoint: cfg.Tracing.Endpoint,
			SampleRatio:  cfg.Tracing.SampleRatio,
			Version:      version,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				log.Warn().Err(err).Msg("tracing shutdown")
			}
		}()

		journal, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}

		rec := metrics.New()
		eng, err := newEngine(ctx, cfg, log.Component("detect"), journal, rec)
		if err != nil {
			return err
		}

		srv := api.NewServer(api.Deps{
			Log:      log.Component("api"),
			Detector: eng,
			Metrics:  rec.Handler(),
		}, api.Config{Addr: cfg.HTTP.Addr})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx) })

		if !noMQTT {
			latest := ingest.NewLatest()
			src := ingest.NewMQTTSource(mqttConfig(cfg), latest.Put, log.Component("mqtt"))
			mon := ingest.NewMonitor(monitorConfig(cfg), eng, latest,
				logAssessments(log.Component("monitor")), log.Component("monitor"))
			g.Go(func() error { return src.Run(gctx) })
			g.Go(func() error { return mon.Run(gctx) })
		}

		log.Info().
			Str("run_id", eng.RunID()).
			Str("mode", eng.Mode()).
			Str("addr", cfg.HTTP.Addr).
			Bool("mqtt", !noMQTT).
			Msg("lifeband serving")
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides http.addr)")
	serveCmd.Flags().Bool("no-mqtt", false, "Serve the HTTP API only")
}
