package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifeband/edgeai/internal/inference"
	"github.com/lifeband/edgeai/internal/modelsync"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Check and install model files",
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Try to load every model file and report the outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir, major := cfg.Inference.ModelDir, cfg.Inference.SupportedSchema

		fmt.Printf("Model directory: %s (schema %s.x.x)\n\n", dir, major)
		fmt.Printf("%-13s  %-8s  %s\n", "Model", "Status", "Detail")
		fmt.Println(strings.Repeat("─", 72))

		var failed int
		for _, m := range inference.Models {
			b := inference.NewDenseBackend(dir, major)
			if b.Init(m) {
				fmt.Printf("%-13s  %-8s  %s\n", m, "✓ ready", inference.ModelFileName(m))
				continue
			}
			failed++
			detail := "unknown error"
			var le *inference.ErrModelLoad
			if errors.As(b.LoadErr(), &le) {
				detail = le.Err.Error()
			}
			fmt.Printf("%-13s  %-8s  %s\n", m, "✗ failed", detail)
		}

		if failed > 0 {
			fmt.Printf("\n%d of %d detectors will use rule-based scoring.\n", failed, len(inference.Models))
		}
		return nil
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <base-url> <bundle>",
	Short: "Download, verify and install a model bundle",
	Example: `  lifeband models pull https://releases.example.org/models/v1.2.0 models-v1.2.0.tar.gz`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		puller := modelsync.NewPuller(cfg.Inference.SupportedSchema, modelsync.WithTimeout(timeout))
		models, err := puller.Pull(ctx, modelsync.PullInput{
			BaseURL: args[0],
			Bundle:  args[1],
			Dir:     cfg.Inference.ModelDir,
		}, func(p modelsync.Progress) {
			fmt.Println(p.Message)
		})
		if errors.Is(err, modelsync.ErrChecksum) {
			return fmt.Errorf("%w\n\nThe bundle was not installed.", err)
		}
		if err != nil {
			return err
		}

		names := make([]string, len(models))
		for i, m := range models {
			names[i] = m.String()
		}
		fmt.Printf("Models now available: %s\n", strings.Join(names, ", "))
		return nil
	},
}

func init() {
	modelsPullCmd.Flags().Duration("timeout", 2*time.Minute, "Download timeout")

	modelsCmd.AddCommand(modelsCheckCmd)
	modelsCmd.AddCommand(modelsPullCmd)
}
