package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/lifeband/edgeai/internal/ui/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Initialize the detectors and show which path each one uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		eng, err := newEngine(cmd.Context(), cfg, log.Component("status"), nil)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"mode":      eng.Mode(),
				"detectors": eng.Status(),
			})
		}
		return report.WriteStatus(cmd.OutOrStdout(), eng.Mode(), eng.Status())
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print status as JSON")
}
