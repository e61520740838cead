package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lifeband/edgeai/internal/config"
	"github.com/lifeband/edgeai/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect recorded detection and backend events",
}

// openJournalForRead opens the journal regardless of journal.enabled.
func openJournalForRead(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg.Journal.Enabled = true
	s, err := openJournal(cfg)
	return s, cfg, err
}

func queryOpts(cmd *cobra.Command) store.QueryOpts {
	f := cmd.Flags()
	var opts store.QueryOpts
	opts.Limit, _ = f.GetInt("limit")
	opts.RunID, _ = f.GetString("run")
	opts.Detector, _ = f.GetString("detector")
	if f.Lookup("path") != nil {
		opts.Path, _ = f.GetString("path")
	}
	return opts
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openJournalForRead(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryDetections(cmd.Context(), queryOpts(cmd))
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No detections found.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-13s  %-6s  %-12s  %6s  %-4s  %7s  %s\n",
			"Seq", "Timestamp", "Detector", "Path", "Label", "Conf", "Flag", "µs", "Reason")
		fmt.Println(strings.Repeat("─", 100))

		for _, e := range events {
			flag := " "
			if e.Flag {
				flag = "!"
			}
			fmt.Printf("%-6d  %-19s  %-13s  %-6s  %-12s  %6.1f  %-4s  %7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Detector,
				e.Path,
				e.Label,
				e.Confidence,
				flag,
				e.LatencyUs,
				truncate(e.Reason, 40),
			)
		}
		return nil
	},
}

var journalInitsCmd = &cobra.Command{
	Use:   "inits",
	Short: "List backend initialization outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openJournalForRead(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryBackendInits(cmd.Context(), queryOpts(cmd))
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No backend initializations recorded.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-36s  %-13s  %-8s  %s\n",
			"Seq", "Timestamp", "Run", "Detector", "State", "Error")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			fmt.Printf("%-6d  %-19s  %-36s  %-13s  %-8s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.RunID,
				e.Detector,
				e.State,
				truncate(e.ErrorMessage, 40),
			)
		}
		return nil
	},
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show detection counts per detector and decision path",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openJournalForRead(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.EventRepo().DetectionStats(cmd.Context(), queryOpts(cmd))
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No detections recorded yet.")
			return nil
		}

		fmt.Println("Detections by Path")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-13s  %-6s  %8s  %8s  %9s  %10s\n",
			"Detector", "Path", "Count", "Flagged", "Avg Conf", "Avg µs")
		fmt.Println(strings.Repeat("─", 72))

		var total, flagged int64
		for _, st := range stats {
			fmt.Printf("%-13s  %-6s  %8d  %8d  %9.1f  %10.0f\n",
				st.Detector, st.Path, st.Count, st.Flagged, st.AvgConfidence, st.AvgLatencyUs)
			total += st.Count
			flagged += st.Flagged
		}

		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-13s  %-6s  %8d  %8d\n", "TOTAL", "", total, flagged)
		return nil
	},
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openJournalForRead(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		keep := cfg.Journal.Keep
		if cmd.Flags().Changed("keep") {
			keep, _ = cmd.Flags().GetInt("keep")
		}
		if keep <= 0 {
			return fmt.Errorf("refusing to prune with keep=%d", keep)
		}

		n, err := s.EventRepo().Prune(cmd.Context(), keep)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		fmt.Printf("Removed %d detection(s); kept the newest %d.\n", n, keep)
		return nil
	},
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func init() {
	for _, c := range []*cobra.Command{journalListCmd, journalInitsCmd, journalStatsCmd} {
		c.Flags().String("run", "", "Filter by run ID")
		c.Flags().StringP("detector", "d", "", "Filter by detector (arrhythmia, anemia, preeclampsia)")
	}
	journalListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	journalInitsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	journalListCmd.Flags().StringP("path", "p", "", "Filter by decision path (model, rules, guard)")
	journalStatsCmd.Flags().StringP("path", "p", "", "Filter by decision path (model, rules, guard)")
	journalPruneCmd.Flags().Int("keep", 0, "Detections to keep (default journal.keep)")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalInitsCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalPruneCmd)
}
