package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"maparr/internal/analysis"
	"maparr/internal/config"
	"maparr/internal/dockerx"
	"maparr/internal/store"
	"maparr/pkg/logger"
)

const snapshotTimeout = 30 * time.Second

func newAnalyzeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis against the local Docker daemon and print the report",
		Long: `Captures a snapshot of all containers, merges stored manual paths,
runs the conflict analysis and prints the report.

Exit codes: 0 healthy, 1 needs attention, 2 critical conflicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger.GetLogger().SetLogLevel(cfg.Log.Level)

			result, err := runOnce(cfg)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				fmt.Print(renderReport(result))
			}

			switch result.Summary.Status {
			case analysis.StatusCritical:
				os.Exit(2)
			case analysis.StatusNeedsAttention:
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw result as JSON")
	return cmd
}

func runOnce(cfg *config.Config) (*analysis.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	docker := dockerx.New(cfg.Docker.Sock)
	defer docker.Close()

	snap, err := docker.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot capture container snapshot: %w", err)
	}

	var manual []analysis.ManualPath
	if st, err := store.Open(cfg.Server.DataDir); err == nil {
		manual, _ = st.ManualPathEntries(ctx)
		st.Close()
	}

	result := analysis.Analyze(analysis.WithManualPaths(snap, manual))
	logger.Debug("analysis finished", "summary", result.Describe())
	return result, nil
}
