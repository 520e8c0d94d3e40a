package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"maparr/internal/config"
	"maparr/internal/dockerx"
	"maparr/internal/httpserve"
	"maparr/internal/jobs"
	"maparr/internal/store"
	"maparr/pkg/logger"
	"maparr/pkg/version"
)

func newServeCommand() *cobra.Command {
	var portFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger.GetLogger().SetLogLevel(cfg.Log.Level)
			logger.GetLogger().ConfigureFromEnv()

			if portFlag != "" {
				cfg.Server.Port = portFlag
			}
			port, err := strconv.Atoi(cfg.Server.Port)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", cfg.Server.Port, err)
			}

			st, err := store.Open(cfg.Server.DataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			docker := dockerx.New(cfg.Docker.Sock)
			defer docker.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			jm := jobs.NewManager(ctx)
			defer jm.Shutdown()

			srv := httpserve.New(port, version.Version(), docker, st, jm)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&portFlag, "port", "p", "", "listen port (overrides config)")
	return cmd
}
