package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sochat/realtime-server/internal/app"
	"github.com/sochat/realtime-server/internal/config"
	"github.com/sochat/realtime-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:          "realtime-server",
		Short:        "Membership-gated realtime chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrap := log.New("info")

			cfg, path, err := config.Load(bootstrap, configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
			cfg.UpdateFrom(overrides)
			if cmd.Flags().Changed("single-node") {
				cfg.SingleNode = overrides.SingleNode
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting realtime server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	root.Flags().StringVar(&overrides.RedisAddr, "redis-addr", "", "redis address")
	root.Flags().StringVar(&overrides.NATSURL, "nats-url", "", "NATS url")
	root.Flags().BoolVar(&overrides.SingleNode, "single-node", false, "run without a pub/sub backbone")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
