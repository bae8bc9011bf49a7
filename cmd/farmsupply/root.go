package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/di"
	"github.com/polkiloo/farmsupply/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "farmsupply",
		Short:         "Farm supply operations console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, newApp(ctx, cmd.Flags()))
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "farmsupply %s\n", version)
		},
	}
}

func newApp(ctx context.Context, flags *pflag.FlagSet, opts ...fx.Option) *fx.App {
	return fx.New(
		fx.WithLogger(logger.FxLogger),
		fx.Provide(func() context.Context { return ctx }),
		fx.Supply(flags),
		di.Module(opts...),
	)
}
