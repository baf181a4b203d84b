package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/cmd/lookup"
	"github.com/tphakala/pcrdb/cmd/notify"
	"github.com/tphakala/pcrdb/cmd/serve"
	"github.com/tphakala/pcrdb/cmd/storage"
	"github.com/tphakala/pcrdb/cmd/transfer"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability"
	"github.com/tphakala/pcrdb/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *config.Context) *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "pcrdb",
		Short:         "PCR sample inventory",
		Version:       ctx.Build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(ctx),
		notify.Command(ctx),
		transfer.ImportCommand(ctx),
		transfer.ExportCommand(ctx),
		transfer.TemplateCommand(),
		storage.Command(ctx),
		lookup.Command(ctx),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "template" {
			return nil
		}
		return initialize(ctx, configFile, debug)
	}

	return rootCmd
}

// initialize loads the configuration and sets up logging, telemetry and
// metrics before any subcommand runs.
func initialize(ctx *config.Context, configFile string, debug bool) error {
	var (
		settings *conf.Settings
		err      error
	)
	if configFile != "" {
		settings, err = conf.LoadFile(configFile)
	} else {
		settings, err = conf.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if debug {
		settings.Main.Debug = true
		settings.Logging.DefaultLevel = "debug"
	}
	ctx.Settings = settings

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(central)
	ctx.OnClose(func() { _ = central.Close() })

	shutdown, err := telemetry.Init(settings, ctx.Build.GetVersion())
	if err != nil {
		return err
	}
	ctx.OnClose(shutdown)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	ctx.Metrics = metrics

	return nil
}
