package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kikiluvv/lecturedeck/internal/config"
	"github.com/kikiluvv/lecturedeck/internal/logging"
	"github.com/kikiluvv/lecturedeck/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	verbose     bool
	metricsFile string

	logCloser io.Closer
)

func main() {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)

	if metricsFile != "" {
		if merr := metrics.WriteTextfile(metricsFile); merr != nil {
			cliLogger().Error().Err(merr).Str("path", metricsFile).Msg("failed to write metrics")
		}
	}
	if logCloser != nil {
		logCloser.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lecturedeck",
	Short: "lecturedeck - turn recorded lectures into slide pages",
	Long: "Detects slide changes in a lecture recording, aligns the subtitle " +
		"transcript to each slide and exports a page bundle for PDF rendering.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Initialize logging
		closer, err := logging.Init(logging.Options{
			Verbose:    verbose,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logCloser = closer

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
}
