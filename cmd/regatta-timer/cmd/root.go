package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/regatta-timer/internal/config"
	"github.com/oshokin/regatta-timer/internal/service/controller"
	"github.com/oshokin/regatta-timer/internal/version"
)

var (
	// configPath to the behavior profile YAML file.
	configPath string
	// simulate runs against in-memory lines instead of GPIO hardware.
	simulate bool
	// logLevel overrides the profile's diagnostic level.
	logLevel string

	// rootCmd represents the base command running the control loop.
	rootCmd = &cobra.Command{
		Use:   "regatta-timer",
		Short: "Run the regatta start-sequence controller.",
		Long: `Runs the start-sequence control loop: the start button arms a
warm-up period followed by the 3-2-1 minute countdown driven over the
horn and the three indicator lights; the stop button aborts the sequence
and resets every output.

Timing constants, pin assignments and polarity come from the YAML
profile; without a profile file the compiled-in defaults are used.
Pass --simulate to run without GPIO hardware.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &controller.Options{
				ConfigPath: configPath,
				Simulate:   simulate,
				LogLevel:   logLevel,
			}

			return controller.Run(ctx, options)
		},
	}

	// initConfigCmd writes the default behavior profile to disk.
	initConfigCmd = &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default behavior profile as a YAML file.",
		Long: `Writes the compiled-in behavior profile (timings, pins, polarity) to
the given path, or to ` + config.DefaultConfigFilename + ` when no path
is provided, as a starting point for site-specific adjustments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)

			return nil
		},
	}
)

// Execute runs the regatta-timer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the behavior profile")
	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "run against in-memory lines instead of GPIO")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "override the diagnostic level")
}
