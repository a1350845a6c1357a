package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flags      Config
	)

	rootCmd := &cobra.Command{
		Use:   "nvimui [flags] [-- nvim args...]",
		Short: "Terminal front-end for an embedded Neovim",
		Long: `nvimui starts "nvim --embed", attaches as a line-grid UI and draws the
editor in the current terminal. With --screenshot it renders the screen
to a PNG instead and exits.`,
		Example: `  # Edit a file
  nvimui -- main.go

  # Render the start screen to a PNG
  nvimui --cols 80 --rows 24 --screenshot start.png

  # Log protocol details to a file
  nvimui --debug --log-file /tmp/nvimui.log`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags, args)
			if err := cfg.Validate(); err != nil {
				return err
			}

			// The terminal belongs to the UI; only log there in screenshot mode.
			var logOut io.Writer = io.Discard
			if cfg.Screenshot != "" {
				logOut = cmd.ErrOrStderr()
			}
			logger, closer, err := newLogger(cfg, logOut)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer closer.Close()
			slog.SetDefault(logger)

			if cfg.Screenshot != "" {
				return runScreenshot(cmd.Context(), cfg, logger)
			}
			return runTUI(cmd.Context(), cfg, logger)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", DefaultConfigPath(), "Path to the TOML config file")
	rootCmd.Flags().StringVar(&flags.Nvim, "nvim", "", "Editor executable (default \"nvim\")")
	rootCmd.Flags().BoolVarP(&flags.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&flags.LogFile, "log-file", "", "Write logs to this file")
	rootCmd.Flags().IntVar(&flags.Cols, "cols", 0, "Grid columns (default: terminal width)")
	rootCmd.Flags().IntVar(&flags.Rows, "rows", 0, "Grid rows (default: terminal height)")
	rootCmd.Flags().StringVar(&flags.Screenshot, "screenshot", "", "Render to this PNG file (\"-\" for stdout) and exit")
	rootCmd.Flags().DurationVar(&flags.Settle, "settle", 0, "Quiet period before taking the screenshot")
	rootCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Give up on the screenshot after this long")

	return rootCmd
}

// applyFlags overrides config values with the flags the user set.
func applyFlags(cmd *cobra.Command, cfg *Config, flags Config, args []string) {
	changed := cmd.Flags().Changed
	if changed("nvim") {
		cfg.Nvim = flags.Nvim
	}
	if changed("debug") {
		cfg.Debug = flags.Debug
	}
	if changed("log-file") {
		cfg.LogFile = flags.LogFile
	}
	if changed("cols") {
		cfg.Cols = flags.Cols
	}
	if changed("rows") {
		cfg.Rows = flags.Rows
	}
	if changed("settle") {
		cfg.Settle = flags.Settle
	}
	if changed("timeout") {
		cfg.Timeout = flags.Timeout
	}
	cfg.Screenshot = flags.Screenshot
	cfg.Args = append(cfg.Args, args...)
}
