package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"netscout/internal/config"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "netscout",
		Short: "Find web management interfaces on local networks",
		Long: `netscout scans a local IPv4 network for HTTP(S) management interfaces,
recovers their page titles and guesses the kind of device behind them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(stderr, a.verbose)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	globals := pflag.NewFlagSet("Global", pflag.ContinueOnError)
	globals.StringVar(&a.configPath, "config", config.DefaultPath, "Path to configuration file")
	globals.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().AddFlagSet(globals)

	root.AddCommand(
		scanCommand(a),
		investigateCommand(a),
		sweepCommand(a),
		reportCommand(a),
		configCommand(a),
		versionCommand(a),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
