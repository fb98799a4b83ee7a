package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"netscout/internal/config"
	"netscout/internal/report"
)

func reportCommand(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "report [dir]",
		Short: "Summarize every saved report in a results directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Output.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			reports, err := report.LoadDir(dir)
			if err != nil {
				if len(reports) == 0 {
					return err
				}
				a.logger.Warn().Err(err).Msg("some reports could not be read")
			}
			if len(reports) == 0 {
				return fmt.Errorf("no reports found in %s", dir)
			}
			fmt.Fprintf(a.stdout, "Report files: %d\n\n", len(reports))

			devices := report.Aggregate(reports)
			if err := report.WriteSummary(a.stdout, devices); err != nil {
				return err
			}
			if !save {
				return nil
			}

			path := filepath.Join(dir, "final_report_"+time.Now().Format("20060102_150405")+".txt")
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := report.WriteSummary(f, devices); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\nSummary saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Also write the summary to final_report_<time>.txt")
	return cmd
}

func configCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

func versionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "netscout %s\n", version)
		},
	}
}
