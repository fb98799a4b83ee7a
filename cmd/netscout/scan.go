package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"netscout/internal/config"
	"netscout/internal/enrich"
	"netscout/internal/report"
	"netscout/internal/scan"
	"netscout/internal/store"
)

var (
	investigatePorts = []int{
		80, 81, 82, 443, 8080, 8081, 8443, 8888,
		8000, 8001, 7547, 5000, 9999, 9000, 8088,
		21, 22, 23, 25, 53, 110, 143, 161, 162,
	}
	sweepNetworks = []string{
		"192.168.1.0/24",
		"192.168.0.0/24",
		"192.168.2.0/24",
		"192.168.100.0/24",
		"10.0.0.0/24",
		"10.1.1.0/24",
		"172.16.0.0/24",
		"172.16.1.0/24",
	}
	sweepPorts = []int{80, 81, 82, 443, 8080, 8081, 8443, 8888, 8000, 8001, 9000}
)

type scanFlags struct {
	network   string
	timeout   float64
	threads   int
	ports     []int
	save      bool
	output    string
	db        string
	enrich    bool
	ping      bool
	rate      float64
	verifyTLS bool
}

func bindScanFlags(cmd *cobra.Command, f *scanFlags, withNetwork bool) {
	fs := pflag.NewFlagSet("Scan", pflag.ContinueOnError)
	if withNetwork {
		fs.StringVarP(&f.network, "network", "n", "192.168.1.0/24", "Network to scan in CIDR format")
		fs.IntSliceVarP(&f.ports, "ports", "p", nil, "Additional ports to check (comma-separated)")
		fs.BoolVarP(&f.save, "save", "s", false, "Save results to file")
	}
	fs.Float64VarP(&f.timeout, "timeout", "t", 2, "Connection timeout in seconds")
	fs.IntVarP(&f.threads, "threads", "j", 50, "Number of parallel workers")
	fs.StringVarP(&f.output, "output", "o", report.DefaultDir, "Directory for saved reports")
	fs.StringVar(&f.db, "db", "", "Also store the run in this SQLite database")
	fs.BoolVar(&f.enrich, "enrich", false, "Look up names and MAC vendors of hosts with findings")
	fs.BoolVar(&f.ping, "ping", false, "Skip hosts that do not answer ICMP echo")
	fs.Float64Var(&f.rate, "rate", 0, "Maximum connection attempts per second (0 = unlimited)")
	fs.BoolVar(&f.verifyTLS, "verify-tls", false, "Verify TLS certificates")
	cmd.Flags().AddFlagSet(fs)
}

// apply overlays explicitly set flags on the file configuration.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("network") {
		cfg.Scan.Network = f.network
	}
	if set("timeout") {
		cfg.Scan.TimeoutSeconds = f.timeout
	}
	if set("threads") {
		cfg.Scan.Threads = f.threads
	}
	if set("ports") {
		cfg.Scan.Ports = mergePorts(cfg.Scan.Ports, f.ports)
	}
	if set("save") {
		cfg.Output.Save = f.save
	}
	if set("output") {
		cfg.Output.Dir = f.output
	}
	if set("db") {
		cfg.Store.Path = f.db
	}
	if set("enrich") {
		cfg.Enrich.Enabled = f.enrich
	}
	if set("ping") {
		cfg.Scan.PingFirst = f.ping
	}
	if set("rate") {
		cfg.Scan.RateLimit = f.rate
	}
	if set("verify-tls") {
		cfg.Scan.VerifyTLS = f.verifyTLS
	}
}

// mergePorts appends extra to base, keeping the first occurrence of each port.
func mergePorts(base, extra []int) []int {
	return lo.Uniq(append(append([]int(nil), base...), extra...))
}

func scanCommand(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a network for web management interfaces",
		Example: `  netscout scan                      # default network
  netscout scan -n 192.168.0.0/24    # specific network
  netscout scan -p 81,8088 --save    # extra ports, save reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			_, err := a.execute(cmd.Context(), a.cfg.ToScan(), scanOutput{
				save: a.cfg.Output.Save,
			})
			return err
		},
	}
	bindScanFlags(cmd, &f, true)
	return cmd
}

func investigateCommand(a *app) *cobra.Command {
	var (
		f     scanFlags
		extra []int
	)
	cmd := &cobra.Command{
		Use:   "investigate <ip>",
		Short: "Probe a single device on an extended port list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			ip := args[0]
			sc := a.cfg.ToScan()
			sc.Range = ip
			sc.Ports = mergePorts(investigatePorts, extra)

			name := fmt.Sprintf("device_investigation_%s_%s", ip, time.Now().Format("20060102_150405"))
			_, err := a.execute(cmd.Context(), sc, scanOutput{name: name, inspect: true})
			return err
		},
	}
	bindScanFlags(cmd, &f, false)
	cmd.Flags().IntSliceVarP(&extra, "ports", "p", nil, "Additional ports to investigate (comma-separated)")
	return cmd
}

func sweepCommand(a *app) *cobra.Command {
	var (
		f       scanFlags
		perScan time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sweep [network...]",
		Short: "Scan several networks one after another",
		Long: `sweep scans each network in turn and saves a report for every one of them.
Without arguments the common private /24 networks are scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			networks := args
			if len(networks) == 0 {
				networks = sweepNetworks
			}

			ctx := cmd.Context()
			for _, network := range networks {
				if ctx.Err() != nil {
					break
				}
				sc := a.cfg.ToScan()
				sc.Range = network
				sc.Ports = mergePorts(sc.Ports, sweepPorts)

				scanCtx, cancel := context.WithTimeout(ctx, perScan)
				_, err := a.execute(scanCtx, sc, scanOutput{save: true})
				cancel()
				if err != nil {
					a.logger.Error().Err(err).Str("network", network).Msg("scan failed")
				}
			}
			fmt.Fprintf(a.stdout, "\nSweep finished. Reports are in %s/\n", a.cfg.Output.Dir)
			return nil
		},
	}
	bindScanFlags(cmd, &f, false)
	cmd.Flags().DurationVar(&perScan, "per-network-timeout", 5*time.Minute, "Wall-clock limit for each network")
	return cmd
}

type scanOutput struct {
	save    bool
	name    string
	// inspect keeps headers and a body preview for every finding.
	inspect bool
}

// execute runs one scan and handles printing, reports, enrichment and the
// optional database.
func (a *app) execute(ctx context.Context, sc scan.Config, out scanOutput) (scan.Run, error) {
	sc = sc.WithDefaults()
	fmt.Fprintf(a.stdout, "[%s] Scanning network %s\n", time.Now().Format(time.TimeOnly), sc.Range)
	fmt.Fprintf(a.stdout, "[%s] Ports: %v\n", time.Now().Format(time.TimeOnly), sc.Ports)
	fmt.Fprintln(a.stdout, strings.Repeat("-", 80))

	scanner := scan.New(scan.Options{
		Logger:   &a.logger,
		OnResult: func(res scan.Result) { printResult(a.stdout, res) },
	})
	run, err := scanner.Run(ctx, sc)
	if err != nil {
		return run, err
	}
	printSummary(a.stdout, run)

	var hosts []enrich.HostInfo
	if a.cfg.Enrich.Enabled && len(run.Results) > 0 {
		e := enrich.New(enrich.Options{Timeout: a.cfg.EnrichTimeout(), Logger: &a.logger})
		hosts = e.Hosts(ctx, lo.Map(run.Results, func(r scan.Result, _ int) string { return r.IP }))
	}

	rep := report.New(sc.Range, run, hosts)
	if out.inspect {
		rep.Details = inspectResults(ctx, sc, run.Results)
	}
	if out.save || len(run.Results) > 0 {
		jsonPath, txtPath, err := report.Save(a.cfg.Output.Dir, out.name, rep)
		switch {
		case errors.Is(err, report.ErrNoResults):
			fmt.Fprintln(a.stdout, "No results to save")
		case err != nil:
			return run, err
		default:
			fmt.Fprintf(a.stdout, "\nResults saved to %s/:\n  JSON: %s\n  TXT:  %s\n", a.cfg.Output.Dir, jsonPath, txtPath)
		}
	}

	if a.cfg.Store.Path != "" {
		if err := a.store(ctx, sc.Range, run); err != nil {
			return run, err
		}
	}
	return run, nil
}

// inspectResults fetches every finding again, keeping the response headers and
// a preview of the body.
func inspectResults(ctx context.Context, sc scan.Config, results []scan.Result) []scan.Detail {
	var details []scan.Detail
	for _, res := range results {
		if ctx.Err() != nil {
			break
		}
		if d, ok := scan.Inspect(ctx, res.IP, res.Port, sc); ok {
			details = append(details, d)
		}
	}
	return details
}

func (a *app) store(ctx context.Context, network string, run scan.Run) error {
	db, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := db.SaveRun(ctx, network, run)
	if err != nil {
		return err
	}
	a.logger.Info().Uint("id", record.ID).Str("db", a.cfg.Store.Path).Msg("run stored")
	return nil
}

func statusLabel(code int) string {
	switch {
	case code == 200:
		return "[OK] "
	case code == 401 || code == 403:
		return "[LOCKED] "
	case code >= 400:
		return "[ERROR] "
	default:
		return "[INFO] "
	}
}

func printResult(w io.Writer, res scan.Result) {
	marker := ""
	if res.IsRouter {
		marker = "ROUTER! "
	}
	fmt.Fprintf(w, "%s%sFound web interface:\n", statusLabel(res.StatusCode), marker)
	fmt.Fprintf(w, "  IP:       %s\n", res.IP)
	fmt.Fprintf(w, "  Port:     %d\n", res.Port)
	fmt.Fprintf(w, "  URL:      %s\n", res.URL)
	fmt.Fprintf(w, "  Status:   %d\n", res.StatusCode)
	if res.Title != "" && res.Title != scan.NoTitle {
		fmt.Fprintf(w, "  Title:    %s\n", res.Title)
	}
	if res.Server != "" && res.Server != scan.UnknownServer {
		fmt.Fprintf(w, "  Server:   %s\n", res.Server)
	}
	fmt.Fprintf(w, "  Size:     %d chars\n", res.ContentLength)
	if res.ContentType != "" {
		fmt.Fprintf(w, "  Type:     %s\n", res.ContentType)
	}
	if res.DeviceType != scan.DeviceUnknown && res.DeviceType != "" {
		fmt.Fprintf(w, "  Device:   %s\n", res.DeviceType)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func printSummary(w io.Writer, run scan.Run) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	if run.Cancelled {
		fmt.Fprintln(w, "SCAN INTERRUPTED")
	} else {
		fmt.Fprintln(w, "SCAN COMPLETED")
	}
	fmt.Fprintf(w, "Time elapsed: %.2f seconds\n", run.Finished.Sub(run.Started).Seconds())
	fmt.Fprintf(w, "Web interfaces found: %d\n", len(run.Results))

	if routers := run.Routers(); len(routers) > 0 {
		fmt.Fprintf(w, "\nPOSSIBLE ROUTERS/REPEATERS (%d):\n", len(routers))
		for _, r := range routers {
			fmt.Fprintf(w, "  %s:%d - %s (%s)\n", r.IP, r.Port, r.Title, r.URL)
		}
	}
}
