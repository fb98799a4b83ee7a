package scan

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures a Scanner. The zero value is usable and silent.
type Options struct {
	// Logger receives debug and progress events. Defaults to zerolog.Nop().
	Logger *zerolog.Logger
	// Prober replaces the network prober, mainly for tests.
	Prober Prober
	// OnResult is called once per finding. Calls are serialized.
	OnResult func(Result)
	// OnProgress is called roughly every 10% of addresses and once at the end.
	OnProgress func(Progress)
}

// Scanner runs web management interface scans over IPv4 ranges.
type Scanner struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Scanner{opts: opts, logger: logger}
}

// ScanNetwork runs a scan with default options.
func ScanNetwork(ctx context.Context, cfg Config) (Run, error) {
	return New(Options{}).Run(ctx, cfg)
}

// run holds the shared state of one scan.
type run struct {
	mu       sync.Mutex
	results  []Result
	progress Progress
	step     int
}

// Run scans every usable host of cfg.Range. Only configuration errors are
// returned; failures while probing an address yield no results for it. If
// ctx is cancelled no further addresses are dispatched and the partial Run
// is returned with Cancelled set.
func (s *Scanner) Run(ctx context.Context, cfg Config) (Run, error) {
	cfg = cfg.WithDefaults()
	out := Run{Config: cfg, Results: []Result{}, Started: time.Now().UTC()}

	hosts, err := parseRange(cfg.Range)
	if err != nil {
		out.Finished = time.Now().UTC()
		return out, err
	}
	if err := cfg.Validate(); err != nil {
		out.Finished = time.Now().UTC()
		return out, err
	}

	prober := s.opts.Prober
	if prober == nil {
		prober = NewProber(cfg, s.logger)
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	state := &run{
		progress: Progress{Total: hosts.count},
		step:     max(1, hosts.count/10),
	}

	s.logger.Info().
		Str("range", hosts.prefix.String()).
		Int("hosts", hosts.count).
		Ints("ports", cfg.Ports).
		Int("concurrency", cfg.Concurrency).
		Msg("scan started")

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(cfg.Concurrency, func(arg any) {
		addr := arg.(netip.Addr)
		defer wg.Done()
		defer s.complete(state)
		s.scanHost(ctx, cfg, prober, limiter, state, addr)
	}, ants.WithPanicHandler(func(p any) {
		s.logger.Warn().Interface("panic", p).Msg("address scan failed")
	}))
	if err != nil {
		return out, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	for addr := range hosts.All() {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(addr); err != nil {
			wg.Done()
			s.logger.Warn().Err(err).Str("ip", addr.String()).Msg("dispatch failed")
		}
	}
	wg.Wait()

	state.mu.Lock()
	out.Results = append(out.Results, state.results...)
	out.Progress = state.progress
	state.mu.Unlock()
	out.Cancelled = ctx.Err() != nil
	out.Finished = time.Now().UTC()

	s.logger.Info().
		Int("found", len(out.Results)).
		Int("routers", len(out.Routers())).
		Bool("cancelled", out.Cancelled).
		Dur("elapsed", out.Finished.Sub(out.Started)).
		Msg("scan finished")
	return out, nil
}

func (s *Scanner) scanHost(ctx context.Context, cfg Config, prober Prober, limiter *rate.Limiter, state *run, addr netip.Addr) {
	host := addr.String()

	if cfg.PingFirst {
		alive, err := pingFunc(ctx, host, cfg.Timeout)
		if err != nil {
			s.logger.Debug().Err(err).Str("ip", host).Msg("ping unavailable, probing anyway")
		} else if !alive {
			return
		}
	}

	var open []int
	for _, port := range cfg.Ports {
		if ctx.Err() != nil {
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		if prober.CheckPort(ctx, host, port) {
			open = append(open, port)
		}
	}

	for _, port := range open {
		res, ok := prober.CheckWebService(ctx, host, port)
		if !ok {
			continue
		}
		s.logger.Debug().Str("url", res.URL).Str("title", res.Title).Str("device", string(res.DeviceType)).Msg("found service")
		s.record(state, res)
	}
}

func (s *Scanner) record(state *run, res Result) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.results = append(state.results, res)
	state.progress.Found++
	if s.opts.OnResult != nil {
		s.opts.OnResult(res)
	}
}

func (s *Scanner) complete(state *run) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.progress.Completed++
	p := state.progress
	if p.Completed%state.step != 0 && p.Completed != p.Total {
		return
	}
	s.logger.Info().
		Int("completed", p.Completed).
		Int("total", p.Total).
		Int("found", p.Found).
		Msgf("progress %.0f%%", p.Percent())
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(p)
	}
}
