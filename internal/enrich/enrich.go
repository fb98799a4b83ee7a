// Package enrich annotates discovered hosts with names and hardware details
// gathered from reverse DNS, mDNS and the local ARP table.
package enrich

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// HostInfo holds the annotations collected for one address.
type HostInfo struct {
	IP         string   `json:"ip"`
	DeviceName string   `json:"device_name,omitempty"`
	Hostnames  []string `json:"hostnames,omitempty"`
	MDNSNames  []string `json:"mdns_names,omitempty"`
	MACAddress string   `json:"mac_address,omitempty"`
	Vendor     string   `json:"vendor,omitempty"`
}

// Options configures an Enricher.
type Options struct {
	// Timeout bounds all lookups for one host. Defaults to 4s.
	Timeout time.Duration
	// CacheSize is the number of hosts kept. Defaults to 1024.
	CacheSize int
	// CacheTTL is how long an entry stays valid. Defaults to 10 minutes.
	CacheTTL time.Duration
	// Workers bounds how many hosts are looked up at once. Defaults to 8.
	Workers int
	Logger  *zerolog.Logger
}

// Enricher looks up host annotations and caches them per address.
type Enricher struct {
	timeout time.Duration
	workers int
	logger  zerolog.Logger
	cache   *expirable.LRU[string, HostInfo]

	reverse  func(ctx context.Context, host string) []string
	browse   func(ctx context.Context) map[string][]string
	mac      func(ctx context.Context, host string) string
	vendorOf func(mac string) string

	mdnsOnce  sync.Once
	mdnsIndex map[string][]string
}

// New creates an Enricher backed by the system resolver, multicast DNS and
// the ARP table.
func New(opts Options) *Enricher {
	if opts.Timeout <= 0 {
		opts.Timeout = 4 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Enricher{
		timeout:  opts.Timeout,
		workers:  opts.Workers,
		logger:   logger,
		cache:    expirable.NewLRU[string, HostInfo](opts.CacheSize, nil, opts.CacheTTL),
		reverse:  lookupHostnames,
		browse:   browseMDNS,
		mac:      lookupMACAddress,
		vendorOf: lookupManufacturer,
	}
}

// Host returns the annotations for ip. Individual lookup failures leave the
// corresponding fields empty.
func (e *Enricher) Host(ctx context.Context, ip string) HostInfo {
	if info, ok := e.cache.Get(ip); ok {
		return info
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	info := HostInfo{IP: ip}
	g, gctx := errgroup.WithContext(lookupCtx)
	g.Go(func() error {
		info.Hostnames = e.reverse(gctx, ip)
		return nil
	})
	g.Go(func() error {
		info.MACAddress = e.mac(gctx, ip)
		return nil
	})
	g.Go(func() error {
		info.MDNSNames = e.mdnsNames(gctx, ip)
		return nil
	})
	_ = g.Wait()

	if info.MACAddress != "" {
		info.Vendor = e.vendorOf(info.MACAddress)
	}
	info.DeviceName = selectDeviceName(info.MDNSNames, info.Hostnames)

	if ctx.Err() == nil {
		e.cache.Add(ip, info)
	}
	e.logger.Debug().
		Str("ip", ip).
		Str("name", info.DeviceName).
		Str("mac", info.MACAddress).
		Str("vendor", info.Vendor).
		Msg("host enriched")
	return info
}

// Hosts enriches every distinct address in ips and returns the results
// sorted by address.
func (e *Enricher) Hosts(ctx context.Context, ips []string) []HostInfo {
	distinct := lo.Uniq(ips)
	out := make([]HostInfo, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, ip := range distinct {
		g.Go(func() error {
			out[i] = e.Host(gctx, ip)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(out, func(a, b HostInfo) int {
		return CompareIP(a.IP, b.IP)
	})
	return out
}

// mdnsNames browses the link once per Enricher and answers from the index.
func (e *Enricher) mdnsNames(ctx context.Context, ip string) []string {
	e.mdnsOnce.Do(func() {
		e.mdnsIndex = e.browse(ctx)
	})
	return e.mdnsIndex[ip]
}

func selectDeviceName(mdns, hostnames []string) string {
	if len(mdns) > 0 {
		return mdns[0]
	}
	if len(hostnames) > 0 {
		return hostnames[0]
	}
	return ""
}
