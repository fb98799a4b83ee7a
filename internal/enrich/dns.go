package enrich

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const mdnsBrowseTimeout = 2 * time.Second

// Service types commonly announced by routers, storage boxes, cameras and
// printers.
var mdnsServiceTypes = []string{
	"_services._dns-sd._udp",
	"_http._tcp",
	"_https._tcp",
	"_workstation._tcp",
	"_device-info._tcp",
	"_smb._tcp",
	"_afpovertcp._tcp",
	"_printer._tcp",
	"_ipp._tcp",
	"_pdl-datastream._tcp",
	"_rtsp._tcp",
	"_airplay._tcp",
	"_googlecast._tcp",
}

func lookupHostnames(ctx context.Context, host string) []string {
	// The cgo resolver also reads /etc/hosts and the system DNS configuration.
	resolver := &net.Resolver{PreferGo: false}

	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	names, err := resolver.LookupAddr(lookupCtx, host)
	if err != nil {
		// PTR records are usually missing on home networks.
		return nil
	}
	return uniqueStrings(names)
}

// browseMDNS listens for service announcements on the local link and returns
// the instance and host names seen per IPv4 address.
func browseMDNS(ctx context.Context) map[string][]string {
	ctx, cancel := context.WithTimeout(ctx, mdnsBrowseTimeout)
	defer cancel()

	var (
		mu    sync.Mutex
		names = make(map[string][]string)
	)
	add := func(entry *zeroconf.ServiceEntry) {
		mu.Lock()
		defer mu.Unlock()
		for _, ip := range entry.AddrIPv4 {
			key := ip.String()
			if entry.Instance != "" {
				names[key] = append(names[key], entry.Instance)
			}
			if entry.HostName != "" {
				names[key] = append(names[key], entry.HostName)
			}
		}
	}

	var wg sync.WaitGroup
	for _, serviceType := range mdnsServiceTypes {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil
		}
		// Browse closes the channel once ctx expires.
		entries := make(chan *zeroconf.ServiceEntry, 16)
		if err := resolver.Browse(ctx, serviceType, "local.", entries); err != nil {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case entry, ok := <-entries:
					if !ok {
						return
					}
					add(entry)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for ip, list := range names {
		names[ip] = uniqueStrings(list)
	}
	return names
}
