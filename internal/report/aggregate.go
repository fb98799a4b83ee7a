package report

import (
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"

	"netscout/internal/enrich"
	"netscout/internal/scan"
)

// PortSummary is one distinct service seen on a device.
type PortSummary struct {
	Port   int    `json:"port"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Server string `json:"server"`
}

// DeviceSummary merges everything known about one address across reports.
type DeviceSummary struct {
	IP        string        `json:"ip"`
	Network   string        `json:"network"`
	FirstSeen string        `json:"first_seen"`
	IsRouter  bool          `json:"is_router"`
	Titles    []string      `json:"titles,omitempty"`
	Ports     []PortSummary `json:"ports"`
}

// Aggregate merges reports by IP. The first report mentioning an address
// sets its network, first-seen time and router flag; identical port entries
// and placeholder titles are dropped. The result is sorted by address.
func Aggregate(reports []Report) []DeviceSummary {
	byIP := make(map[string]*DeviceSummary)
	for _, rep := range reports {
		for _, res := range rep.Results {
			dev, ok := byIP[res.IP]
			if !ok {
				dev = &DeviceSummary{
					IP:        res.IP,
					Network:   orUnknown(rep.Network),
					FirstSeen: orUnknown(rep.ScanTime),
					IsRouter:  res.IsRouter,
				}
				byIP[res.IP] = dev
			}

			port := PortSummary{
				Port:   res.Port,
				URL:    res.URL,
				Title:  res.Title,
				Status: res.StatusCode,
				Server: orUnknown(res.Server),
			}
			if !slices.Contains(dev.Ports, port) {
				dev.Ports = append(dev.Ports, port)
			}
			if res.Title != scan.NoTitle && !slices.Contains(dev.Titles, res.Title) {
				dev.Titles = append(dev.Titles, res.Title)
			}
		}
	}

	out := make([]DeviceSummary, 0, len(byIP))
	for _, dev := range byIP {
		out = append(out, *dev)
	}
	slices.SortFunc(out, func(a, b DeviceSummary) int {
		return enrich.CompareIP(a.IP, b.IP)
	})
	return out
}

// WriteSummary prints the aggregated device list followed by the devices
// that expose web services without looking like routers.
func WriteSummary(w io.Writer, devices []DeviceSummary) error {
	tw := &textWriter{w: w}
	rule := strings.Repeat("=", 70)

	routers := lo.CountBy(devices, func(d DeviceSummary) bool { return d.IsRouter })
	tw.printf("NETWORK SCAN SUMMARY\n%s\n\n", rule)
	tw.printf("Devices found: %d\n", len(devices))
	tw.printf("Routers: %d\n", routers)
	tw.printf("Other devices: %d\n\n", len(devices)-routers)

	for _, dev := range devices {
		kind := "DEVICE"
		if dev.IsRouter {
			kind = "ROUTER"
		}
		tw.printf("%s: %s\n", kind, dev.IP)
		tw.printf("  Network: %s\n", dev.Network)
		tw.printf("  First seen: %s\n", dev.FirstSeen)
		if len(dev.Titles) > 0 {
			tw.printf("  Titles: %s\n", strings.Join(dev.Titles, ", "))
		}
		tw.printf("  Open ports (%d):\n", len(dev.Ports))
		for _, p := range dev.Ports {
			mark := "locked"
			if p.Status == 200 {
				mark = "ok"
			}
			tw.printf("    [%s] %d - %s (%s)\n", mark, p.Port, p.URL, p.Title)
		}
		tw.printf("\n")
	}

	suspicious := lo.Filter(devices, func(d DeviceSummary, _ int) bool {
		return !d.IsRouter && len(d.Ports) > 0
	})
	if len(suspicious) > 0 {
		tw.printf("UNCLASSIFIED WEB INTERFACES (%d):\n%s\n", len(suspicious), rule)
		for _, dev := range suspicious {
			tw.printf("%s:\n", dev.IP)
			for _, p := range dev.Ports {
				tw.printf("  * %s - %s\n", p.URL, p.Title)
			}
		}
	}
	return tw.err
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
