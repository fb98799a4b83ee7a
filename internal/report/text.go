package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"netscout/internal/scan"
)

var (
	heavyRule   = strings.Repeat("=", 80)
	sectionRule = strings.Repeat("=", 50)
	entryRule   = strings.Repeat("-", 40)
)

// WriteText writes the human-readable report: a header, the routers, then
// every other device.
func WriteText(w io.Writer, rep Report) error {
	tw := &textWriter{w: w}

	scanTime := rep.ScanTime
	if t, err := time.Parse(time.RFC3339, rep.ScanTime); err == nil {
		scanTime = t.Format(timeLayout)
	}

	tw.printf("Network scan results: %s\n", rep.Network)
	tw.printf("Time: %s\n", scanTime)
	tw.printf("Interfaces found: %d\n", len(rep.Results))
	tw.printf("Routers/repeaters: %d\n", len(rep.Routers()))
	tw.printf("%s\n\n", heavyRule)

	tw.section("ROUTERS/REPEATERS", rep.Routers())
	tw.section("OTHER DEVICES", rep.Others())

	if len(rep.Hosts) > 0 {
		tw.printf("HOSTS:\n%s\n", sectionRule)
		for _, h := range rep.Hosts {
			tw.printf("%s", h.IP)
			if h.DeviceName != "" {
				tw.printf("  %s", h.DeviceName)
			}
			if h.MACAddress != "" {
				tw.printf("  %s", h.MACAddress)
			}
			if h.Vendor != "" {
				tw.printf(" (%s)", h.Vendor)
			}
			tw.printf("\n")
		}
	}

	if len(rep.Details) > 0 {
		tw.printf("\nRESPONSE HEADERS:\n%s\n", sectionRule)
		for _, d := range rep.Details {
			tw.printf("%s\n", d.URL)
			names := slices.Sorted(maps.Keys(d.Headers))
			for _, name := range names {
				tw.printf("  %s: %s\n", name, d.Headers[name])
			}
			tw.printf("%s\n", entryRule)
		}
	}
	return tw.err
}

// textWriter keeps the first write error so the formatting code stays flat.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) section(title string, results []scan.Result) {
	if len(results) == 0 {
		return
	}
	t.printf("%s:\n%s\n", title, sectionRule)
	for _, res := range results {
		t.printf("IP: %s:%d\n", res.IP, res.Port)
		t.printf("URL: %s\n", res.URL)
		t.printf("Status: %d\n", res.StatusCode)
		if res.Title != scan.NoTitle {
			t.printf("Title: %s\n", res.Title)
		}
		if res.Server != scan.UnknownServer {
			t.printf("Server: %s\n", res.Server)
		}
		t.printf("%s\n", entryRule)
	}
	t.printf("\n")
}
