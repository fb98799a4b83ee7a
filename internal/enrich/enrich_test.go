package enrich

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
)

const sampleARP = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         8c:85:90:12:34:56     *        wlan0
192.168.1.20     0x1         0x0         00:00:00:00:00:00     *        wlan0
192.168.1.30     0x1         0x2         a4-5e-60-0a-0b-0c     *        eth0
`

func stubEnricher() (*Enricher, *atomic.Int64) {
	var calls atomic.Int64
	e := New(Options{})
	e.reverse = func(_ context.Context, host string) []string {
		calls.Add(1)
		if host == "192.168.1.1" {
			return []string{"router.lan"}
		}
		return nil
	}
	e.browse = func(context.Context) map[string][]string {
		return map[string][]string{"192.168.1.30": {"Office Printer"}}
	}
	e.mac = func(_ context.Context, host string) string {
		return macFromARPTable(sampleARP, host)
	}
	e.vendorOf = func(mac string) string {
		if strings.HasPrefix(mac, "8C:85:90") {
			return "Apple"
		}
		return "Unknown"
	}
	return e, &calls
}

func TestMacFromARPTable(t *testing.T) {
	if got := macFromARPTable(sampleARP, "192.168.1.1"); got != "8C:85:90:12:34:56" {
		t.Fatalf("unexpected mac %q", got)
	}
	if got := macFromARPTable(sampleARP, "192.168.1.30"); got != "A4:5E:60:0A:0B:0C" {
		t.Fatalf("unexpected mac %q", got)
	}
	if got := macFromARPTable(sampleARP, "192.168.1.20"); got != "" {
		t.Fatalf("expected incomplete entry to be skipped, got %q", got)
	}
	if got := macFromARPTable(sampleARP, "10.0.0.1"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestNormaliseMAC(t *testing.T) {
	if got := normaliseMAC("8c-85-90-12-34-56"); got != "8C:85:90:12:34:56" {
		t.Fatalf("unexpected mac %q", got)
	}
	if got := normaliseMAC("a:b:c:d:e:f"); got != "0A:0B:0C:0D:0E:0F" {
		t.Fatalf("expected zero padding, got %q", got)
	}
	if normaliseMAC("invalid") != "" {
		t.Fatalf("expected empty result for invalid mac")
	}
}

func TestUniqueStrings(t *testing.T) {
	result := uniqueStrings([]string{"host1.local.", "host2.local.", "host1.local.", " ", "host3.local."})
	if len(result) != 3 {
		t.Fatalf("expected 3 unique strings, got %d: %v", len(result), result)
	}
	for i, s := range result {
		if strings.HasSuffix(s, ".") {
			t.Fatalf("expected no trailing dots, got %s", s)
		}
		if i > 0 && result[i-1] >= s {
			t.Fatalf("expected sorted results, got %v", result)
		}
	}
}

func TestHostCombinesLookups(t *testing.T) {
	e, _ := stubEnricher()

	info := e.Host(context.Background(), "192.168.1.1")
	if info.DeviceName != "router.lan" || info.MACAddress != "8C:85:90:12:34:56" || info.Vendor != "Apple" {
		t.Fatalf("unexpected host info %+v", info)
	}

	info = e.Host(context.Background(), "192.168.1.30")
	if info.DeviceName != "Office Printer" || info.Vendor != "Unknown" {
		t.Fatalf("expected mDNS name to win, got %+v", info)
	}

	info = e.Host(context.Background(), "192.168.1.99")
	if info.DeviceName != "" || info.MACAddress != "" || info.Vendor != "" {
		t.Fatalf("expected empty annotations, got %+v", info)
	}
}

func TestHostIsCached(t *testing.T) {
	e, calls := stubEnricher()
	for range 3 {
		e.Host(context.Background(), "192.168.1.1")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single reverse lookup, got %d", got)
	}
}

func TestHostsDeduplicatesAndSorts(t *testing.T) {
	e, calls := stubEnricher()
	hosts := e.Hosts(context.Background(), []string{"192.168.1.30", "192.168.1.1", "192.168.1.30", "192.168.1.10"})
	if len(hosts) != 3 {
		t.Fatalf("expected 3 hosts, got %v", hosts)
	}
	want := []string{"192.168.1.1", "192.168.1.10", "192.168.1.30"}
	for i, h := range hosts {
		if h.IP != want[i] {
			t.Fatalf("host %d: expected %s, got %s", i, want[i], h.IP)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected one lookup per distinct host, got %d", got)
	}
}

func TestSelectDeviceName(t *testing.T) {
	if got := selectDeviceName([]string{"mdns"}, []string{"dns"}); got != "mdns" {
		t.Fatalf("expected mdns name first, got %q", got)
	}
	if got := selectDeviceName(nil, []string{"dns"}); got != "dns" {
		t.Fatalf("expected dns fallback, got %q", got)
	}
	if got := selectDeviceName(nil, nil); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}

func TestCompareIP(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"192.168.1.2", "192.168.1.10", -1},
		{"10.0.0.1", "9.255.255.255", 1},
		{"10.0.0.1", "10.0.0.1", 0},
		{"host-b", "host-a", 1},
	}
	for _, tc := range cases {
		if got := CompareIP(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s vs %s: expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}
