package scan

import (
	"errors"
	"testing"
)

func TestExpandHostsSingleIP(t *testing.T) {
	hosts, err := ExpandHosts("192.168.1.10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hosts) != 1 || hosts[0] != "192.168.1.10" {
		t.Fatalf("expected only the input address, got %v", hosts)
	}
}

func TestExpandHostsCIDR(t *testing.T) {
	hosts, err := ExpandHosts("10.0.0.0/30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"10.0.0.1", "10.0.0.2"}
	if len(hosts) != len(expected) {
		t.Fatalf("expected %d hosts, got %v", len(expected), hosts)
	}
	for i, host := range hosts {
		if host != expected[i] {
			t.Fatalf("host %d: expected %s, got %s", i, expected[i], host)
		}
	}
}

func TestExpandHostsPointToPoint(t *testing.T) {
	hosts, err := ExpandHosts("10.0.0.4/31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hosts) != 2 || hosts[0] != "10.0.0.4" || hosts[1] != "10.0.0.5" {
		t.Fatalf("expected both /31 addresses, got %v", hosts)
	}
}

func TestExpandHostsMasksHostBits(t *testing.T) {
	hosts, err := ExpandHosts(" 192.168.1.77/24 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hosts) != 254 {
		t.Fatalf("expected 254 hosts, got %d", len(hosts))
	}
	if hosts[0] != "192.168.1.1" || hosts[253] != "192.168.1.254" {
		t.Fatalf("unexpected bounds %s..%s", hosts[0], hosts[253])
	}
}

func TestExpandHostsInvalid(t *testing.T) {
	for _, target := range []string{"", "not-an-ip", "10.0.0.0/33", "300.1.1.1", "10.0.0/24"} {
		_, err := ExpandHosts(target)
		var rangeErr *InvalidRangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("%q: expected InvalidRangeError, got %v", target, err)
		}
	}

	_, err := ExpandHosts("fe80::/64")
	if !errors.Is(err, ErrIPv6Unsupported) {
		t.Fatalf("expected ErrIPv6Unsupported, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Range: "192.168.1.0/30"}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if err := (Config{Range: "10.0.0.1"}).Validate(); !errors.Is(err, ErrNoPorts) {
		t.Fatalf("expected ErrNoPorts, got %v", err)
	}

	bad := []Config{
		{Range: "", Ports: []int{80}},
		{Range: "10.0.0.1", Ports: []int{0}},
		{Range: "10.0.0.1", Ports: []int{70000}},
		{Range: "10.0.0.1", Ports: []int{80}, Timeout: -1},
		{Range: "10.0.0.1", Ports: []int{80}, Concurrency: -1},
		{Range: "10.0.0.1", Ports: []int{80}, RateLimit: -1},
	}
	for idx, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected validation error for config %d", idx)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Range: "10.0.0.1"}.WithDefaults()
	if len(cfg.Ports) != len(DefaultPorts) || cfg.Concurrency != 50 || cfg.Timeout.Seconds() != 2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UserAgent != DefaultUserAgent || cfg.MaxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	plain := Config{TLSPorts: []int{}}.WithDefaults()
	if len(plain.TLSPorts) != 0 {
		t.Fatalf("expected explicit empty TLS port list to be kept, got %v", plain.TLSPorts)
	}
}
