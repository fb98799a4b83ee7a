package enrich

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/endobit/oui"
)

var macPattern = regexp.MustCompile(`(?i)([0-9a-f]{1,2}[:-]){5}([0-9a-f]{1,2})`)

const procARP = "/proc/net/arp"

func lookupMACAddress(ctx context.Context, host string) string {
	if data, err := os.ReadFile(procARP); err == nil {
		if mac := macFromARPTable(string(data), host); mac != "" {
			return mac
		}
	}
	return lookupMACViaARPCommand(ctx, host)
}

// macFromARPTable finds host in the contents of /proc/net/arp. Incomplete
// entries carry an all-zero address and are skipped.
func macFromARPTable(table, host string) string {
	scanner := bufio.NewScanner(strings.NewReader(table))
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != host {
			continue
		}
		if mac := normaliseMAC(fields[3]); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}
	return ""
}

// arpArgs asks arp for a single neighbour without name resolution.
func arpArgs(host string) []string {
	if runtime.GOOS == "windows" {
		return []string{"-a", host}
	}
	return []string{"-n", host}
}

func lookupMACViaARPCommand(ctx context.Context, host string) string {
	out, err := exec.CommandContext(ctx, "arp", arpArgs(host)...).Output()
	if err != nil {
		return ""
	}
	return normaliseMAC(string(out))
}

// lookupManufacturer resolves the OUI prefix of mac. Addresses missing from
// the registry read as "Unknown".
func lookupManufacturer(mac string) string {
	if mac == "" {
		return ""
	}
	vendor := oui.Vendor(strings.ToLower(mac))
	if vendor == "" {
		vendor = "Unknown"
	}
	return vendor
}
