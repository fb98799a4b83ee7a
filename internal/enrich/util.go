package enrich

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// uniqueStrings trims each name and its trailing root dot, then returns the
// distinct non-empty names sorted.
func uniqueStrings(values []string) []string {
	names := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSuffix(strings.TrimSpace(v), ".")
		return v, v != ""
	})
	if len(names) == 0 {
		return nil
	}
	names = lo.Uniq(names)
	slices.Sort(names)
	return names
}

// normaliseMAC returns raw as upper-case colon-separated octets, or "" if it
// is not a MAC address.
func normaliseMAC(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ToUpper(strings.ReplaceAll(raw, "-", ":"))
	match := macPattern.FindString(raw)
	if match == "" {
		return ""
	}
	parts := strings.Split(match, ":")
	if len(parts) != 6 {
		return ""
	}
	for i := range parts {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, ":")
}

// CompareIP orders addresses numerically, falling back to string order for
// anything that does not parse.
func CompareIP(a, b string) int {
	ax, errA := netip.ParseAddr(a)
	bx, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ax.Compare(bx)
}
