package scan

import (
	"iter"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// hostRange is the set of usable host addresses of an IPv4 network.
type hostRange struct {
	prefix netip.Prefix
	first  netip.Addr
	last   netip.Addr
	count  int
}

// parseRange accepts CIDR notation or a bare IPv4 address. Host bits are
// masked off, so 192.168.1.7/24 means 192.168.1.0/24.
func parseRange(target string) (hostRange, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return hostRange{}, &InvalidRangeError{Range: target, Err: errEmptyRange}
	}

	var prefix netip.Prefix
	if strings.Contains(target, "/") {
		p, err := netip.ParsePrefix(target)
		if err != nil {
			return hostRange{}, &InvalidRangeError{Range: target, Err: err}
		}
		prefix = p
	} else {
		addr, err := netip.ParseAddr(target)
		if err != nil {
			return hostRange{}, &InvalidRangeError{Range: target, Err: err}
		}
		prefix = netip.PrefixFrom(addr, addr.BitLen())
	}
	if !prefix.Addr().Is4() {
		return hostRange{}, &InvalidRangeError{Range: target, Err: ErrIPv6Unsupported}
	}

	prefix = prefix.Masked()
	r := netipx.RangeOfPrefix(prefix)
	hr := hostRange{prefix: prefix, first: r.From(), last: r.To()}

	// /31 and /32 have no network or broadcast address to exclude.
	bits := prefix.Bits()
	hr.count = 1 << (32 - bits)
	if bits < 31 {
		hr.first = hr.first.Next()
		hr.last = hr.last.Prev()
		hr.count -= 2
	}
	return hr, nil
}

// All yields every usable host address in ascending order.
func (h hostRange) All() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		if h.count <= 0 {
			return
		}
		for addr := h.first; ; addr = addr.Next() {
			if !yield(addr) {
				return
			}
			if addr == h.last {
				return
			}
		}
	}
}

// ExpandHosts returns the usable host addresses of target as strings.
func ExpandHosts(target string) ([]string, error) {
	hr, err := parseRange(target)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, hr.count)
	for addr := range hr.All() {
		out = append(out, addr.String())
	}
	return out, nil
}
