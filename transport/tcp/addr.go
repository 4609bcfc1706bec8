// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// WildcardHost binds every local interface.
const WildcardHost = "*"

const mappedPrefix = "::ffff:"

// NormalizeHost strips the IPv4-mapped IPv6 prefix so a peer connecting
// over IPv4 to a dual-stack socket is recorded as a plain IPv4 address.
func NormalizeHost(host string) string {
	if len(host) > len(mappedPrefix) && strings.EqualFold(host[:len(mappedPrefix)], mappedPrefix) {
		return host[len(mappedPrefix):]
	}
	return host
}

// HostPort joins a bind address and port for log and error messages.
func HostPort(bindTo string, port int) string {
	return fmt.Sprintf("%s:%d", bindTo, port)
}

// IsWildcard reports whether bindTo means "all interfaces".
func IsWildcard(bindTo string) bool {
	return bindTo == WildcardHost || bindTo == ""
}

// resolveBind turns a configured bind address into a concrete IP. Names are
// resolved once, taking the first answer.
func resolveBind(ctx context.Context, bindTo string) (netip.Addr, error) {
	host := strings.TrimSuffix(strings.TrimPrefix(bindTo, "["), "]")
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.Unmap(), nil
	}
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %q: %w", bindTo, err)
	}
	if len(ips) == 0 {
		return netip.Addr{}, fmt.Errorf("resolve %q: no addresses", bindTo)
	}
	return ips[0].Unmap(), nil
}
