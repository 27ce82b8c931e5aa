// Package netguard builds HTTP clients that refuse to connect to private,
// loopback, link-local and other reserved addresses.
//
// Hostnames are resolved inside the dialer and every resolved address is
// checked before connecting, so a name that resolves to an internal address
// (including on a redirect) is refused.
package netguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrBlockedAddress is returned when a host resolves to a reserved address.
var ErrBlockedAddress = errors.New("address is in a private or reserved range")

var blockedCIDRs = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.0.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::/128",
	"::1/128",
	"64:ff9b::/96",
	"fc00::/7",
	"fe80::/10",
	"ff00::/8",
}

var blockedNetworks = func() []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blockedCIDRs))
	for _, cidr := range blockedCIDRs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("netguard: bad CIDR %q: %v", cidr, err))
		}
		nets = append(nets, n)
	}
	return nets
}()

// IsBlocked reports whether ip is in a private or reserved range.
// IPv4-mapped IPv6 addresses are checked as IPv4.
func IsBlocked(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, n := range blockedNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// MatchDomain reports whether host equals one of domains or is a subdomain of one.
func MatchDomain(host string, domains []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, domain := range domains {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Dialer connects only to public addresses. Hosts matching TrustedHosts
// skip the check.
type Dialer struct {
	TrustedHosts []string
	Resolver     Resolver // defaults to net.DefaultResolver

	dialer net.Dialer
}

// DialContext resolves addr, rejects reserved addresses and connects to
// the first allowed one.
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if MatchDomain(host, d.TrustedHosts) {
		return d.dialer.DialContext(ctx, network, addr)
	}

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolver := d.Resolver
		if resolver == nil {
			resolver = net.DefaultResolver
		}
		addrs, err := resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}
	for _, ip := range ips {
		if IsBlocked(ip) {
			return nil, fmt.Errorf("dial %s (%s): %w", host, ip, ErrBlockedAddress)
		}
	}
	return d.dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
}

// NewClient returns an HTTP client whose connections go through a Dialer.
// Proxies from the environment are ignored so the check cannot be bypassed.
func NewClient(timeout time.Duration, trustedHosts ...string) *http.Client {
	d := &Dialer{TrustedHosts: trustedHosts, dialer: net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 nil,
			DialContext:           d.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			return nil
		},
	}
}
