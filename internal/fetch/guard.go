package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrPrivateAddress is returned when a public-only fetcher is pointed at a
// loopback, private or link-local address
var ErrPrivateAddress = errors.New("refusing to fetch a non-public address")

// sharedAddressSpace is carrier-grade NAT, not covered by netip's IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// isPublicAddr reports whether addr is routable on the public internet
func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		sharedAddressSpace.Contains(addr):
		return false
	}
	return true
}

// publicOnlyControl runs after DNS resolution, so redirects and hostnames
// that resolve to internal addresses are refused too
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

// restrictToPublic installs the dial guard on client's transport.
// A proxy on a private address is refused as well.
func restrictToPublic(client *http.Client) {
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		return
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnlyControl,
	}
	transport.DialContext = dialer.DialContext
}

// checkHost rejects literal internal targets before any request is made
func checkHost(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}
