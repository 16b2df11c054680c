// Package urlguard vets URLs before the headless browser navigates to them.
// Both user-supplied import URLs and model-suggested discovery candidates
// pass through here, so a hostile or hallucinated URL cannot point the
// browser at loopback or RFC 1918 space.
package urlguard

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrPrivateAddress marks a URL whose host lands in private, loopback, or
// link-local space.
var ErrPrivateAddress = errors.New("urlguard: URL targets a private or loopback address")

// ErrUnsafeScheme marks a URL whose scheme the browser must not follow.
var ErrUnsafeScheme = errors.New("urlguard: only http and https schemes are allowed")

// Validate rejects rawURL unless it is an http/https URL whose host stays
// out of private address space. Hostnames are resolved, not just parsed:
// "intranet.corp" passes a syntax check but its A records do not.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("urlguard: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("urlguard: URL has no host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivate(ip) {
			return ErrPrivateAddress
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// Unresolvable hosts pass: the failure belongs to navigation, and a
		// transient DNS hiccup must not reject a legitimate external URL.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivate(ip) {
			return ErrPrivateAddress
		}
	}
	return nil
}

// isPrivate covers loopback, RFC 1918 / ULA, link-local, and the
// unspecified address.
func isPrivate(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
