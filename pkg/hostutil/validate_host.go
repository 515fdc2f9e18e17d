// Package hostutil validates listen and dial addresses from configuration.
package hostutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"
)

// ValidateHost accepts an IPv4/IPv6 literal (IPv6 optionally bracketed) or an
// RFC 1123 hostname.
func ValidateHost(raw string) error {
	switch {
	case raw == "":
		return fmt.Errorf("empty host")
	case looksLikeIPv4(raw):
		if ip := net.ParseIP(raw); ip == nil || ip.To4() == nil {
			return fmt.Errorf("bad IP: '%s'", raw)
		}
	case looksLikeIPv6(raw):
		ip := net.ParseIP(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]"))
		if ip == nil || ip.To4() != nil {
			return fmt.Errorf("bad IPv6: '%s'", raw)
		}
	default:
		if !validHostname(raw) {
			return fmt.Errorf("bad hostname: '%s'", raw)
		}
	}
	return nil
}

// ValidateHostPort checks a "host:port" dial address such as a Redis address.
func ValidateHostPort(raw string) error {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return err
	}
	if err := ValidateHost(host); err != nil {
		return err
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("bad port: '%s'", port)
	}
	return nil
}

// looksLikeIPv4 checks if raw looks like a dotted quad.
func looksLikeIPv4(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func looksLikeIPv6(raw string) bool {
	return strings.Contains(raw, ":") || (strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]"))
}

// validHostname checks DNS label rules (RFC 1123).
func validHostname(raw string) bool {
	if len(raw) > 253 {
		return false
	}
	for _, label := range strings.Split(raw, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		for i, r := range label {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
				return false
			}
			if (i == 0 || i == len(label)-1) && r == '-' {
				return false
			}
		}
	}
	return true
}
