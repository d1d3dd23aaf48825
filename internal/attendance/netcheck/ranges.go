// Package netcheck classifies the submitting network as VPN/proxy, trusted,
// or unknown, layering static range tables over an external reputation API.
package netcheck

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"
)

// DefaultCGNATRanges covers carrier-grade NAT space. Addresses in here are
// always treated as trusted mobile carriers, never VPN.
var DefaultCGNATRanges = []string{"100.64.0.0/10"}

// RangeTable is an immutable set of IP prefixes. Built once at construction;
// reloading means building a new table and a new classifier around it.
type RangeTable struct {
	prefixes []netip.Prefix
}

// NewRangeTable parses CIDR strings into a table. A single bad entry fails
// the whole load so a typo cannot silently shrink the table.
func NewRangeTable(cidrs []string) (RangeTable, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return RangeTable{}, fmt.Errorf("parse range %q: %w", c, err)
		}
		prefixes = append(prefixes, p)
	}
	return RangeTable{prefixes: prefixes}, nil
}

// Contains reports whether addr falls inside any prefix in the table.
func (t RangeTable) Contains(addr netip.Addr) bool {
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of prefixes loaded.
func (t RangeTable) Len() int {
	return len(t.prefixes)
}

// LoadRangesFile reads one CIDR per line; blank lines and #-comments are
// skipped. Used for the known-VPN prefix list.
func LoadRangesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ranges file: %w", err)
	}
	defer f.Close()

	var cidrs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cidrs = append(cidrs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ranges file: %w", err)
	}
	return cidrs, nil
}
