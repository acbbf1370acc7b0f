// Package rangespec expands compact number selections such as "1,3,5-10".
package rangespec

import (
	"fmt"
	"strconv"
	"strings"

	"fuzzdesc/pkg/address"
)

// Parse expands s into an ordered list of distinct non-negative integers.
// Order follows first appearance in s. An empty selection yields an empty list.
func Parse(s string) ([]int, error) {
	var out []int
	seen := make(map[int]struct{})
	for _, tok := range tokens(s) {
		lo, hi, err := parseRange(tok)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

// ParseAddresses expands s into fuzz-target addresses. Plain numbers and
// ranges become whole-message addresses; "i.j" tokens address a sub-part.
// Ranges over dotted addresses are rejected.
func ParseAddresses(s string) ([]address.Address, error) {
	var out []address.Address
	seen := make(map[address.Address]struct{})
	add := func(a address.Address) {
		if _, dup := seen[a]; dup {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	for _, tok := range tokens(s) {
		if strings.Contains(tok, ".") {
			if strings.Contains(tok, "-") {
				return nil, fmt.Errorf("range over sub-part addresses not supported: %q", tok)
			}
			a, err := address.Parse(tok)
			if err != nil {
				return nil, err
			}
			add(a)
			continue
		}
		lo, hi, err := parseRange(tok)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			add(address.Whole(n))
		}
	}
	return out, nil
}

// JoinAddresses renders addrs as a comma separated selection.
func JoinAddresses(addrs []address.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func tokens(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func parseRange(tok string) (int, int, error) {
	loStr, hiStr, isRange := strings.Cut(tok, "-")
	lo, err := parseNumber(loStr, tok)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := parseNumber(hiStr, tok)
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("descending range %q", tok)
	}
	return lo, hi, nil
}

func parseNumber(s, tok string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number in %q: %w", tok, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative number in %q", tok)
	}
	return n, nil
}
