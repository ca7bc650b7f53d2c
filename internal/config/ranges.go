package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterRange is an inclusive range of register addresses.
type RegisterRange struct {
	First, Last byte
}

// RegisterRanges is a list of register ranges.
type RegisterRanges []RegisterRange

// ParseRegisterRanges parses ranges like "0x1B-0x1D,0x6B,0x37-0x38".
// An empty string yields no ranges.
func ParseRegisterRanges(s string) (RegisterRanges, error) {
	var out RegisterRanges
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := parseRegister(lo)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parseRegister(hi); err != nil {
				return nil, err
			}
		}
		if last < first {
			return nil, fmt.Errorf("range %q is reversed", part)
		}
		out = append(out, RegisterRange{First: first, Last: last})
	}
	return out, nil
}

func parseRegister(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid register address %q: %w", s, err)
	}
	return byte(v), nil
}

// Contains reports whether addr is inside one of the ranges.
func (r RegisterRanges) Contains(addr byte) bool {
	for _, rr := range r {
		if addr >= rr.First && addr <= rr.Last {
			return true
		}
	}
	return false
}
