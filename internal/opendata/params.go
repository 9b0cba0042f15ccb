package opendata

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// ParseLimit reads an optional page size. Integral numbers, however written,
// are clamped to [1, 50]; blanks and junk fall back to the default.
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	switch {
	case err == nil:
		return clampLimit(float64(n))
	case errors.Is(err, strconv.ErrRange):
		if strings.HasPrefix(raw, "-") {
			return 1
		}
		return maxLimit
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return defaultLimit
	}
	if (err == nil && math.IsInf(f, 0)) || math.IsNaN(f) || f != math.Trunc(f) {
		return defaultLimit
	}
	return clampLimit(f)
}

func clampLimit(f float64) int {
	if f < 1 {
		return 1
	}
	if f > maxLimit {
		return maxLimit
	}
	return int(f)
}
