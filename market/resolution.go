package market

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidResolution is returned for resolution tokens outside the
// accepted spellings.
var ErrInvalidResolution = errors.New("invalid resolution")

// Resolution is a canonical candle resolution code. Intraday codes are
// minute counts; D, W and M are daily, weekly and monthly. The
// canonical code is the cache key for historical data, so every
// spelling of one resolution must normalize before any cache access.
type Resolution string

const (
	Min1   Resolution = "1"
	Min5   Resolution = "5"
	Min15  Resolution = "15"
	Min30  Resolution = "30"
	Min60  Resolution = "60"
	Min120 Resolution = "120"
	Min240 Resolution = "240"
	Day    Resolution = "D"
	Week   Resolution = "W"
	Month  Resolution = "M"
)

// resolutionAliases maps accepted spellings to canonical codes.
// Case matters: "m" is month, "1m" is one minute.
var resolutionAliases = map[string]Resolution{
	"1": Min1, "1m": Min1,
	"5": Min5, "5m": Min5,
	"15": Min15, "15m": Min15,
	"30": Min30, "30m": Min30,
	"60": Min60, "1h": Min60, "60m": Min60,
	"120": Min120, "2h": Min120, "120m": Min120,
	"240": Min240, "4h": Min240, "240m": Min240,
	"D": Day, "d": Day, "1d": Day,
	"W": Week, "w": Week, "1w": Week,
	"M": Month, "m": Month, "1M": Month,
}

// NormalizeResolution maps a user-supplied resolution token to its
// canonical code.
func NormalizeResolution(token string) (Resolution, error) {
	if r, ok := resolutionAliases[token]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResolution, token)
}

// Duration returns the nominal width of one candle bucket. Months use
// 30 days; callers needing calendar-exact months should not rely on it.
func (r Resolution) Duration() time.Duration {
	switch r {
	case Min1:
		return time.Minute
	case Min5:
		return 5 * time.Minute
	case Min15:
		return 15 * time.Minute
	case Min30:
		return 30 * time.Minute
	case Min60:
		return time.Hour
	case Min120:
		return 2 * time.Hour
	case Min240:
		return 4 * time.Hour
	case Day:
		return 24 * time.Hour
	case Week:
		return 7 * 24 * time.Hour
	case Month:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

func (r Resolution) String() string { return string(r) }
