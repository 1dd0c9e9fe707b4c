package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that additionally accepts day ("d") and week
// ("w") units when unmarshaling, e.g. "14d", "2w", or "1w2d12h". Cache
// retention windows are more naturally written in days than in hours.
//
// Implements encoding.TextUnmarshaler for Viper/YAML support.
type Duration time.Duration

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// ParseDuration parses a duration string, extending time.ParseDuration with
// "d" and "w" units. The week/day portion must precede the standard portion.
func ParseDuration(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	rest := trimmed
	for {
		i := strings.IndexAny(rest, "wd")
		if i < 0 {
			break
		}
		n, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		unit := day
		if rest[i] == 'w' {
			unit = week
		}
		total += time.Duration(n * float64(unit))
		rest = rest[i+1:]
	}
	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total += d
	}
	return Duration(total), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String renders whole weeks and days before falling back to the standard
// duration format for the remainder.
func (d Duration) String() string {
	v := time.Duration(d)
	if v == 0 {
		return "0s"
	}

	var sb strings.Builder
	if v < 0 {
		sb.WriteByte('-')
		v = -v
	}
	if w := v / week; w > 0 {
		fmt.Fprintf(&sb, "%dw", w)
		v -= w * week
	}
	if dd := v / day; dd > 0 {
		fmt.Fprintf(&sb, "%dd", dd)
		v -= dd * day
	}
	if v > 0 {
		sb.WriteString(v.String())
	}
	return sb.String()
}
