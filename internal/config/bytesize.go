package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a byte count that unmarshals from human-readable strings like
// "10GB" or "512MB", or from raw integer byte counts.
//
// Implements encoding.TextUnmarshaler for Viper/YAML support.
type ByteSize int64

const (
	kb = int64(1) << 10
	mb = int64(1) << 20
	gb = int64(1) << 30
	tb = int64(1) << 40
)

var byteUnits = []struct {
	suffix string
	factor int64
}{
	{"TB", tb},
	{"GB", gb},
	{"MB", mb},
	{"KB", kb},
	{"B", 1},
}

// ParseByteSize parses a human-readable size string. The unit suffix is
// case-insensitive and optional; a bare number is a byte count.
func ParseByteSize(s string) (ByteSize, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	for _, u := range byteUnits {
		if !strings.HasSuffix(upper, u.suffix) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		return ByteSize(f * float64(u.factor)), nil
	}
	n, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bytes returns the size in bytes as int64.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}

// String returns a human-readable representation using the largest unit the
// value reaches, e.g. "10GB" or "1.5MB".
func (b ByteSize) String() string {
	v := int64(b)
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	for _, u := range byteUnits {
		if v < u.factor && u.factor != 1 {
			continue
		}
		f := float64(v) / float64(u.factor)
		if f == float64(int64(f)) {
			return fmt.Sprintf("%s%d%s", neg, int64(f), u.suffix)
		}
		return fmt.Sprintf("%s%.1f%s", neg, f, u.suffix)
	}
	return fmt.Sprintf("%s%dB", neg, v)
}
