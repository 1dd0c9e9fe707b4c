package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Duration wraps time.Duration so tape documents and API payloads can express
// durations either as Go duration strings ("4s", "750ms") or as plain numbers
// interpreted as seconds (4, 0.5). Stored in the database as nanoseconds.
type Duration time.Duration

// Seconds constructs a Duration from a floating-point second count.
func Seconds(s float64) Duration {
	return Duration(time.Duration(s * float64(time.Second)))
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Seconds returns the duration as floating-point seconds.
func (d Duration) Seconds() float64 {
	return time.Duration(d).Seconds()
}

// String returns the Go duration string form.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	return d.parse(string(text))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s: expected duration string or seconds", string(data))
	}
	*d = Seconds(secs)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalYAML accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := unmarshal(&secs); err != nil {
		return fmt.Errorf("invalid duration: expected duration string or seconds")
	}
	*d = Seconds(secs)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Value implements driver.Valuer for database storage as nanoseconds.
func (d Duration) Value() (driver.Value, error) {
	return int64(d), nil
}

// Scan implements sql.Scanner for database retrieval.
func (d *Duration) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = 0
	case int64:
		*d = Duration(v)
	case float64:
		*d = Duration(int64(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scanning duration: %w", err)
		}
		*d = Duration(n)
	default:
		return fmt.Errorf("unsupported type for Duration: %T", value)
	}
	return nil
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	// Bare numbers are seconds; anything else is a Go duration string.
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Seconds(secs)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}
