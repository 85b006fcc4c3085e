package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a millisecond-precision UTC instant that encodes to JSON as
// unix milliseconds. It also accepts RFC 3339 strings and null on decode.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds and normalises it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Millisecond).UTC()}
}

// FromMillis builds a Timestamp from unix milliseconds.
func FromMillis(ms int64) Timestamp {
	return Timestamp{time.UnixMilli(ms).UTC()}
}

// Millis returns the unix millisecond value.
func (t Timestamp) Millis() int64 {
	return t.UnixMilli()
}

// MarshalJSON encodes the zero time as null and anything else as a number.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

// UnmarshalJSON decodes unix milliseconds, an RFC 3339 string or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*t = NewTimestamp(parsed)
		return nil
	}
	// Browsers write Date.now() values, which are integral but may be
	// rendered as floats by other encoders.
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = FromMillis(int64(f))
	return nil
}
