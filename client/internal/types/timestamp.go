package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayout is how the API serializes datetimes stored without a zone.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a server datetime. It decodes RFC 3339 values and offset-less
// ones, which are read as UTC. It encodes in the offset-less UTC form; the
// zero value encodes as null.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(naiveLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses s as RFC 3339 or, failing that, as an offset-less
// UTC datetime. An empty string yields the zero Timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: v}, nil
	}
	v, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp: cannot parse %q", s)
	}
	return Timestamp{Time: v}, nil
}
