package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Size is a device size exactly as the listing source reported it: either a
// byte count or a preformatted string such as "931.5G".
type Size struct {
	bytes   int64
	text    string
	numeric bool
}

// SizeBytes returns a numeric Size
func SizeBytes(n int64) Size {
	return Size{bytes: n, numeric: true}
}

// SizeText returns a Size carrying the source's own text
func SizeText(s string) Size {
	return Size{text: s}
}

// Bytes returns the byte count when the source reported one
func (s Size) Bytes() (int64, bool) {
	return s.bytes, s.numeric
}

// IsZero reports whether no size was reported
func (s Size) IsZero() bool {
	return !s.numeric && s.text == ""
}

// String renders numeric sizes in IEC units and text sizes verbatim
func (s Size) String() string {
	if s.numeric {
		return humanize.IBytes(uint64(max(s.bytes, 0)))
	}
	return s.text
}

// MarshalJSON writes the size back in the form it was reported in
func (s Size) MarshalJSON() ([]byte, error) {
	switch {
	case s.numeric:
		return []byte(strconv.FormatInt(s.bytes, 10)), nil
	case s.text == "":
		return []byte("null"), nil
	default:
		return json.Marshal(s.text)
	}
}

// UnmarshalJSON accepts a number, a string or null
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Size{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = SizeText(text)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %s: %w", data, err)
	}
	*s = SizeBytes(n)
	return nil
}
