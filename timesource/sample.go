package timesource

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/araddon/dateparse"
	"time"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrMalformedBody    = errors.New("malformed response body")
	ErrEmptyResponse    = errors.New("response array is empty")
	ErrNotAString       = errors.New("response element 0 is not a string")
	ErrUnparsableTime   = errors.New("unparsable timestamp")
)

// Sample is a single time reading returned by a time source. Raw is kept
// verbatim for display; Time is used to position the clock hands.
type Sample struct {
	Raw  string
	Time time.Time
}

// DecodeRaw extracts element 0 of a JSON array body as a string.
func DecodeRaw(body []byte) (string, error) {
	var elements []interface{}
	if err := json.Unmarshal(body, &elements); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(elements) == 0 {
		return "", ErrEmptyResponse
	}

	raw, ok := elements[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: got %v", ErrNotAString, elements[0])
	}
	return raw, nil
}

// ParseSample parses raw leniently. Timestamps without a zone are read in loc,
// and the result is converted to loc so that hands show loc's wall clock.
func ParseSample(raw string, loc *time.Location) (*Sample, error) {
	if loc == nil {
		loc = time.UTC
	}

	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnparsableTime, raw, err)
	}

	return &Sample{Raw: raw, Time: t.In(loc)}, nil
}

// Encode produces the body served by the time source: a JSON array holding a
// single timestamp string.
func Encode(raw string) ([]byte, error) {
	return json.Marshal([]string{raw})
}
