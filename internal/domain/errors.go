package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEnvelope is wrapped by MalformedFeedError when the document
// parses but its root is neither FireDangerMap nor rss>channel>FireDangerMap.
var ErrUnsupportedEnvelope = errors.New("unsupported feed envelope")

// TransportError reports a failed feed fetch: network failure, non-2xx
// status, timeout, or a truncated body.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedFeedError reports a payload that could not be parsed into one of
// the supported envelopes.
type MalformedFeedError struct {
	Err error
}

func (e *MalformedFeedError) Error() string {
	return fmt.Sprintf("malformed feed: %v", e.Err)
}

func (e *MalformedFeedError) Unwrap() error { return e.Err }

// ConversionError reports a district field whose raw value does not fit its
// conversion, e.g. a non-numeric RegionNumber.
type ConversionError struct {
	Field string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
