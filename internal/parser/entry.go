package parser

import "errors"

// Record is one successfully parsed log line.
type Record struct {
	URL string
	// Time is the request duration in seconds.
	Time float64
}

// Row-level errors. A line failing with one of these is counted as invalid and
// does not abort a pass.
var (
	ErrMalformedLine    = errors.New("line does not match log format")
	ErrMalformedRequest = errors.New("request field is not \"METHOD URL PROTOCOL\"")
)

// File-level errors. Any of these aborts the whole pass.
var (
	ErrUnsupportedCompression = errors.New("unsupported log compression")
	ErrCannotOpen             = errors.New("cannot read log file")
	ErrDecode                 = errors.New("invalid utf-8")
)
