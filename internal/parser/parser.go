package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"

	"github.com/loganalyzer/internal/locator"
)

// lineRe matches the nginx-ui access log format:
// $remote_addr $remote_user $http_x_real_ip [$time_local] "$request" $status
// $body_bytes_sent "$http_referer" "$http_user_agent" "$http_x_forwarded_for"
// "$http_X_REQUEST_ID" "$http_X_RB_USER" $request_time
var lineRe = regexp.MustCompile(`^.+\[.+\] "(.+)" \d{3}.+ (\d+\.\d+)$`)

// ParseLine parses a single line with its terminator already removed.
func ParseLine(line string) (Record, error) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, ErrMalformedLine
	}

	parts := strings.Fields(m[1])
	if len(parts) != 3 {
		return Record{}, ErrMalformedRequest
	}

	t, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: request time %q", ErrMalformedLine, m[2])
	}

	return Record{URL: parts[1], Time: t}, nil
}

// Reader is a single-pass, forward-only sequence of parsed lines. Use it like
// bufio.Scanner:
//
//	for r.Scan() {
//		rec, ok := r.Record()
//		...
//	}
//	if err := r.Err(); err != nil { ... }
type Reader struct {
	br      *bufio.Reader
	source  string
	closers []io.Closer

	lineNum int
	rec     Record
	ok      bool
	err     error
	done    bool
}

// NewReader returns a Reader over already decompressed log bytes. source is
// used in error messages only.
func NewReader(r io.Reader, source string) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024), source: source}
}

// OpenOption customizes Open.
type OpenOption func(*openConfig)

type openConfig struct {
	wrapRaw func(r io.Reader, size int64) io.Reader
}

// WithRawReader wraps the raw file stream before decompression. size is the
// file size in bytes.
func WithRawReader(wrap func(r io.Reader, size int64) io.Reader) OpenOption {
	return func(c *openConfig) { c.wrapRaw = wrap }
}

// Open opens the file described by h. The caller must Close the Reader.
func Open(h locator.Handle, opts ...OpenOption) (*Reader, error) {
	var cfg openConfig
	for _, o := range opts {
		o(&cfg)
	}

	if h.Compression != locator.Plain && h.Compression != locator.Gzip {
		return nil, fmt.Errorf("%w: %s (%v)", ErrUnsupportedCompression, h.Path, h.Compression)
	}

	f, err := os.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotOpen, err)
	}

	var raw io.Reader = f
	if cfg.wrapRaw != nil {
		var size int64
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		raw = cfg.wrapRaw(f, size)
	}

	if h.Compression == locator.Plain {
		r := NewReader(raw, h.Path)
		r.closers = []io.Closer{f}
		return r, nil
	}

	zr, err := gzip.NewReader(raw)
	if errors.Is(err, io.EOF) {
		// A zero-length .gz file has no header and holds no lines.
		r := NewReader(bytes.NewReader(nil), h.Path)
		r.closers = []io.Closer{f}
		return r, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrCannotOpen, h.Path, err)
	}
	r := NewReader(zr, h.Path)
	r.closers = []io.Closer{zr, f}
	return r, nil
}

// Scan advances to the next line. It returns false at end of input or on a
// file-level fault, after which Err reports the fault.
func (r *Reader) Scan() bool {
	if r.done {
		return false
	}

	line, err := r.br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		r.fail(fmt.Errorf("%w: %s: %w", ErrCannotOpen, r.source, err))
		return false
	}
	if len(line) == 0 {
		r.done = true
		return false
	}
	if err != nil {
		// Last line without a terminator; the next call reports EOF.
		r.done = true
	}

	r.lineNum++
	line = bytes.TrimSuffix(line, []byte{'\n'})
	if !utf8.Valid(line) {
		r.fail(fmt.Errorf("%w: %s line %d", ErrDecode, r.source, r.lineNum))
		return false
	}

	rec, perr := ParseLine(string(line))
	r.rec, r.ok = rec, perr == nil
	return true
}

func (r *Reader) fail(err error) {
	r.err = err
	r.done = true
	r.rec, r.ok = Record{}, false
}

// Record returns the record parsed by the last Scan. ok is false when the
// line was invalid.
func (r *Reader) Record() (Record, bool) {
	return r.rec, r.ok
}

// Line returns the 1-based number of the last scanned line.
func (r *Reader) Line() int {
	return r.lineNum
}

// Err returns the first file-level fault encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
