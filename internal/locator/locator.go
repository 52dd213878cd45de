package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// ErrInvalidDirectory is returned when the log directory does not exist or is
// not a directory.
var ErrInvalidDirectory = errors.New("invalid log directory")

// filenameRe matches rotated UI access logs: nginx-access-ui.log-YYYYMMDD.(gz|log).
var filenameRe = regexp.MustCompile(`^nginx-access-ui\.log-(\d{8})\.(gz|log)$`)

const dateLayout = "20060102"

// Compression is the storage kind of a log file, inferred from its extension.
type Compression int

const (
	CompressionUnknown Compression = iota
	Plain
	Gzip
)

func (c Compression) String() string {
	switch c {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Handle identifies a selected log file.
type Handle struct {
	Path        string
	Date        time.Time
	Compression Compression
}

// Locate returns the most recent log in dir. The boolean is false when dir
// holds no valid log names.
//
// Entries are compared by embedded date; among entries sharing the greatest
// date the lexicographically greatest filename wins, so a .log beats a .gz.
func Locate(dir string) (Handle, bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Handle{}, false, fmt.Errorf("%w: %s: %w", ErrInvalidDirectory, dir, err)
	}
	if !info.IsDir() {
		return Handle{}, false, fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Handle{}, false, fmt.Errorf("%w: %s: %w", ErrInvalidDirectory, dir, err)
	}

	var (
		best     Handle
		bestName string
		found    bool
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		h, ok := parseName(e.Name())
		if !ok {
			continue
		}
		if !found || h.Date.After(best.Date) || (h.Date.Equal(best.Date) && e.Name() > bestName) {
			best, bestName, found = h, e.Name(), true
		}
	}
	if !found {
		return Handle{}, false, nil
	}

	abs, err := filepath.Abs(filepath.Join(dir, bestName))
	if err != nil {
		return Handle{}, false, fmt.Errorf("resolve %s: %w", bestName, err)
	}
	best.Path = abs
	return best, true, nil
}

// parseName reports whether name is a valid log filename and returns its
// date and compression. Path is left empty.
func parseName(name string) (Handle, bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return Handle{}, false
	}
	// time.Parse rejects out-of-range days and months such as 20190631.
	date, err := time.Parse(dateLayout, m[1])
	if err != nil {
		return Handle{}, false
	}
	c := Plain
	if m[2] == "gz" {
		c = Gzip
	}
	return Handle{Date: date, Compression: c}, true
}
