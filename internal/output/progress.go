package output

import (
	"io"
	"path/filepath"

	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

// Progress renders a byte progress bar for reading one file.
type Progress struct {
	p    *mpb.Progress
	bar  *mpb.Bar
	w    io.Writer
	name string
}

// NewProgress creates a progress bar writing to w. Call Wrap before reading
// and Done when finished.
func NewProgress(w io.Writer, path string) *Progress {
	return &Progress{w: w, name: filepath.Base(path)}
}

// Wrap matches parser.WithRawReader. It starts the bar sized to the raw file.
func (pr *Progress) Wrap(r io.Reader, size int64) io.Reader {
	pr.p = mpb.New(mpb.WithOutput(pr.w), mpb.WithWidth(40))
	pr.bar = pr.p.AddBar(size,
		mpb.PrependDecorators(
			decor.Name(pr.name, decor.WC{W: len(pr.name) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return pr.bar.ProxyReader(r)
}

// Done completes the bar, or aborts it when ok is false, and waits for the
// final render. It is a no-op if Wrap was never called.
func (pr *Progress) Done(ok bool) {
	if pr.p == nil {
		return
	}
	if ok {
		pr.bar.SetTotal(-1, true)
	} else {
		pr.bar.Abort(false)
	}
	pr.p.Wait()
}
