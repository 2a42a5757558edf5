package distribution

import (
	"fmt"
	"io"
	"sync"

	"gdrive-share/domain/distribution"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProgressReporter renders upload notifications. On a terminal it redraws a
// single status line; otherwise it prints one line per completed transfer.
type ProgressReporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	printer     *message.Printer

	fileName string
	size     int64
	drawn    bool
}

// NewProgressReporter creates a reporter writing to out
func NewProgressReporter(out io.Writer, interactive bool) *ProgressReporter {
	return &ProgressReporter{
		out:         out,
		interactive: interactive,
		printer:     message.NewPrinter(language.English),
	}
}

// BeginUpload resets the reporter for the next file
func (r *ProgressReporter) BeginUpload(fileName string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileName = fileName
	r.size = size
	r.drawn = false
}

// OnProgress handles a progress notification
func (r *ProgressReporter) OnProgress(p distribution.UploadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.interactive:
		fmt.Fprintf(r.out, "\r      %s", r.statusLine(p.BytesSent))
		r.drawn = true
		if p.Status == distribution.StatusCompleted {
			fmt.Fprintln(r.out)
			r.drawn = false
		}
	case p.Status == distribution.StatusCompleted:
		fmt.Fprintln(r.out, r.printer.Sprintf("      Sent %d bytes", p.BytesSent))
	}
}

// OnCompleted handles the upload completed notification
func (r *ProgressReporter) OnCompleted(c distribution.UploadCompleted) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drawn {
		fmt.Fprintln(r.out)
		r.drawn = false
	}
	fmt.Fprintf(r.out, "      Uploaded %s\n", c.FileName)
}

func (r *ProgressReporter) statusLine(sent int64) string {
	if r.size <= 0 {
		return fmt.Sprintf("%s: %s", r.fileName, humanize.IBytes(uint64(sent)))
	}
	pct := sent * 100 / r.size
	return fmt.Sprintf("%s: %s / %s (%d%%)", r.fileName,
		humanize.IBytes(uint64(sent)), humanize.IBytes(uint64(r.size)), pct)
}
