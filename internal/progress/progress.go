package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"static-gallery/internal/logging"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Unknown is passed to New when the number of steps is not known up front.
const Unknown = -1

const (
	minWidth = 20
	maxWidth = 60
)

// Interactive reports whether progress bars should be drawn: stderr is a
// terminal and the user did not ask for plain output.
func Interactive(nonInteractive bool) bool {
	if nonInteractive {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Bar is a progress bar on stderr. While it is shown, log lines are routed
// through it so they do not tear the bar. A disabled Bar does nothing.
type Bar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	out io.Writer
}

// New starts a bar with total steps, or a spinner when total is Unknown.
// When enabled is false the returned Bar is inert.
func New(total int, description string, enabled bool) *Bar {
	if !enabled {
		return &Bar{}
	}

	b := &Bar{out: os.Stderr}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(barWidth()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("it"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
	logging.SetOutput(&logWriter{bar: b})
	return b
}

// barWidth sizes the bar to a third of the terminal.
func barWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		return maxWidth
	}
	return min(max(width/3, minWidth), maxWidth)
}

// Step advances the bar by one and shows detail next to it.
func (b *Bar) Step(detail string) {
	if b == nil || b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if detail != "" {
		b.bar.Describe(detail)
	}
	_ = b.bar.Add(1)
}

// Finish clears the bar and gives the log back its plain output.
func (b *Bar) Finish() {
	if b == nil || b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_ = b.bar.Clear()
	b.bar = nil
	logging.SetOutput(b.out)
}

// logWriter clears the bar line before each log write. The next Step redraws it.
type logWriter struct {
	bar *Bar
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.bar.mu.Lock()
	defer w.bar.mu.Unlock()
	if w.bar.bar != nil {
		_ = w.bar.bar.Clear()
	}
	return w.bar.out.Write(p)
}
