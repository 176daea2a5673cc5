package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dirscan/pkg/dirscan/logging"
	"github.com/jamesainslie/dirscan/pkg/dirscan/output"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
	"github.com/mattn/go-isatty"
)

// progressInterval limits how often the plain progress line is redrawn.
const progressInterval = 100 * time.Millisecond

// progressDisplay shows scan counters while a scan runs. Update is called
// on the scan worker. Stop may be called more than once.
type progressDisplay interface {
	Update(stats types.ScanStats)
	Stop()
}

// newProgressDisplay returns a spinner when w is a terminal and a plain
// status line otherwise.
func newProgressDisplay(w io.Writer, root string) progressDisplay {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return newSpinnerDisplay(w, root)
	}
	return newProgressLine(w, progressInterval)
}

// progressMsg carries the latest counters into the scan model.
type progressMsg types.ScanStats

// scanDoneMsg ends the scan model.
type scanDoneMsg struct{}

// scanModel renders a one-line spinner with the running counters.
type scanModel struct {
	spinner spinner.Model
	root    string
	stats   types.ScanStats
	start   time.Time
	done    bool
}

func newScanModel(root string) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(output.ColorPrimary)

	return scanModel{
		spinner: s,
		root:    root,
		start:   time.Now(),
	}
}

// Init starts the spinner.
func (m scanModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and spinner ticks.
func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.stats = types.ScanStats(msg)
		return m, nil

	case scanDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the status line. It is empty once the scan is done so the
// line is erased when the program exits.
func (m scanModel) View() string {
	if m.done {
		return ""
	}

	counts := fmt.Sprintf("%s dirs, %s files",
		humanize.Comma(m.stats.DirsScanned),
		humanize.Comma(m.stats.FilesScanned))

	return fmt.Sprintf("%s Scanning %s  %s  %s  %s",
		m.spinner.View(),
		output.PathStyle.Render(m.root),
		output.SizeStyle.Render(types.FormatSize(m.stats.BytesScanned)),
		output.MutedStyle.Render(counts),
		output.MutedStyle.Render(time.Since(m.start).Round(time.Second).String()))
}

// spinnerDisplay runs scanModel as a bubbletea program. Input and signal
// handling are left to the caller so Ctrl-C reaches the scan command.
type spinnerDisplay struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

func newSpinnerDisplay(w io.Writer, root string) *spinnerDisplay {
	d := &spinnerDisplay{
		program: tea.NewProgram(newScanModel(root),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}

	go func() {
		defer close(d.done)
		if _, err := d.program.Run(); err != nil {
			logging.Get("cli").Debug("progress display stopped", "error", err)
		}
	}()

	return d
}

// Update forwards counters to the program.
func (d *spinnerDisplay) Update(stats types.ScanStats) {
	d.program.Send(progressMsg(stats))
}

// Stop ends the program and waits until the terminal is restored.
func (d *spinnerDisplay) Stop() {
	d.once.Do(func() {
		d.program.Send(scanDoneMsg{})
		<-d.done
	})
}

// progressLine redraws a single status line for output that is not a
// terminal. Update is called on the scan worker only, Stop after the worker
// has exited or from its finished callback.
type progressLine struct {
	w        io.Writer
	interval time.Duration
	last     time.Time
	width    int
}

func newProgressLine(w io.Writer, interval time.Duration) *progressLine {
	return &progressLine{w: w, interval: interval}
}

// Update redraws the line unless it was drawn less than interval ago.
func (p *progressLine) Update(stats types.ScanStats) {
	now := time.Now()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	text := fmt.Sprintf("Scanning: %s dirs, %s files, %s",
		humanize.Comma(stats.DirsScanned),
		humanize.Comma(stats.FilesScanned),
		types.FormatSize(stats.BytesScanned))

	pad := ""
	if n := p.width - len(text); n > 0 {
		pad = fmt.Sprintf("%*s", n, "")
	}
	p.width = len(text)

	fmt.Fprintf(p.w, "\r%s%s", text, pad)
}

// Stop erases the line if anything was drawn.
func (p *progressLine) Stop() {
	if p.width == 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%*s\r", p.width, "")
	p.width = 0
}
