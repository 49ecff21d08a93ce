package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const barWidth = 30

// =============================================================================
// progressModel - bootstrap progress view
// =============================================================================

// replicateMsg reports finished replicates.
type replicateMsg struct{ done, total int }

// finishedMsg ends the view once the run returns.
type finishedMsg struct{}

type tickMsg time.Time

// progressModel shows a spinner while the tree is built and a bar while
// bootstrap replicates finish. Ctrl+C cancels the run through cancel.
type progressModel struct {
	label  string
	cancel context.CancelFunc
	start  time.Time

	frame       int
	done, total int
	canceled    bool
	finished    bool
}

func newProgressModel(label string, cancel context.CancelFunc) progressModel {
	return progressModel{label: label, cancel: cancel, start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m progressModel) Init() tea.Cmd {
	return tick()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case replicateMsg:
		// Workers report concurrently, so counts can arrive out of order.
		m.done, m.total = max(m.done, msg.done), msg.total
	case tickMsg:
		m.frame++
		return m, tick()
	case finishedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	frame := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	if m.canceled {
		return fmt.Sprintf("%s %s\n", frame, StyleDim.Render("canceling..."))
	}
	if m.total == 0 {
		return fmt.Sprintf("%s %s %s\n", frame, StyleDim.Render("building tree for"), StyleValue.Render(m.label))
	}
	return fmt.Sprintf("%s %s %s %s %s\n",
		frame,
		StyleDim.Render("bootstrap"),
		progressBar(m.done, m.total, barWidth),
		StyleNumber.Render(fmt.Sprintf("%d/%d", m.done, m.total)),
		StyleDim.Render(elapsed(time.Since(m.start))))
}

// =============================================================================
// Progress runners
// =============================================================================

// progressFunc is called with the number of finished replicates.
type progressFunc func(done, total int)

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// withProgress runs fn while showing its progress. On a terminal the
// bubbletea view draws to out and fn's context is canceled by Ctrl+C;
// otherwise progress is logged at debug level every tenth of the work.
func (c *CLI) withProgress(ctx context.Context, label string, interactive bool, out io.Writer, fn func(context.Context, progressFunc) error) error {
	if !interactive {
		logger := loggerFromContext(ctx)
		var (
			mu   sync.Mutex
			step int
		)
		return fn(ctx, func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if pct := done * 10 / total; pct > step {
				step = pct
				logger.Debug("bootstrap progress", "done", done, "total", total)
			}
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(label, cancel), tea.WithOutput(out))
	errc := make(chan error, 1)
	go func() {
		err := fn(ctx, func(done, total int) { p.Send(replicateMsg{done, total}) })
		errc <- err
		p.Send(finishedMsg{})
	}()

	final, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	err := <-errc
	if m, ok := final.(progressModel); ok && m.canceled && err != nil {
		return context.Canceled
	}
	if err == nil && runErr != nil {
		return runErr
	}
	return err
}
