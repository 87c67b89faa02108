package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/netdraw/pkg/pipeline"
)

// Spinner styles.
var (
	styleSpinnerIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleSpinnerText = lipgloss.NewStyle().Faint(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// awaitWithSpinner blocks until the pipeline result arrives, animating a
// spinner on a TTY. On non-interactive output it just waits.
func awaitWithSpinner(ctx context.Context, message string, results <-chan pipeline.Async) pipeline.Async {
	if !isTerminal(os.Stderr) {
		select {
		case r := <-results:
			return r
		case <-ctx.Done():
			return pipeline.Async{Err: ctx.Err()}
		}
	}

	model := spinnerModel{message: message, results: results}
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr), tea.WithInput(nil))
	final, err := p.Run()
	if err != nil {
		// The spinner is cosmetic; fall back to a plain wait.
		select {
		case r := <-results:
			return r
		case <-ctx.Done():
			return pipeline.Async{Err: ctx.Err()}
		}
	}
	return final.(spinnerModel).async
}

type spinnerTickMsg struct{}

type spinnerDoneMsg pipeline.Async

// spinnerModel is the bubbletea model animating the wait for the layout
// engine.
type spinnerModel struct {
	message string
	frame   int
	results <-chan pipeline.Async
	async   pipeline.Async
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.wait())
}

func (m spinnerModel) tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return spinnerTickMsg{} })
}

func (m spinnerModel) wait() tea.Cmd {
	return func() tea.Msg { return spinnerDoneMsg(<-m.results) }
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTickMsg:
		m.frame++
		return m, m.tick()
	case spinnerDoneMsg:
		m.async = pipeline.Async(msg)
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.async = pipeline.Async{Err: context.Canceled}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.async.Result != nil || m.async.Err != nil {
		return ""
	}
	icon := spinnerFrames[m.frame%len(spinnerFrames)]
	return fmt.Sprintf("%s %s",
		styleSpinnerIcon.Render(icon), styleSpinnerText.Render(m.message))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
