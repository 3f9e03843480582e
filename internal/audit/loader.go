package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobradar/internal/model"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// errCancelled is returned when the user aborts a fetch with ctrl+c.
var errCancelled = errors.New("cancelled")

// FetchFunc fetches one organization's postings. Like model.Fetcher it may
// return partial postings alongside an error.
type FetchFunc func(ctx context.Context) ([]model.Posting, error)

type fetchDoneMsg struct {
	postings []model.Posting
	err      error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	orgName string
	fetchFn FetchFunc
	timeout time.Duration
	frame   int
	result  []model.Posting
	err     error
	done    bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doFetch(), m.tick())
}

func (m loaderModel) doFetch() tea.Cmd {
	fetchFn, timeout := m.fetchFn, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		postings, err := fetchFn(ctx)
		return fetchDoneMsg{postings: postings, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.result = msg.postings
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Fetching postings from %s...\n", spinner, m.orgName)
}

// RunLoader shows a spinner while fetchFn runs, bounded by timeout. It
// renders inline (no alt screen). Partial postings are returned with the
// fetch error.
func RunLoader(orgName string, timeout time.Duration, fetchFn FetchFunc) ([]model.Posting, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	m := loaderModel{
		orgName: orgName,
		fetchFn: fetchFn,
		timeout: timeout,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
