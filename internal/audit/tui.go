package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const entryHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

type pane int

const (
	paneAll pane = iota
	paneMatched
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	matchMarkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rejectMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type auditModel struct {
	orgName       string
	ruleset       string
	fetchErr      error
	all           []Entry
	matched       []Entry
	leftViewport  viewport.Model
	rightViewport viewport.Model
	active        pane
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detail         Entry
	detailViewport viewport.Model

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.active = 1 - m.active
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView(), nil
	}

	// pgup/pgdn/home/end go to the active viewport.
	var cmd tea.Cmd
	if m.active == paneAll {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.Posting.ApplyURL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *auditModel) moveCursor(delta int) {
	if m.active == paneAll {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.all)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.matched)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.active == paneMatched {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	top := cursor * entryHeight
	bottom := top + entryHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() auditModel {
	entries, cursor := m.all, m.leftCursor
	if m.active == paneMatched {
		entries, cursor = m.matched, m.rightCursor
	}
	if len(entries) == 0 {
		return m
	}

	m.view = viewDetail
	m.detail = entries[cursor]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderEntries(m.all, m.leftCursor, m.active == paneAll))
	m.rightViewport.SetContent(renderEntries(m.matched, m.rightCursor, m.active == paneMatched))
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" %s: all postings (%d)", m.orgName, len(m.all))
	rightHeader := fmt.Sprintf(" Matched by %s (%d)", m.ruleset, len(m.matched))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.active == paneMatched {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	status := fmt.Sprintf(" %d total | %d matched | %d filtered out", len(m.all), len(m.matched), len(m.all)-len(m.matched))
	if m.fetchErr != nil {
		status += warnStyle.Render("  (partial: fetch failed)")
	}
	status += "    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(status)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	p := m.detail.Posting
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Organization", p.Organization)
	addField("Location", p.Location)
	addField("Posted", p.PostedAt)
	addField("Provider", p.Provider)
	addField("Posting ID", p.ID)
	b.WriteByte('\n')
	addField("Apply URL", p.ApplyURL)
	b.WriteByte('\n')

	if m.detail.Matched {
		addField("Verdict", matchMarkStyle.Render("✓ matched"))
	} else {
		addField("Verdict", rejectMarkStyle.Render("✗ "+m.detail.Reason))
	}

	if m.fetchErr != nil {
		b.WriteByte('\n')
		b.WriteString(warnStyle.Render("⚠ partial results: "+m.fetchErr.Error()) + "\n")
	}
	return b.String()
}

func renderEntries(entries []Entry, cursor int, isActive bool) string {
	if len(entries) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, e := range entries {
		titleSt, subtitleSt, prefix := titleStyle, subtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		mark := matchMarkStyle.Render("✓ ")
		if !e.Matched {
			mark = rejectMarkStyle.Render("✗ ")
		}

		b.WriteString(prefix)
		b.WriteString(mark)
		b.WriteString(titleSt.Render(e.Posting.Title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(subtitle(e)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// subtitle is the second line of a list item: location, date and, for
// rejected postings, the rejection reason.
func subtitle(e Entry) string {
	loc := e.Posting.Location
	if loc == "" {
		loc = "n/a"
	}
	posted := e.Posting.PostedDate()
	if posted == "" {
		posted = "n/a"
	}
	s := loc + " · " + posted
	if !e.Matched {
		s += " · " + e.Reason
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the split-pane audit view for one organization.
// fetchErr, when non-nil, marks the postings as partial.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunAuditTUI(orgName, ruleset string, all, matched []Entry, fetchErr error) (bool, error) {
	m := auditModel{
		orgName:  orgName,
		ruleset:  ruleset,
		fetchErr: fetchErr,
		all:      all,
		matched:  matched,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
