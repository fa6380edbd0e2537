// Package ui renders the interactive progress view of "nullcheck check".
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"nullcheck/internal/driver"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// row is one assembly line of the view.
type row struct {
	path     string
	status   driver.Status
	stage    driver.Stage
	reported int
	elapsed  time.Duration
	err      string
}

func (r row) label() string {
	if r.status == driver.StatusWorking {
		return stageLabel(r.stage)
	}
	return string(r.status)
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []row
	byPath  map[string]int
	// global is the annotation-loading state shown next to the title.
	global string
	width  int
	closed bool
}

type eventMsg driver.Event

type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per assembly.
// The model quits when events is closed.
func NewProgressModel(title string, assemblies []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]row, len(assemblies)),
		byPath:  make(map[string]int, len(assemblies)),
		width:   80,
	}
	for i, asm := range assemblies {
		m.rows[i] = row{path: asm, status: driver.StatusQueued}
		m.byPath[asm] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

// next blocks on the event channel inside a command goroutine.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.closed {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bm, cmd := m.bar.Update(msg)
		m.bar = bm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.Assembly == "" {
		switch ev.Status {
		case driver.StatusWorking:
			m.global = stageLabel(ev.Stage)
		case driver.StatusError:
			m.global = "failed"
		default:
			m.global = ""
		}
		return nil
	}
	i, ok := m.byPath[ev.Assembly]
	if !ok {
		return nil
	}
	r := &m.rows[i]
	r.status, r.stage = ev.Status, ev.Stage
	r.reported = ev.Reported
	if ev.Elapsed > 0 {
		r.elapsed = ev.Elapsed
	}
	if ev.Err != nil {
		r.err = ev.Err.Error()
	}
	if len(m.rows) == 0 {
		return nil
	}
	return m.bar.SetPercent(float64(m.finished()) / float64(len(m.rows)))
}

func (m *progressModel) finished() int {
	n := 0
	for _, r := range m.rows {
		if r.status == driver.StatusDone || r.status == driver.StatusError {
			n++
		}
	}
	return n
}

func (m *progressModel) View() string {
	header := m.title
	if m.global != "" {
		header = fmt.Sprintf("%s (%s)", header, m.global)
	}
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth, countWidth = 20, 20
	nameWidth := max(m.width-statusWidth-countWidth-6, 20)
	total := 0
	for _, r := range m.rows {
		label := fmt.Sprintf("%*s", statusWidth, r.label())
		tail := ""
		switch r.status {
		case driver.StatusDone:
			total += r.reported
			tail = fmt.Sprintf("%d diags", r.reported)
			if r.elapsed > 0 {
				tail += faintStyle.Render(fmt.Sprintf(" %s", r.elapsed.Round(time.Millisecond)))
			}
		case driver.StatusError:
			tail = errorStyle.Render(truncate(r.err, countWidth))
		}
		fmt.Fprintf(&b, "  %s %s %s\n", styleFor(r.status).Render(label), padRight(truncate(r.path, nameWidth), nameWidth), tail)
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	fmt.Fprintf(&b, "\n%s\n", faintStyle.Render(fmt.Sprintf("%d/%d assemblies, %d diagnostics", m.finished(), len(m.rows), total)))
	return b.String()
}

func stageLabel(stage driver.Stage) string {
	switch stage {
	case driver.StageAnnotations:
		return "loading annotations"
	case driver.StageAnalyze:
		return "analyzing"
	default:
		return string(stage)
	}
}

func styleFor(status driver.Status) lipgloss.Style {
	switch status {
	case driver.StatusDone:
		return doneStyle
	case driver.StatusError:
		return errorStyle
	case driver.StatusWorking:
		return workingStyle
	default:
		return idleStyle
	}
}

func padRight(value string, width int) string {
	if pad := width - runewidth.StringWidth(value); pad > 0 {
		return value + strings.Repeat(" ", pad)
	}
	return value
}

// truncate keeps the tail, which is the informative part of a path.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return "..." + runewidth.TruncateLeft(value, runewidth.StringWidth(value)-(width-3), "")
}
