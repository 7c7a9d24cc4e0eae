package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/quartic/internal/dynamo"
)

type view int

const (
	viewCharts view = iota
	viewPhase
)

func (v view) String() string {
	if v == viewPhase {
		return "Phase"
	}
	return "Time series"
}

// Viewer is a read-only terminal view of a finished trajectory. It shows
// Position and Momentum against Time and, on tab, the (x, p) phase portrait.
type Viewer struct {
	title  string
	res    *dynamo.Result
	view   view
	cursor int

	width, height int
	frame         Frame
}

func NewViewer(title string, res *dynamo.Result) Viewer {
	return Viewer{
		title:  title,
		res:    res,
		width:  100,
		height: 32,
		frame:  FitFrame(res.Component(0), res.Component(1), 0.1),
	}
}

func (m Viewer) Init() tea.Cmd { return nil }

func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.view = (m.view + 1) % 2
		case "right", "l":
			m.moveCursor(m.stride())
		case "left", "h":
			m.moveCursor(-m.stride())
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = m.res.Len() - 1
		}
	}
	return m, nil
}

func (m Viewer) stride() int {
	return max(1, m.res.Len()/100)
}

func (m *Viewer) moveCursor(d int) {
	m.cursor = min(max(m.cursor+d, 0), max(m.res.Len()-1, 0))
}

func (m Viewer) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title) + "  ")
	for _, v := range []view{viewCharts, viewPhase} {
		if v == m.view {
			s.WriteString(activeTabStyle.Render(v.String()))
		} else {
			s.WriteString(tabStyle.Render(v.String()))
		}
	}
	s.WriteString("\n\n")

	if m.res.Len() == 0 {
		s.WriteString("no samples\n")
		return s.String()
	}

	switch m.view {
	case viewCharts:
		s.WriteString(graphStyle.Render(m.charts()))
	case viewPhase:
		s.WriteString(canvasStyle.Render(m.phase()))
	}
	s.WriteString("\n\n")

	x := m.res.States[m.cursor]
	s.WriteString(readout(
		"Time", fmt.Sprintf("%.4f", m.res.Times[m.cursor]),
		"Position", fmt.Sprintf("%+.6f", x[0]),
		"Momentum", fmt.Sprintf("%+.6f", x[1]),
		"Sample", fmt.Sprintf("%d/%d", m.cursor, m.res.Len()-1),
	))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("tab: switch view  ←/→: move cursor  q: quit"))
	return s.String()
}

func (m Viewer) charts() string {
	w := max(m.width-14, 20)
	h := max((m.height-14)/2, 4)
	return Charts(m.res, w, h)
}

func (m Viewer) phase() string {
	w := max(m.width-4, 20)
	h := max(m.height-10, 8)
	c := NewCanvas(w, h)
	c.Axes(m.frame)
	c.Polyline(m.frame, m.res.Component(0), m.res.Component(1))

	x := m.res.States[m.cursor]
	px, py := c.Project(m.frame, x[0], x[1])
	c.Dot(px, py, 1)

	label := lipgloss.NewStyle().Faint(true).Render("x →  p ↑")
	return strings.TrimSuffix(c.String(), "\n") + "\n" + label
}

// Show runs the viewer until the user closes it.
func Show(title string, res *dynamo.Result, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewViewer(title, res), opts...).Run()
	return err
}
