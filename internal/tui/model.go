// Package tui is the terminal reading view.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	readprogress "github.com/mrlokans/rustypages/internal/progress"
)

// sliderStep is how far one key press moves the slider.
const sliderStep = 0.05

// chromeLines is the height taken by the header, status, bar and help.
const chromeLines = 4

// Session is the open book the view drives. Implemented by reader.Controller.
type Session interface {
	Next() bool
	Prev() bool
	SliderDrag(percent float64) int
	SliderRelease(percent float64)
	Resize(width, height int)
	Scroll(fraction float64)
	Position() (readprogress.ReadingPosition, error)
	Text() string
}

// Model is the bubbletea model of the reading view.
type Model struct {
	session  Session
	title    string
	theme    Theme
	viewport viewport.Model
	bar      progress.Model

	page       int
	total      int
	percent    float64
	generation readprogress.GenerationState
	text       string

	dragging bool
	drag     float64
	preview  int

	width    int
	quitting bool
}

func NewModel(session Session, title string, theme Theme) Model {
	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}

	m := Model{
		session:  session,
		title:    title,
		theme:    theme,
		viewport: vp,
		bar:      progress.New(progress.WithSolidFill(string(theme.Bar)), progress.WithoutPercentage()),
		page:     1,
		total:    1,
		width:    80,
	}
	m.sync()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeLines)
		m.bar.Width = max(10, msg.Width-2*m.theme.Margin)
		m.session.Resize(msg.Width, msg.Height)
		m.text = ""
		m.refresh()
		return m, nil

	case pageMsg:
		m.page, m.total = msg.page, msg.total
		if pos, err := m.session.Position(); err == nil {
			m.generation = pos.Generation
		}
		m.refresh()
		return m, nil

	case percentMsg:
		m.percent = float64(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "right", "l", "n", " ":
			m.cancelDrag()
			m.session.Next()
			return m, nil

		case "left", "h", "p":
			m.cancelDrag()
			m.session.Prev()
			return m, nil

		case "]":
			m.moveSlider(sliderStep)
			return m, nil

		case "[":
			m.moveSlider(-sliderStep)
			return m, nil

		case "enter":
			if m.dragging {
				m.dragging = false
				m.session.SliderRelease(m.drag)
			}
			return m, nil

		case "esc":
			m.cancelDrag()
			return m, nil

		case "g", "home":
			m.cancelDrag()
			m.session.SliderRelease(0)
			return m, nil

		case "G", "end":
			m.cancelDrag()
			m.session.SliderRelease(1)
			return m, nil
		}

		before := m.viewport.YOffset
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		if m.viewport.YOffset != before {
			m.session.Scroll(m.viewport.ScrollPercent())
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveSlider(delta float64) {
	base := m.percent
	if m.dragging {
		base = m.drag
	}
	m.dragging = true
	m.drag = math.Max(0, math.Min(1, base+delta))
	m.preview = m.session.SliderDrag(m.drag)
}

// cancelDrag drops a slider preview and restores the displayed page.
func (m *Model) cancelDrag() {
	if !m.dragging {
		return
	}
	m.dragging = false
	m.sync()
}

// sync reads the tracker position directly, for the first frame and after
// a cancelled preview.
func (m *Model) sync() {
	pos, err := m.session.Position()
	if err != nil {
		return
	}
	m.page, m.total = pos.PageIndex, pos.TotalUnits
	m.percent = pos.Percent
	m.generation = pos.Generation
}

// refresh reloads the unit text. The scroll offset is kept unless the text
// changed.
func (m *Model) refresh() {
	text := m.session.Text()
	if text == m.text {
		return
	}
	m.text = text
	m.viewport.SetContent(m.theme.Text.Width(max(1, m.viewport.Width)).Render(text))
	m.viewport.GotoTop()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Padding(0, m.theme.Margin).Render(m.bar.ViewAs(m.shownPercent())))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("←/→ page  [/] slider  enter jump  j/k scroll  g/G start/end  q quit"))
	return b.String()
}

func (m Model) shownPercent() float64 {
	if m.dragging {
		return m.drag
	}
	return m.percent
}

func (m Model) status() string {
	if m.dragging {
		return m.theme.Status.Render(fmt.Sprintf("Go to page %d of %d (%d%%), enter to jump, esc to cancel",
			m.preview, m.total, int(math.Round(m.drag*100))))
	}

	line := fmt.Sprintf("Page %d of %d  %d%%", m.page, m.total, int(math.Round(m.percent*100)))
	if m.generation == readprogress.GenerationInProgress {
		line += "  indexing"
	}
	return m.theme.Status.Render(line)
}
