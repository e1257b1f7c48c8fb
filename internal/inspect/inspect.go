// Package inspect is a read-only terminal browser for one view. It lists the
// entities of the view with the query each timeline resolves to and lets the
// user move the cursor to watch relative ranges follow it.
package inspect

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

const (
	defaultCursorStep = 1
	fastStepFactor    = 10
	columnGap         = 2
)

// ErrNoView is returned by Run when the view does not exist in the snapshot.
var ErrNoView = errors.New("inspect: view not found")

// Config controls inspector behavior.
type Config struct {
	ViewID string

	// Timelines shown as columns. Timelines configured in the view are added.
	Timelines []string

	// TimelineKind decides how the cursor is rendered.
	TimelineKind models.TimelineKind

	// Entities listed besides the ones carrying overrides.
	Entities []models.EntityPath

	Cursor     models.TimeInt
	CursorStep int64
	Theme      string
	ShowSource bool
}

// Run starts the inspector on a snapshot.
func Run(snap *blueprint.Snapshot, cfg Config) error {
	m, err := newModel(snap, cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

type row struct {
	entity models.EntityPath
	label  string
}

type model struct {
	snap      *blueprint.Snapshot
	view      models.View
	timeline  models.Timeline
	timelines []string
	rows      []row

	cursor     models.TimeInt
	step       int64
	selected   int
	showSource bool
	styles     styleSet

	width  int
	height int
}

func newModel(snap *blueprint.Snapshot, cfg Config) (model, error) {
	view, ok := snap.View(cfg.ViewID)
	if !ok {
		return model{}, fmt.Errorf("%w: %s", ErrNoView, cfg.ViewID)
	}

	step := cfg.CursorStep
	if step <= 0 {
		step = defaultCursorStep
	}

	timelines := mergeTimelines(cfg.Timelines, snap.Timelines(view.ID))

	rows := []row{{entity: "", label: "(other entities)"}}
	seen := map[models.EntityPath]bool{}
	for _, entity := range append(append([]models.EntityPath{}, cfg.Entities...), snap.Entities(view.ID)...) {
		if entity == "" || seen[entity] {
			continue
		}
		seen[entity] = true
		rows = append(rows, row{entity: entity, label: string(entity)})
	}

	kind := cfg.TimelineKind
	if kind == "" {
		kind = models.TimelineKindSequence
	}

	return model{
		snap:       snap,
		view:       view,
		timeline:   models.Timeline{Kind: kind},
		timelines:  timelines,
		rows:       rows,
		cursor:     cfg.Cursor,
		step:       step,
		showSource: cfg.ShowSource,
		styles:     stylesFor(cfg.Theme),
	}, nil
}

func mergeTimelines(first, rest []string) []string {
	out := make([]string, 0, len(first)+len(rest))
	seen := map[string]bool{}
	for _, list := range [][]string{first, rest} {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.cursor = resolve.SaturatingAdd(m.cursor, models.TimeInt(-m.step))
		case "right", "l":
			m.cursor = resolve.SaturatingAdd(m.cursor, models.TimeInt(m.step))
		case "shift+left", "H":
			m.cursor = resolve.SaturatingAdd(m.cursor, models.TimeInt(-m.step*fastStepFactor))
		case "shift+right", "L":
			m.cursor = resolve.SaturatingAdd(m.cursor, models.TimeInt(m.step*fastStepFactor))
		case "0":
			m.cursor = 0
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case "s":
			m.showSource = !m.showSource
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("visrange inspect  %s (%s)", m.view.DisplayName(), m.view.Class)
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("cursor %s  step %d  snapshot v%d", m.timeline.FormatTime(m.cursor), m.step, m.snap.Version())))
	b.WriteString("\n\n")

	if len(m.timelines) == 0 {
		b.WriteString(m.styles.Muted.Render("No timelines. Configure a range or pass --timeline."))
		b.WriteString("\n\n")
		b.WriteString(m.helpLine())
		return b.String()
	}

	header := append([]string{"ENTITY"}, m.timelines...)
	cells := make([][]string, len(m.rows))
	kinds := make([][]resolve.QueryMode, len(m.rows))
	for i, r := range m.rows {
		cells[i] = []string{r.label}
		kinds[i] = make([]resolve.QueryMode, len(m.timelines))
		for j, timeline := range m.timelines {
			mode, err := m.snap.QueryMode(m.view.ID, r.entity, timeline, m.cursor)
			if err != nil {
				cells[i] = append(cells[i], "error")
				continue
			}
			kinds[i][j] = mode
			cells[i] = append(cells[i], m.cellText(mode))
		}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range cells {
		for i, cell := range line {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	headerCells := make([]string, len(header))
	for i, h := range header {
		headerCells[i] = m.styles.Header.Render(pad(h, widths[i]))
	}
	b.WriteString(strings.Join(headerCells, strings.Repeat(" ", columnGap)))
	b.WriteString("\n")

	for i, line := range cells {
		rendered := make([]string, len(line))
		for j, cell := range line {
			text := pad(cell, widths[j])
			switch {
			case j == 0 && i == m.selected:
				rendered[j] = m.styles.Selected.Render(text)
			case j == 0:
				rendered[j] = text
			default:
				rendered[j] = m.modeStyle(kinds[i][j-1]).Render(text)
			}
		}
		b.WriteString(strings.Join(rendered, strings.Repeat(" ", columnGap)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m model) cellText(mode resolve.QueryMode) string {
	text := mode.String()
	if mode.IsEmpty() {
		text += " empty"
	}
	if m.showSource {
		text += " [" + string(mode.Source) + "]"
	}
	return text
}

func (m model) modeStyle(mode resolve.QueryMode) lipgloss.Style {
	switch {
	case mode.IsEmpty():
		return m.styles.Empty
	case mode.IsRange():
		return m.styles.Range
	case mode.Kind == resolve.QueryKindLatestAt:
		return m.styles.LatestAt
	default:
		return m.styles.Muted
	}
}

func (m model) helpLine() string {
	return m.styles.Muted.Render("←/→ move cursor  H/L ×10  0 reset  ↑/↓ select  s source  q quit")
}

func pad(text string, width int) string {
	if gap := width - lipgloss.Width(text); gap > 0 {
		return text + strings.Repeat(" ", gap)
	}
	return text
}
