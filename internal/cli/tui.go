package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/worldmap/pkg/editor"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/override"
)

// Map styles
var (
	mapSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	mapNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	mapDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// Map glyphs
const (
	glyphNode    = "o"
	glyphLocked  = "#"
	glyphDirty   = "*"
	glyphStacked = "+"
	glyphEmpty   = "·"
	cellWidth    = 3
)

// =============================================================================
// mapModel - Interactive map editor
// =============================================================================

// relayoutMsg carries the outcome of a relayout request back to the model.
type relayoutMsg editor.Outcome

// savedMsg reports the end of a save.
type savedMsg struct{ err error }

// saveFunc persists the locked positions of the session.
type saveFunc func(context.Context, override.Snapshot) error

// mapModel is the bubbletea model of the terminal map editor. Every edit
// goes through the session; the model only tracks the selection and the
// status line.
type mapModel struct {
	ctx     context.Context
	session *editor.Session
	world   string
	save    saveFunc

	ids    []string
	cursor int
	stepX  float64
	stepY  float64

	pending   bool
	status    string
	statusErr bool
	unsaved   bool

	width  int
	height int
}

func newMapModel(ctx context.Context, s *editor.Session, world string, opts grid.Options, save saveFunc) mapModel {
	opts.SetDefaults()
	return mapModel{
		ctx:     ctx,
		session: s,
		world:   world,
		save:    save,
		ids:     s.Graph().IDs(),
		stepX:   opts.NodeWidth + opts.MarginX,
		stepY:   opts.NodeHeight + opts.MarginY,
		width:   80,
		height:  24,
	}
}

func (m mapModel) Init() tea.Cmd {
	return nil
}

func (m mapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case relayoutMsg:
		return m.applyOutcome(editor.Outcome(msg)), nil
	case savedMsg:
		if msg.err != nil {
			m.setError("save failed: %v", msg.err)
		} else {
			m.unsaved = false
			m.setStatus("saved %s", m.world)
		}
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m mapModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "n":
		if len(m.ids) > 0 {
			m.cursor = (m.cursor + 1) % len(m.ids)
		}
	case "shift+tab", "p":
		if len(m.ids) > 0 {
			m.cursor = (m.cursor - 1 + len(m.ids)) % len(m.ids)
		}
	case "up", "k":
		m.move(0, -1)
	case "down", "j":
		m.move(0, 1)
	case "left", "h":
		m.move(-1, 0)
	case "right", "l":
		m.move(1, 0)
	case " ":
		m.toggleLock()
	case "r":
		return m.relayout(m.session.Relayout(m.ctx), "relayout")
	case "c":
		m.unsaved = true
		return m.relayout(m.session.Clear(m.ctx), "clear")
	case "m":
		next := editor.ModeLayered
		if m.session.Mode() == editor.ModeLayered {
			next = editor.ModeGrid
		}
		m.session.SetMode(next)
		return m.relayout(m.session.Relayout(m.ctx), next.String()+" relayout")
	case "w":
		if m.save == nil {
			m.setError("no layout store configured")
			return m, nil
		}
		m.setStatus("saving...")
		return m, saveCmd(m.ctx, m.save, m.session.Snapshot())
	}
	return m, nil
}

func (m mapModel) selected() string {
	if len(m.ids) == 0 {
		return ""
	}
	return m.ids[m.cursor]
}

// move drags the selected node by whole grid cells.
func (m *mapModel) move(dx, dy int) {
	id := m.selected()
	n, ok := m.session.State().Node(id)
	if !ok {
		return
	}
	p := n.Position.Add(layout.Point{X: float64(dx) * m.stepX, Y: float64(dy) * m.stepY})
	if err := m.session.Drag(id, p); err != nil {
		m.setError("%v", err)
		return
	}
	m.unsaved = true
	m.setStatus("moved %s", id)
}

func (m *mapModel) toggleLock() {
	id := m.selected()
	var err error
	if m.session.State().IsLocked(id) {
		err = m.session.Unlock(id)
		m.setStatus("unlocked %s", id)
	} else {
		err = m.session.Lock(id)
		m.setStatus("locked %s", id)
	}
	if err != nil {
		m.setError("%v", err)
		return
	}
	m.unsaved = true
}

func (m mapModel) relayout(ch <-chan editor.Outcome, what string) (tea.Model, tea.Cmd) {
	m.pending = true
	m.setStatus("%s running...", what)
	return m, waitOutcome(ch)
}

// applyOutcome updates the status line. Outcomes of superseded requests
// are ignored.
func (m mapModel) applyOutcome(o editor.Outcome) mapModel {
	if o.Generation != m.session.Generation() {
		return m
	}
	m.pending = false
	switch {
	case o.Fallback:
		m.setError("%s engine failed, kept grid positions: %v", o.Engine, o.Err)
	case o.Applied:
		m.setStatus("laid out with %s", o.Engine)
	default:
		m.setStatus("relayout cancelled")
	}
	return m
}

func (m *mapModel) setStatus(format string, args ...any) {
	m.status, m.statusErr = fmt.Sprintf(format, args...), false
}

func (m *mapModel) setError(format string, args ...any) {
	m.status, m.statusErr = fmt.Sprintf(format, args...), true
}

func waitOutcome(ch <-chan editor.Outcome) tea.Cmd {
	return func() tea.Msg {
		return relayoutMsg(<-ch)
	}
}

func saveCmd(ctx context.Context, save saveFunc, snap override.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: save(ctx, snap)}
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (m mapModel) View() string {
	var b strings.Builder

	title := StyleTitle.Render(m.world)
	mode := StyleDim.Render(fmt.Sprintf("  %s · generation %d", m.session.Mode(), m.session.Generation()))
	if m.pending {
		mode += styleIconSpinner.Render("  working")
	}
	if m.unsaved {
		mode += StyleWarning.Render("  unsaved")
	}
	b.WriteString(title + mode + "\n\n")

	nodes := m.session.Nodes()
	b.WriteString(m.renderMap(nodes))
	b.WriteString("\n")
	b.WriteString(m.renderSelection(nodes))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(styleIconError.Render(iconError) + " " + m.status)
		} else {
			b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
		}
		b.WriteString("\n")
	}
	b.WriteString(mapDimStyle.Render("tab select  arrows/hjkl move  space lock  r relayout  m mode  c clear  w save  q quit"))
	return b.String()
}

type cell struct{ col, row int }

func (m mapModel) cellOf(p layout.Point) cell {
	return cell{col: int(math.Round(p.X / m.stepX)), row: int(math.Round(p.Y / m.stepY))}
}

// renderMap draws one glyph per grid cell, cropped to the terminal and
// centred on the selected node when the map does not fit.
func (m mapModel) renderMap(nodes []layout.Node) string {
	if len(nodes) == 0 {
		return mapDimStyle.Render("(empty)") + "\n"
	}

	occupants := make(map[cell][]layout.Node, len(nodes))
	minC, maxC := cell{math.MaxInt, math.MaxInt}, cell{math.MinInt, math.MinInt}
	var sel cell
	for _, n := range nodes {
		c := m.cellOf(n.Position)
		occupants[c] = append(occupants[c], n)
		minC.col, minC.row = min(minC.col, c.col), min(minC.row, c.row)
		maxC.col, maxC.row = max(maxC.col, c.col), max(maxC.row, c.row)
		if n.ID == m.selected() {
			sel = c
		}
	}

	cols := max(1, (m.width-2)/cellWidth)
	rows := max(1, m.height-8)
	c0 := window(sel.col, minC.col, maxC.col, cols)
	r0 := window(sel.row, minC.row, maxC.row, rows)

	var b strings.Builder
	for row := r0; row < r0+rows && row <= maxC.row; row++ {
		for col := c0; col < c0+cols && col <= maxC.col; col++ {
			b.WriteString(m.renderCell(occupants[cell{col, row}]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the first index of a span of size n within [lo, hi] that
// contains at.
func window(at, lo, hi, n int) int {
	if hi-lo+1 <= n {
		return lo
	}
	start := at - n/2
	return max(lo, min(start, hi-n+1))
}

func (m mapModel) renderCell(ns []layout.Node) string {
	if len(ns) == 0 {
		return mapDimStyle.Render(" " + glyphEmpty + " ")
	}

	glyph, style := glyphNode, mapNormalStyle
	selected := false
	for _, n := range ns {
		if n.ID == m.selected() {
			selected = true
		}
	}
	switch {
	case len(ns) > 1:
		glyph = glyphStacked
	case ns[0].Locked:
		glyph, style = glyphLocked, styleLocked
	case ns[0].Dirty:
		glyph, style = glyphDirty, styleDirty
	}
	if selected {
		return mapSelectedStyle.Render("[" + glyph + "]")
	}
	return style.Render(" " + glyph + " ")
}

func (m mapModel) renderSelection(nodes []layout.Node) string {
	id := m.selected()
	for _, n := range nodes {
		if n.ID != id {
			continue
		}
		var flags []string
		if n.Locked {
			flags = append(flags, styleLocked.Render("locked"))
		}
		if n.Dirty {
			flags = append(flags, styleDirty.Render("dirty"))
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		line := fmt.Sprintf("%s %s  %s",
			StyleHighlight.Render(n.ID),
			label,
			StyleDim.Render(formatPosition(n.Position.X, n.Position.Y)))
		if len(flags) > 0 {
			line += "  " + strings.Join(flags, " ")
		}
		return line + "\n"
	}
	return ""
}
