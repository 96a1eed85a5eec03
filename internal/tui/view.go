package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 1
	footerHeight = 1
	errorHeight  = 2
	maxErrorRows = 6
)

type action int

const (
	actNone action = iota
	actVisualize
	actClear
	actLoadSample
)

var buttonDefs = []struct {
	label string
	act   action
}{
	{"Visualize", actVisualize},
	{"Clear", actClear},
	{"Load Sample Data", actLoadSample},
}

type button struct {
	label  string
	act    action
	x0, x1 int // columns, x1 exclusive
}

// layout holds the screen geometry shared by View and the mouse handler.
type layout struct {
	width, height int

	leftW    int
	inputH   int
	errorH   int
	buttonsY int
	buttons  []button

	mapX, mapY int
	mapW, mapH int
}

func (m Model) layout() layout {
	l := layout{width: max(m.width, 60), height: max(m.height, 16)}
	contentH := l.height - headerHeight - footerHeight

	// left: label, input, buttons, error label
	l.leftW = min(max(l.width*2/5, 40), 56)
	l.errorH = errorRows(m.errMsg, l.leftW)
	l.inputH = max(contentH-2-l.errorH, 3)
	l.buttonsY = headerHeight + 1 + l.inputH
	x := 0
	for _, d := range buttonDefs {
		w := lipgloss.Width(buttonStyle.Render(d.label))
		l.buttons = append(l.buttons, button{label: d.label, act: d.act, x0: x, x1: x + w})
		x += w + 1
	}

	// right: label, map, attribution
	l.mapX = l.leftW + 1
	l.mapY = headerHeight + 1
	l.mapW = max(l.width-l.mapX, 10)
	l.mapH = max(contentH-2, 4)
	return l
}

// errorRows is the height of the error label: the wrapped message, at least
// errorHeight and at most maxErrorRows rows.
func errorRows(msg string, width int) int {
	if msg == "" {
		return errorHeight
	}
	n := lipgloss.Height(errorStyle.Width(width).Render(msg))
	return min(max(n, errorHeight), maxErrorRows)
}

func (l layout) buttonAt(x, y int) action {
	if y != l.buttonsY {
		return actNone
	}
	for _, b := range l.buttons {
		if x >= b.x0 && x < b.x1 {
			return b.act
		}
	}
	return actNone
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := m.layout()

	header := titleStyle.Render(" polyviz ─ coordinate polygon visualizer ")
	header = lipgloss.NewStyle().Width(l.width).Render(header)

	// Input column
	btns := make([]string, len(l.buttons))
	for i, b := range l.buttons {
		btns[i] = buttonStyle.Render(b.label)
	}
	errLabel := ""
	if m.errMsg != "" {
		errLabel = errorStyle.Width(l.leftW).Render(m.errMsg)
	}
	left := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Paste JSON Coordinates"),
		lipgloss.NewStyle().Width(l.leftW).Height(l.inputH).MaxHeight(l.inputH).Render(m.ta.View()),
		strings.Join(btns, " "),
		lipgloss.NewStyle().Width(l.leftW).Height(l.errorH).MaxHeight(l.errorH).Render(errLabel),
	)
	left = lipgloss.NewStyle().Width(l.leftW).Render(left)

	// Map column
	var surface string
	if m.canvas != nil {
		surface = strings.Join(m.canvas, "\n")
	} else {
		hint := "Paste coordinates and press ctrl+r"
		surface = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, dimStyle.Render(hint))
	}
	surface = lipgloss.NewStyle().Width(l.mapW).Height(l.mapH).MaxWidth(l.mapW).MaxHeight(l.mapH).Render(surface)
	attribution := ""
	if m.frame != nil && m.frame.Image != nil && m.opts.Attribution != "" {
		attribution = dimStyle.Render(m.opts.Attribution)
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Polygon Visualization"),
		surface,
		attribution,
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	// Footer
	status := m.status
	if m.pending {
		status = m.spin.View() + " " + status
	}
	statusView := dimStyle.Render(" " + status + "  ")
	help := m.help.View(m.keys)
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	}
	leftFoot := lipgloss.JoinHorizontal(lipgloss.Bottom, statusView, help)
	spacerW := max(0, l.width-lipgloss.Width(leftFoot)-lipgloss.Width(coords))
	rightFoot := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(l.width).MaxHeight(footerHeight).
		Render(lipgloss.JoinHorizontal(lipgloss.Bottom, leftFoot, rightFoot))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(l.width).Height(l.height).MaxHeight(l.height).Render(ui)
}
