package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"polyviz/internal/geom"
	"polyviz/internal/render"
)

// renderedMsg carries the outcome of a background render.
type renderedMsg struct {
	seq    int
	points []geom.Point
	frame  *render.Frame
	err    error
	// user is set for renders started by visualize, as opposed to a resize.
	user   bool
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.fitInput()
		m.help.Width = l.width
		if m.want != nil {
			w, h := m.surfaceSize(l)
			if m.frame == nil || m.frame.Width != w || m.frame.Height != h {
				return m, m.startRender(m.want, false)
			}
		}
		return m, nil
	case renderedMsg:
		m.finishRender(msg)
		return m, nil
	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.abandon()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Visualize):
			return m, m.visualize()
		case key.Matches(msg, m.keys.Clear):
			m.clear()
			return m, nil
		case key.Matches(msg, m.keys.LoadSample):
			m.loadSample()
			return m, nil
		}
	case tea.MouseMsg:
		return m.mouse(msg)
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m Model) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	l := m.layout()
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		switch l.buttonAt(msg.X, msg.Y) {
		case actVisualize:
			return m, m.visualize()
		case actClear:
			m.clear()
		case actLoadSample:
			m.loadSample()
		}
		return m, nil
	}

	m.hoverHasGeo = false
	cx, cy := msg.X-l.mapX, msg.Y-l.mapY
	if cx >= 0 && cx < l.mapW && cy >= 0 && cy < l.mapH {
		if lon, lat, ok := m.cellToLonLat(cx, cy); ok {
			m.hoverHasGeo = true
			m.hoverLon = lon
			m.hoverLat = lat
		}
	}
	return m, nil
}

// visualize validates the input and starts a render of it.
func (m *Model) visualize() tea.Cmd {
	pts, err := geom.ParsePoints(m.ta.Value())
	if err != nil {
		log.Debug().Err(err).Msg("Input rejected")
		// a render still in flight must not replace the display afterwards
		m.abandon()
		m.seq++
		m.pending = false
		m.want = m.points
		m.showError(err)
		return nil
	}
	m.setError("")
	log.Info().Int("points", len(pts)).Msg("Visualizing polygon")
	return m.startRender(pts, true)
}

func (m *Model) startRender(pts []geom.Point, user bool) tea.Cmd {
	m.abandon()
	m.seq++
	m.pending = true
	m.want = pts
	m.status = "rendering..."

	seq, r := m.seq, m.renderer
	w, h := m.surfaceSize(m.layout())
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	m.cancel = cancel

	run := func() tea.Msg {
		defer cancel()
		f, err := r.Render(ctx, pts, w, h)
		return renderedMsg{seq: seq, points: pts, frame: f, err: err, user: user}
	}
	return tea.Batch(m.spin.Tick, run)
}

func (m *Model) finishRender(msg renderedMsg) {
	if msg.seq != m.seq {
		log.Debug().Int("seq", msg.seq).Int("current", m.seq).Msg("Dropping stale render")
		return
	}
	m.pending = false
	m.cancel = nil
	if msg.err != nil {
		log.Error().Err(msg.err).Bool("user", msg.user).Msg("Render failed")
		m.want = m.points
		if !msg.user {
			// resize: keep the old picture and state
			m.status = "re-render failed, see log"
			return
		}
		m.showError(msg.err)
		return
	}
	m.points = msg.points
	m.frame = msg.frame
	m.canvas = paint(msg.frame)
	if msg.user {
		m.setError("")
	}
	m.status = frameStatus(msg.frame)
}

// abandon cancels the in-flight render, if any.
func (m *Model) abandon() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) clear() {
	m.abandon()
	m.seq++
	m.pending = false
	m.ta.Reset()
	m.setError("")
	m.points = nil
	m.want = nil
	m.frame = nil
	m.canvas = nil
	m.hoverHasGeo = false
	m.status = "cleared"
	log.Debug().Msg("Cleared")
}

func (m *Model) loadSample() {
	text, err := geom.FormatPoints(geom.Sample())
	if err != nil {
		m.showError(err)
		return
	}
	m.ta.SetValue(text)
	m.status = "sample data loaded"
}

func (m *Model) showError(err error) {
	m.setError(userMessage(err))
	m.status = "error"
}

// setError shows text in the error label, or hides it when empty.
func (m *Model) setError(text string) {
	m.errMsg = text
	m.state = StateIdle
	if text != "" {
		m.state = StateErrorShown
	}
	m.fitInput()
}

// fitInput sizes the input area to the current layout.
func (m *Model) fitInput() layout {
	l := m.layout()
	m.ta.SetWidth(l.leftW)
	m.ta.SetHeight(l.inputH)
	return l
}

// userMessage maps an error to the text shown in the error label.
func userMessage(err error) string {
	switch {
	case errors.Is(err, geom.ErrEmptyInput):
		return "Please enter JSON coordinates."
	case errors.Is(err, geom.ErrMalformedJSON):
		return "Invalid JSON: " + strings.TrimPrefix(err.Error(), geom.ErrMalformedJSON.Error()+": ")
	case errors.Is(err, geom.ErrTooFewPoints):
		return "Need at least 3 coordinates to form a polygon."
	case errors.Is(err, geom.ErrMissingField):
		return "Each point must have 'lat' and 'lng'."
	default:
		return "Error: " + err.Error()
	}
}

func frameStatus(f *render.Frame) string {
	if f.Zoom < 0 {
		return fmt.Sprintf("rendered  pts=%d  (no basemap)", f.Points)
	}
	return fmt.Sprintf("rendered  pts=%d  zoom=%d  tiles=%d", f.Points, f.Zoom, f.Tiles)
}
