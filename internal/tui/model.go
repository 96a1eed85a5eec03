// Package tui is the terminal front end: a JSON input panel next to a map surface.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"polyviz/internal/geom"
	"polyviz/internal/render"
)

// Renderer draws a point sequence onto a pixel surface.
type Renderer interface {
	Render(ctx context.Context, pts []geom.Point, width, height int) (*render.Frame, error)
	Basemap() bool
}

// State is the controller state.
type State int

const (
	StateIdle State = iota
	StateErrorShown
)

func (s State) String() string {
	if s == StateErrorShown {
		return "error"
	}
	return "idle"
}

// Options configures the model.
type Options struct {
	// Timeout bounds one render including tile downloads.
	Timeout time.Duration
	// Attribution is printed under the map when the basemap is on.
	Attribution string
}

type Model struct {
	width  int
	height int

	renderer Renderer
	opts     Options

	state  State
	errMsg string
	status string

	ta   textarea.Model
	spin spinner.Model
	help help.Model
	keys keyMap

	// display state: the points and frame currently shown
	points []geom.Point
	frame  *render.Frame
	canvas []string

	// in-flight render; results with an older seq are dropped
	seq     int
	pending bool
	want    []geom.Point
	cancel  context.CancelFunc

	// hover state
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64
}

func New(r Renderer, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	m := Model{
		renderer: r,
		opts:     opts,
		status:   "polyviz ready",
		keys:     newKeyMap(),
		help:     help.New(),
	}
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste JSON coordinates with 'lat' and 'lng' keys"
	m.ta.ShowLineNumbers = false
	m.ta.CharLimit = 0
	m.ta.MaxHeight = 0
	m.ta.SetWidth(40)
	m.ta.SetHeight(10)
	m.ta.Focus()

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = titleStyle
	return m
}

// NewWithPath preloads a file's contents into the input area at launch.
func NewWithPath(r Renderer, opts Options, path string) Model {
	m := New(r, opts)
	m.loadPath(path)
	return m
}

func (m Model) Init() tea.Cmd { return textarea.Blink }

// State returns the controller state.
func (m Model) State() State { return m.state }

// ErrorText returns the message shown in the error label, empty when none.
func (m Model) ErrorText() string { return m.errMsg }

// Input returns the text currently in the input area.
func (m Model) Input() string { return m.ta.Value() }

// Frame returns the frame on display, nil when the surface is empty.
func (m Model) Frame() *render.Frame { return m.frame }
