// ABOUTME: Bubbletea model for the console TUI
// ABOUTME: Renders desk strips and maps keys onto desk mutations
package ui

import (
	"fmt"
	"math"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/gain"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/mixer"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

// faderStep is the position delta one keypress moves a fader.
const faderStep = 0.02

// Model represents the TUI state. The desk is the source of truth; the
// model only tracks the cursor and connection banner.
type Model struct {
	desk *mixer.Desk

	// Connection
	connected  bool
	engineName string
	playing    bool

	// Cursor
	selected int

	// Dimensions
	width  int
	height int
}

// strip is one rendered row, flattened from whichever node kind backs it.
type strip struct {
	id        string
	label     string
	kind      string
	volume    float64
	pan       float64
	muted     bool
	soloed    bool
	armed     bool
	clipping  bool
	peak      float64
	deletable bool
}

// StatusMsg updates the connection banner.
type StatusMsg struct {
	Connected  *bool
	EngineName string
	Playing    *bool
}

// DeskChangedMsg signals that the desk published a new version.
type DeskChangedMsg struct{}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return watchDesk(m.desk.Changes())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DeskChangedMsg:
		// Deletes can arrive from outside the key handler; keep the
		// cursor on a real row.
		m.selected = clampCursor(m.selected, len(m.strips()))
		return m, watchDesk(m.desk.Changes())
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	strips := m.strips()
	selected := clampCursor(m.selected, len(strips))

	s := m.renderHeader()
	for i, st := range strips {
		s += m.renderStrip(st, i == selected)
	}
	s += m.renderHelp()

	return s
}

// strips flattens the desk into the row order the view presents:
// channels, buses, auxes, VCAs, then master.
func (m Model) strips() []strip {
	var out []strip

	for _, ch := range m.desk.Channels() {
		out = append(out, strip{
			id:        ch.ID,
			label:     ch.Name,
			kind:      "CH",
			volume:    ch.Volume,
			pan:       ch.Pan,
			muted:     ch.Muted,
			soloed:    ch.Soloed,
			armed:     ch.Armed,
			clipping:  ch.Meter.Clipping,
			peak:      math.Max(ch.Meter.PeakL, ch.Meter.PeakR),
			deletable: true,
		})
	}
	for _, b := range m.desk.Buses() {
		out = append(out, strip{
			id:        b.ID,
			label:     b.Name,
			kind:      "BUS",
			volume:    b.Volume,
			pan:       b.Pan,
			muted:     b.Muted,
			soloed:    b.Soloed,
			clipping:  b.Meter.Clipping,
			peak:      math.Max(b.Meter.PeakL, b.Meter.PeakR),
			deletable: !b.Protected,
		})
	}
	for _, a := range m.desk.Auxes() {
		out = append(out, strip{
			id:        a.ID,
			label:     a.Name,
			kind:      "AUX",
			volume:    a.Volume,
			muted:     a.Muted,
			soloed:    a.Soloed,
			clipping:  a.Meter.Clipping,
			peak:      math.Max(a.Meter.PeakL, a.Meter.PeakR),
			deletable: true,
		})
	}
	for _, v := range m.desk.Vcas() {
		out = append(out, strip{
			id:        v.ID,
			label:     v.Name,
			kind:      "VCA",
			volume:    v.Level,
			muted:     v.Muted,
			soloed:    v.Soloed,
			deletable: true,
		})
	}

	master := m.desk.MasterOut()
	out = append(out, strip{
		id:       mixer.MasterID,
		label:    "Master",
		kind:     "MST",
		volume:   master.Volume,
		clipping: master.Meter.Clipping,
		peak:     math.Max(master.Meter.PeakL, master.Meter.PeakR),
	})

	return out
}

// renderHeader renders the connection and transport banner
func (m Model) renderHeader() string {
	connStatus := "Offline"
	if m.connected {
		connStatus = fmt.Sprintf("Linked to %s", m.engineName)
	}

	transport := "Stopped"
	if m.playing {
		transport = "Playing"
	}

	return fmt.Sprintf(`┌─ %s %s ─────────────────────────────────────────────┐
│ Engine: %-30s Transport: %-8s │
├───────────────────────────────────────────────────────────────┤
`, version.Product, version.Version, truncate(connStatus, 30), transport)
}

// renderStrip renders one desk row: cursor, name, fader, readout,
// meter, and state flags.
func (m Model) renderStrip(st strip, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}

	fader := renderBar(gain.LinearToPosition(st.volume), 12)
	readout := gain.FormatDb(gain.LinearToDb(st.volume))
	meter := renderBar(st.peak, 8)

	flags := ""
	if st.muted {
		flags += "M"
	} else {
		flags += " "
	}
	if st.soloed {
		flags += "S"
	} else {
		flags += " "
	}
	if st.armed {
		flags += "R"
	} else {
		flags += " "
	}
	if st.clipping {
		flags += "!"
	} else {
		flags += " "
	}

	return fmt.Sprintf("│%s %-3s %-12s [%s] %7s  %s %s │\n",
		cursor, st.kind, truncate(st.label, 12), fader, readout, meter, flags)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├───────────────────────────────────────────────────────────────┤
│ j/k:Select  +/-:Fader  </>:Pan  m:Mute  s:Solo  a:Arm        │
│ n:New channel  x:Delete  q:Quit                              │
└───────────────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	strips := m.strips()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "down", "j":
		if m.selected < len(strips)-1 {
			m.selected++
		}
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "+", "=", "right":
		m.nudgeFader(strips, faderStep)
	case "-", "_", "left":
		m.nudgeFader(strips, -faderStep)
	case ">", ".":
		m.nudgePan(strips, 0.05)
	case "<", ",":
		m.nudgePan(strips, -0.05)
	case "m":
		if st, ok := m.current(strips); ok {
			m.desk.ToggleMute(st.id)
		}
	case "s":
		if st, ok := m.current(strips); ok {
			m.desk.ToggleSolo(st.id)
		}
	case "a":
		if st, ok := m.current(strips); ok && st.kind == "CH" {
			m.desk.ToggleArm(st.id)
		}
	case "n":
		ch := m.desk.CreateChannel(fmt.Sprintf("Track %d", len(m.desk.Channels())+1), 0, mixer.KindAudio)
		m.selected = m.stripIndex(ch.ID)
	case "x":
		if st, ok := m.current(strips); ok && st.deletable {
			m.deleteStrip(st)
			if m.selected > 0 {
				m.selected--
			}
		}
	}

	return m, nil
}

func clampCursor(selected, rows int) int {
	if selected >= rows {
		selected = rows - 1
	}
	if selected < 0 {
		selected = 0
	}
	return selected
}

func (m Model) current(strips []strip) (strip, bool) {
	if m.selected < 0 || m.selected >= len(strips) {
		return strip{}, false
	}
	return strips[m.selected], true
}

// nudgeFader moves the selected strip's fader by delta in curve
// position space, so a keypress feels even across the whole throw.
func (m Model) nudgeFader(strips []strip, delta float64) {
	st, ok := m.current(strips)
	if !ok {
		return
	}
	v := gain.PositionToLinear(gain.LinearToPosition(st.volume) + delta)
	if st.kind == "VCA" {
		m.desk.SetVcaLevel(st.id, v)
	} else {
		m.desk.SetVolume(st.id, v)
	}
}

func (m Model) nudgePan(strips []strip, delta float64) {
	st, ok := m.current(strips)
	if !ok {
		return
	}
	if st.kind != "CH" && st.kind != "BUS" {
		return
	}
	m.desk.SetPan(st.id, st.pan+delta)
}

func (m Model) deleteStrip(st strip) {
	switch st.kind {
	case "CH":
		m.desk.DeleteChannel(st.id)
	case "BUS":
		m.desk.DeleteBus(st.id)
	case "AUX":
		m.desk.DeleteAux(st.id)
	case "VCA":
		m.desk.DeleteVca(st.id)
	}
}

// stripIndex locates a node id in the current row order.
func (m Model) stripIndex(id string) int {
	for i, st := range m.strips() {
		if st.id == id {
			return i
		}
	}
	return 0
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.EngineName != "" {
		m.engineName = msg.EngineName
	}
	if msg.Playing != nil {
		m.playing = *msg.Playing
	}
}

// Utility functions
func renderBar(value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
