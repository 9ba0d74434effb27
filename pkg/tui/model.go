// Package tui implements the terminal keyboard for the synthesizer
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/oisee/polysynth/pkg/score"
	"github.com/oisee/polysynth/pkg/synth"
)

// pollInterval is how often held keys are checked for release
const pollInterval = 20 * time.Millisecond

// Octave limits for the keyboard shift
const (
	minOctave = -2
	maxOctave = 4
)

// Engine is the part of the voice registry the keyboard drives
type Engine interface {
	NoteEvent(degree int, pressed bool, t float64)
	SelectChannel(c synth.Channel) error
	Selected() synth.Channel
	Snapshot() []synth.Note
}

// Model is the main TUI model
type Model struct {
	Engine Engine
	Now    func() float64 // render clock shared with the audio output

	// View state
	Width    int
	Height   int
	ShowHelp bool
	Octave   int

	// Display snapshot, refreshed every poll
	Time     float64
	Notes    []synth.Note
	Selected synth.Channel

	// Status message
	StatusMsg string

	keys *KeyTracker
	wall func() time.Time
	log  *zap.Logger
}

// NewModel creates a keyboard bound to engine and the render clock now
func NewModel(engine Engine, now func() float64, hold time.Duration, log *zap.Logger) Model {
	return Model{
		Engine:   engine,
		Now:      now,
		Width:    80,
		Height:   24,
		Selected: engine.Selected(),
		keys:     NewKeyTracker(hold),
		wall:     time.Now,
		log:      log,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
	)
}

// tickMsg drives the input poll
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		m.poll()
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// poll releases keys whose auto-repeat stopped and refreshes the display
func (m *Model) poll() {
	for _, degree := range m.keys.Expire(m.wall()) {
		m.noteEvent(degree, false)
	}
	m.Time = m.Now()
	m.Notes = m.Engine.Snapshot()
	m.Selected = m.Engine.Selected()
}

func (m *Model) noteEvent(degree int, pressed bool) {
	t := m.Now()
	m.Engine.NoteEvent(degree, pressed, t)
	m.log.Debug("key",
		zap.Int("degree", degree),
		zap.String("note", score.DegreeToString(degree)),
		zap.Bool("pressed", pressed),
		zap.Float64("time", t))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		for _, degree := range m.keys.ReleaseAll() {
			m.noteEvent(degree, false)
		}
		return m, tea.Quit

	case "f1", "?":
		m.ShowHelp = !m.ShowHelp

	case "1", "2", "3":
		m.selectChannel(synth.Channel(key[0] - '1'))

	case "+", "=":
		if m.Octave < maxOctave {
			m.Octave++
		}
		m.StatusMsg = fmt.Sprintf("octave %+d", m.Octave)

	case "-":
		if m.Octave > minOctave {
			m.Octave--
		}
		m.StatusMsg = fmt.Sprintf("octave %+d", m.Octave)

	default:
		if degree, ok := keyToDegree(key, m.Octave); ok {
			if m.keys.Press(degree, m.wall()) {
				m.noteEvent(degree, true)
			}
		}
	}

	return m, nil
}

func (m *Model) selectChannel(c synth.Channel) {
	if err := m.Engine.SelectChannel(c); err != nil {
		m.StatusMsg = err.Error()
		m.log.Warn("instrument select failed", zap.Error(err))
		return
	}
	m.Selected = c
	m.StatusMsg = "instrument: " + c.String()
	m.log.Info("instrument selected", zap.String("instrument", c.String()))
}

// View implements tea.Model
func (m Model) View() string {
	if m.ShowHelp {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.keyboardView())
	b.WriteString("\n\n")
	b.WriteString(m.notesView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("14")).
		Render("POLYSYNTH")

	inst := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Render(strings.ToUpper(m.Selected.String()))

	info := fmt.Sprintf(" │ %8.3fs │ Oct:%+d │ Voices:%2d │ %s",
		m.Time, m.Octave, len(m.Notes), inst)

	return title + info
}

// keyboardView draws the 16 keys, lit while their note sounds
func (m Model) keyboardView() string {
	sounding := make(map[int]bool, len(m.Notes))
	for _, n := range m.Notes {
		if n.Sounding() {
			sounding[n.Degree] = true
		}
	}

	var names, caps []string
	for i, k := range pianoKeys {
		degree := m.Octave*12 + i
		name := score.DegreeToString(degree)

		style := lipgloss.NewStyle().Padding(0, 1)
		if strings.Contains(name, "#") {
			style = style.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0"))
		} else {
			style = style.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7"))
		}
		if sounding[degree] {
			style = style.Background(lipgloss.Color("11"))
		}

		names = append(names, fmt.Sprintf("%-4s", name))
		caps = append(caps, style.Render(strings.ToUpper(k)))
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	return dim.Render(strings.Join(names, "")) + "\n" + strings.Join(caps, " ")
}

func (m Model) notesView() string {
	if len(m.Notes) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  (silence)") + "\n"
	}

	var lines []string
	for _, n := range m.Notes {
		phase := "release"
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		if n.Sounding() {
			phase = "on"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		}
		line := fmt.Sprintf("  %s %-9s %-7s on %.3fs", score.DegreeToString(n.Degree), n.Channel, phase, n.On)
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) footerView() string {
	keys := " [Z../]Play [1]Piano [2]Bell [3]Harmonica [+/-]Oct [F1]Help [Q]Quit"
	if m.StatusMsg != "" {
		keys += " │ " + m.StatusMsg
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(keys)
}

func (m Model) helpView() string {
	help := `
╔══════════════════════════════════════════════════════════════╗
║                      POLYSYNTH HELP                          ║
╠══════════════════════════════════════════════════════════════╣
║ PLAY                                                         ║
║ |   |   |   |   |   | |   |   |   |   | |   | |   |   |     |║
║ |   | S |   |   | F | | G |   |   | J | | K | | L |   |     |║
║ |   |___|   |   |___| |___|   |   |___| |___| |___|   |     |║
║ |     |     |     |     |     |     |     |     |     |     |║
║ |  Z  |  X  |  C  |  V  |  B  |  N  |  M  |  ,  |  .  |  /  |║
║ |_____|_____|_____|_____|_____|_____|_____|_____|_____|_____|║
║                                                              ║
║   Keys sound while held; a key is released when the          ║
║   terminal stops repeating it.                               ║
║                                                              ║
║ INSTRUMENTS                                                  ║
║   1  Piano      2  Bell      3  Harmonica                    ║
║                                                              ║
║ OTHER                                                        ║
║   + -       Octave up/down                                   ║
║   F1 ?      Toggle help                                      ║
║   Q         Quit                                             ║
║                                                              ║
║                              [F1] Close help                 ║
╚══════════════════════════════════════════════════════════════╝
`
	return lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Render(help)
}
