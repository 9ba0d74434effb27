package tui

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/oisee/polysynth/pkg/score"
	"github.com/oisee/polysynth/pkg/synth"
)

type fakeEngine struct {
	events   []string
	selected synth.Channel
	notes    []synth.Note
}

func (f *fakeEngine) NoteEvent(degree int, pressed bool, t float64) {
	f.events = append(f.events, fmt.Sprintf("%d %v %.1f", degree, pressed, t))
}

func (f *fakeEngine) SelectChannel(c synth.Channel) error {
	if !c.Valid() {
		return synth.ErrUnknownChannel
	}
	f.selected = c
	return nil
}

func (f *fakeEngine) Selected() synth.Channel { return f.selected }
func (f *fakeEngine) Snapshot() []synth.Note  { return f.notes }

// testModel returns a model whose render clock and wall clock are both
// controlled by the test
func testModel(hold time.Duration) (Model, *fakeEngine, *float64, *time.Time) {
	eng := &fakeEngine{}
	renderNow := new(float64)
	wallNow := new(time.Time)
	*wallNow = time.Unix(1000, 0)

	m := NewModel(eng, func() float64 { return *renderNow }, hold, zap.NewNop())
	m.wall = func() time.Time { return *wallNow }
	return m, eng, renderNow, wallNow
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestKeyToDegree(t *testing.T) {
	tests := []struct {
		key    string
		octave int
		degree int
		ok     bool
	}{
		{"z", 0, 0, true},
		{"s", 0, 1, true},
		{"c", 0, 3, true},
		{",", 0, 12, true},
		{"/", 0, 15, true},
		{"z", 1, 12, true},
		{"z", -1, -12, true},
		{"a", 0, 0, false},
		{"q", 0, 0, false},
	}
	for _, tt := range tests {
		degree, ok := keyToDegree(tt.key, tt.octave)
		if degree != tt.degree || ok != tt.ok {
			t.Errorf("keyToDegree(%q, %d) = %d, %v; want %d, %v", tt.key, tt.octave, degree, ok, tt.degree, tt.ok)
		}
	}
}

func TestKeyTracker(t *testing.T) {
	k := NewKeyTracker(100 * time.Millisecond)
	t0 := time.Unix(0, 0)

	if !k.Press(3, t0) {
		t.Fatal("first press should be an edge")
	}
	if k.Press(3, t0.Add(50*time.Millisecond)) {
		t.Fatal("auto-repeat should not be an edge")
	}
	k.Press(7, t0.Add(60*time.Millisecond))

	// Repeat at 50ms keeps key 3 alive past the first timeout
	if got := k.Expire(t0.Add(120 * time.Millisecond)); len(got) != 0 {
		t.Fatalf("Expire(120ms) = %v, want none", got)
	}
	if diff := cmp.Diff([]int{3}, k.Expire(t0.Add(150*time.Millisecond))); diff != "" {
		t.Fatalf("Expire(150ms) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{7}, k.Held()); diff != "" {
		t.Fatalf("Held (-want +got):\n%s", diff)
	}
	if !k.Press(3, t0.Add(200*time.Millisecond)) {
		t.Fatal("press after release should be an edge")
	}
	if diff := cmp.Diff([]int{3, 7}, k.ReleaseAll()); diff != "" {
		t.Fatalf("ReleaseAll (-want +got):\n%s", diff)
	}
	if len(k.Held()) != 0 {
		t.Fatal("nothing should be held after ReleaseAll")
	}
}

func TestKeyTrackerDefaultTimeout(t *testing.T) {
	if k := NewKeyTracker(0); k.timeout != DefaultHoldTimeout {
		t.Fatalf("timeout = %v, want %v", k.timeout, DefaultHoldTimeout)
	}
}

func TestPressAndRelease(t *testing.T) {
	m, eng, renderNow, wallNow := testModel(200 * time.Millisecond)

	*renderNow = 1.0
	m, _ = update(t, m, runeKey("x"))

	// Auto-repeat does not retrigger
	*renderNow = 1.1
	*wallNow = wallNow.Add(100 * time.Millisecond)
	m, _ = update(t, m, runeKey("x"))

	// Still within the timeout of the repeat
	*renderNow = 1.2
	*wallNow = wallNow.Add(150 * time.Millisecond)
	m, cmd := update(t, m, tickMsg{})
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}

	*renderNow = 1.5
	*wallNow = wallNow.Add(100 * time.Millisecond)
	m, _ = update(t, m, tickMsg{})

	want := []string{"2 true 1.0", "2 false 1.5"}
	if diff := cmp.Diff(want, eng.events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	if m.Time != 1.5 {
		t.Fatalf("display time = %v, want 1.5", m.Time)
	}
}

func TestOctaveShift(t *testing.T) {
	m, eng, _, _ := testModel(time.Second)

	m, _ = update(t, m, runeKey("+"))
	m, _ = update(t, m, runeKey("z"))
	m, _ = update(t, m, runeKey("-"))
	m, _ = update(t, m, runeKey("-"))
	m, _ = update(t, m, runeKey("z"))

	want := []string{"12 true 0.0", "-12 true 0.0"}
	if diff := cmp.Diff(want, eng.events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}

	for i := 0; i < 10; i++ {
		m, _ = update(t, m, runeKey("-"))
	}
	if m.Octave != minOctave {
		t.Fatalf("octave = %d, want %d", m.Octave, minOctave)
	}
}

func TestSelectInstrument(t *testing.T) {
	m, eng, _, _ := testModel(time.Second)

	for key, want := range map[string]synth.Channel{
		"2": synth.ChannelBell,
		"3": synth.ChannelHarmonica,
		"1": synth.ChannelPiano,
	} {
		m, _ = update(t, m, runeKey(key))
		if eng.selected != want || m.Selected != want {
			t.Errorf("key %s selected %v (model %v), want %v", key, eng.selected, m.Selected, want)
		}
	}
}

func TestQuitReleasesHeldKeys(t *testing.T) {
	m, eng, renderNow, _ := testModel(time.Second)

	m, _ = update(t, m, runeKey("z"))
	m, _ = update(t, m, runeKey("c"))
	*renderNow = 2
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should quit")
	}

	want := []string{"0 true 0.0", "3 true 0.0", "0 false 2.0", "3 false 2.0"}
	if diff := cmp.Diff(want, eng.events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestView(t *testing.T) {
	m, eng, _, _ := testModel(time.Second)
	eng.selected = synth.ChannelBell
	eng.notes = []synth.Note{
		{Degree: 3, On: 0.5, Off: -1, Active: true, Channel: synth.ChannelBell},
		{Degree: 0, On: 0.1, Off: 0.4, Active: true, Channel: synth.ChannelPiano},
	}
	m, _ = update(t, m, tickMsg{})

	view := m.View()
	for _, want := range []string{"POLYSYNTH", "BELL", "C-3", "A-2", "release", "Voices: 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if !strings.Contains(m.View(), "POLYSYNTH HELP") {
		t.Fatal("F1 should show help")
	}
}

func TestHelpKeyboardMatchesKeyMap(t *testing.T) {
	m, _, _, _ := testModel(time.Second)
	lines := strings.Split(m.helpView(), "\n")

	var white, black string
	for _, l := range lines {
		if strings.Contains(l, "|  Z  |") {
			white = l
		}
		if strings.Contains(l, "| S |") {
			black = l
		}
	}
	if white == "" || black == "" {
		t.Fatal("help keyboard rows not found")
	}

	column := func(k string) int {
		row := white
		if strings.Contains(score.DegreeToString(slices.Index(pianoKeys, k)), "#") {
			row = black
		}
		i := strings.Index(row, strings.ToUpper(k))
		if i < 0 {
			t.Fatalf("key %q missing from help keyboard", k)
		}
		return i
	}

	for i := 1; i < len(pianoKeys); i++ {
		if prev, cur := column(pianoKeys[i-1]), column(pianoKeys[i]); cur <= prev {
			t.Errorf("key %q drawn at column %d, left of %q at %d", pianoKeys[i], cur, pianoKeys[i-1], prev)
		}
	}
}
