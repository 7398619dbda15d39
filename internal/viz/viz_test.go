package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/tissue"
)

func TestCanvasInk(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0, InkDim)
	c.Set(1, 1, InkHot)
	c.Set(0, 2, InkNormal)

	if c.Grid[0][0] == brailleBase {
		t.Fatal("dot not set")
	}
	if c.Inks[0][0] != InkHot {
		t.Errorf("cell ink = %d, want hot", c.Inks[0][0])
	}
	if c.Inks[0][1] != InkNone {
		t.Error("untouched cell has ink")
	}

	c.Unset(0, 0)
	c.Unset(1, 1)
	c.Unset(0, 2)
	if c.Grid[0][0] != brailleBase || c.Inks[0][0] != InkNone {
		t.Error("cell not cleared")
	}

	// out of range is ignored
	c.Set(-1, 0, InkHot)
	c.Set(100, 100, InkHot)
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0, InkNormal)
	for col := 0; col < 4; col++ {
		if c.Grid[0][col] == brailleBase {
			t.Errorf("column %d empty", col)
		}
	}
	if got := strings.Count(c.String(), "\n"); got != 1 {
		t.Errorf("got %d lines", got)
	}
}

func TestSpinViewTippedInk(t *testing.T) {
	f := spin.NewField(spin.DefaultConfig())
	v := NewSpinView(f.Config(), f.Projection(), spinCols, spinRows)

	hot := func(c *Canvas) int {
		n := 0
		for _, row := range c.Inks {
			for _, ink := range row {
				if ink == InkHot {
					n++
				}
			}
		}
		return n
	}

	st := scanner.DefaultState()
	if n := hot(v.Draw(f.Frame(st, 0))); n != 0 {
		t.Errorf("aligned field has %d hot cells", n)
	}
	st.Phase = scanner.PhaseExcitation
	if n := hot(v.Draw(f.Frame(st, 0))); n == 0 {
		t.Error("excited field has no hot cells")
	}
}

func TestSpinViewFits(t *testing.T) {
	f := spin.NewField(spin.DefaultConfig())
	v := NewSpinView(f.Config(), f.Projection(), spinCols, spinRows)
	st := scanner.DefaultState()
	st.Phase = scanner.PhaseExcitation
	for _, vec := range f.Frame(st, 0.3) {
		for _, p := range []spin.Point{vec.ScreenBase, vec.ScreenTip} {
			x, y := v.dot(p)
			if x < 0 || y < 0 || x >= spinCols*2 || y >= spinRows*4 {
				t.Fatalf("point %+v maps outside the canvas to (%d, %d)", p, x, y)
			}
		}
	}
}

func TestKSpaceRows(t *testing.T) {
	tests := []struct {
		lines    int
		acquired int
	}{
		{0, 0},
		{kspace.TotalLines / 2, 8},
		{kspace.TotalLines, 16},
	}
	for _, tt := range tests {
		rows := KSpaceRows(tt.lines, 16)
		n := 0
		for _, v := range rows {
			if v > 0 {
				n++
			}
		}
		if n != tt.acquired {
			t.Errorf("lines %d: %d rows acquired, want %d", tt.lines, n, tt.acquired)
		}
	}

	full := KSpaceRows(kspace.TotalLines, 16)
	if full[8] <= full[0] {
		t.Errorf("centre row %v should be brighter than edge %v", full[8], full[0])
	}
	if KSpaceRows(10, 0) != nil {
		t.Error("expected nil for zero rows")
	}
}

func TestGradientIndicator(t *testing.T) {
	if got := []rune(GradientIndicator(0, 11)); got[0] != '●' {
		t.Errorf("first line should sit at the negative end: %q", string(got))
	}
	if got := []rune(GradientIndicator(kspace.TotalLines, 11)); got[10] != '●' {
		t.Errorf("last line should sit at the positive end: %q", string(got))
	}
	if got := []rune(GradientIndicator(kspace.CenterLine, 11)); got[5] != '●' {
		t.Errorf("centre line should sit at zero: %q", string(got))
	}
}

func TestCursorRow(t *testing.T) {
	plot := " 1.0 ┤  ╭\n 0.0 ┼──╯"
	row := CursorRow(plot, 0, 61, 20)
	if !strings.HasSuffix(row, "▲") || len([]rune(row)) != 7 {
		t.Errorf("got %q", row)
	}
	end := CursorRow(plot, 60, 61, 20)
	if len([]rune(end)) != 6+20 {
		t.Errorf("got %q", end)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 4, 0, 1); got != "▁█" {
		t.Errorf("got %q", got)
	}
	if got := Sparkline([]float64{0, 0, 0, 1, 1}, 2, 0, 1); got != "██" {
		t.Errorf("got %q", got)
	}
	if got := Sparkline(nil, 3, 0, 1); got != "───" {
		t.Errorf("got %q", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != ThemeDefault.Name {
		t.Error("unknown theme should fall back to default")
	}
	seen := map[string]bool{}
	th := ThemeDefault
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th.Name)
	}
	if len(seen) != len(Themes) || th.Name != ThemeDefault.Name {
		t.Errorf("cycle visited %v", seen)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names")
	}
}

func TestSelectionFeedKeepsLatest(t *testing.T) {
	f := NewSelectionFeed()
	f.Notify(scanner.Selection{Region: tissue.Brain, Sequence: tissue.T1Weighted})
	f.Notify(scanner.Selection{Region: tissue.Knee, Sequence: tissue.T2Weighted})

	got := <-f.C()
	if got.Region != tissue.Knee {
		t.Errorf("got %+v", got)
	}
	select {
	case s := <-f.C():
		t.Errorf("unexpected pending selection %+v", s)
	default:
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	feed := NewSelectionFeed()
	ctrl := scanner.NewController(scanner.Options{
		Clock:    scanner.NewManualClock(time.Unix(0, 0)),
		OnSelect: feed.Notify,
	})
	t.Cleanup(ctrl.Close)
	return NewModel(Options{Controller: ctrl, Selections: feed.C(), FPS: 30})
}

func TestModelDropsStaleFrames(t *testing.T) {
	m := newTestModel(t)
	at := time.Unix(10, 0)

	next, cmd := m.Update(frameMsg{id: m.loopID, at: at})
	m = next.(Model)
	if cmd == nil || m.ticks != 1 || len(m.vectors) != 25 {
		t.Fatalf("frame not applied: ticks=%d vectors=%d", m.ticks, len(m.vectors))
	}

	m.Stop()
	next, cmd = m.Update(frameMsg{id: m.loopID - 1, at: at.Add(time.Second)})
	m = next.(Model)
	if cmd != nil || m.ticks != 1 {
		t.Error("stale frame should be dropped without rescheduling")
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t)
	press := func(k string) {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		m = next.(Model)
	}

	press("b")
	if m.state.FieldStrength != 1.5 {
		t.Errorf("B0 = %v", m.state.FieldStrength)
	}
	press("r")
	if m.sel.Region == tissue.Brain {
		t.Error("region did not change")
	}

	press("m")
	if m.state.MagnetOn || m.state.Phase != scanner.PhaseRandom {
		t.Errorf("quench state %+v", m.state)
	}
	press("s")
	if m.state.Scanning || !strings.Contains(m.notice, "magnet off") {
		t.Errorf("scan started with magnet off, notice %q", m.notice)
	}

	press("m")
	press("s")
	if !m.state.Scanning {
		t.Fatal("scan did not start")
	}
	press("p")
	if !strings.Contains(m.notice, "while scanning") {
		t.Errorf("notice %q", m.notice)
	}
	press("x")
	if m.state.Scanning {
		t.Error("scan not stopped")
	}

	press("t")
	if m.theme.Name == ThemeDefault.Name {
		t.Error("theme did not change")
	}
	press("?")
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay missing")
	}
}

func TestModelExplanation(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(explanationMsg{sel: scanner.Selection{Region: tissue.Knee, Sequence: tissue.FLAIR}, text: "stale"})
	m = next.(Model)
	if m.explanation == "stale" {
		t.Error("explanation for another selection applied")
	}

	msg := m.fetchExplanation(m.sel)()
	next, _ = m.Update(msg)
	m = next.(Model)
	if !strings.Contains(m.explanation, "TR") {
		t.Errorf("explanation = %q", m.explanation)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	id := m.loopID
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || next.(Model).loopID == id {
		t.Error("quit should stop the loop and return tea.Quit")
	}
}
