package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/explain"
	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/tissue"
	"github.com/san-kum/neurospin/internal/update"
)

const (
	spinCols, spinRows     = 30, 12
	kspaceCols, kspaceRows = 12, 12
	sliceCols, sliceRows   = 30, 14
	curveWidth, curveRows  = 48, 5
	historyCapacity        = 120
	explainTimeout         = 5 * time.Second
	defaultWidth           = 120
)

type frameMsg struct {
	id int
	at time.Time
}

type selectionMsg scanner.Selection

type explanationMsg struct {
	sel  scanner.Selection
	text string
}

type updateMsg update.Info

type Options struct {
	Controller *scanner.Controller
	Field      *spin.Field
	// Selections delivers controller selection changes, see SelectionFeed.
	Selections <-chan scanner.Selection
	Explainer  explain.Provider
	// Updates is optional; nil skips the update check.
	Updates *update.Checker
	Owner   string
	Theme   string
	FPS     int
	Logger  zerolog.Logger
}

// Model is the bubbletea model of the scanner console. It reads controller
// snapshots once per frame and never writes simulation state directly.
type Model struct {
	ctrl       *scanner.Controller
	field      *spin.Field
	view       *SpinView
	selections <-chan scanner.Selection
	explainer  explain.Provider
	updates    *update.Checker
	log        zerolog.Logger

	owner   string
	theme   Theme
	styles  Styles
	frame   time.Duration
	loopID  int
	started time.Time
	now     time.Time
	ticks   int
	width   int

	state       scanner.State
	sel         scanner.Selection
	vectors     []spin.Vector
	mxy, mz     float64
	mxyHistory  []float64
	explanation string
	latest      update.Info
	notice      string
	showHelp    bool
}

func NewModel(opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	field := opts.Field
	if field == nil {
		field = spin.NewField(spin.DefaultConfig())
	}
	explainer := opts.Explainer
	if explainer == nil {
		explainer = explain.Static{}
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		ctrl:        opts.Controller,
		field:       field,
		view:        NewSpinView(field.Config(), field.Projection(), spinCols, spinRows),
		selections:  opts.Selections,
		explainer:   explainer,
		updates:     opts.Updates,
		log:         opts.Logger,
		owner:       opts.Owner,
		theme:       theme,
		styles:      NewStyles(theme),
		frame:       time.Second / time.Duration(fps),
		width:       defaultWidth,
		explanation: "Loading explanation...",
		mxyHistory:  make([]float64, 0, historyCapacity),
	}
	m.state = m.ctrl.Snapshot()
	m.sel = m.ctrl.Selection()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.tick(),
		m.fetchExplanation(m.sel),
		m.waitSelection(),
	}
	if m.updates != nil {
		cmds = append(cmds, m.checkUpdate())
	}
	return tea.Batch(cmds...)
}

// tick schedules the next frame for the current loop id.
func (m Model) tick() tea.Cmd {
	id := m.loopID
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg{id: id, at: t} })
}

// Stop cancels the render loop. Pending frames carry the old id and are
// dropped when they arrive.
func (m *Model) Stop() { m.loopID++ }

func (m Model) waitSelection() tea.Cmd {
	if m.selections == nil {
		return nil
	}
	ch := m.selections
	return func() tea.Msg {
		sel, ok := <-ch
		if !ok {
			return nil
		}
		return selectionMsg(sel)
	}
}

func (m Model) fetchExplanation(sel scanner.Selection) tea.Cmd {
	p, log := m.explainer, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), explainTimeout)
		defer cancel()
		return explanationMsg{sel: sel, text: explain.Fetch(ctx, p, sel.Region, sel.Sequence, log)}
	}
}

func (m Model) checkUpdate() tea.Cmd {
	c := m.updates
	return func() tea.Msg {
		return updateMsg(c.Check(context.Background(), update.Version))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case frameMsg:
		if msg.id != m.loopID {
			return m, nil
		}
		m.step(msg.at)
		return m, m.tick()

	case selectionMsg:
		m.explanation = "Loading explanation..."
		return m, tea.Batch(m.fetchExplanation(scanner.Selection(msg)), m.waitSelection())

	case explanationMsg:
		// a slow answer for an older selection is discarded
		if msg.sel == m.ctrl.Selection() {
			m.explanation = msg.text
		}
		return m, nil

	case updateMsg:
		m.latest = update.Info(msg)
		return m, nil
	}
	return m, nil
}

// step samples the controller and the spin field for one frame.
func (m *Model) step(at time.Time) {
	if m.started.IsZero() {
		m.started = at
	}
	m.now = at
	m.ticks++
	m.state = m.ctrl.Snapshot()
	m.sel = m.ctrl.Selection()

	t := at.Sub(m.started).Seconds()
	m.vectors = m.field.Frame(m.state, t)
	m.mxy, m.mz = spin.NetMagnetization(m.vectors)
	m.mxyHistory = append(m.mxyHistory, m.mxy)
	if len(m.mxyHistory) > historyCapacity {
		m.mxyHistory = m.mxyHistory[1:]
	}
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch key {
	case "q", "ctrl+c":
		m.Stop()
		return m, tea.Quit
	case "s", " ":
		if !m.ctrl.StartScan() {
			m.notice = m.refusal("start a scan")
		}
	case "x":
		if !m.ctrl.StopScan() {
			m.notice = "no scan running"
		}
	case "m":
		if m.ctrl.ToggleMagnet() {
			m.notice = "magnet energized"
		} else {
			m.notice = "magnet quench: spins randomized"
		}
	case "b":
		next := scanner.NextFieldStrength(m.ctrl.Snapshot().FieldStrength)
		if !m.ctrl.SetFieldStrength(next) {
			m.notice = m.refusal("change the field")
		}
	case "r":
		if !m.ctrl.SetRegion(tissue.NextRegion(m.ctrl.Selection().Region)) {
			m.notice = m.refusal("change the region")
		}
	case "p":
		if !m.ctrl.SetSequence(tissue.NextSequence(m.ctrl.Selection().Sequence)) {
			m.notice = m.refusal("change the sequence")
		}
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
		m.notice = "theme: " + m.theme.Name
	case "?":
		m.showHelp = !m.showHelp
	}
	m.state = m.ctrl.Snapshot()
	m.sel = m.ctrl.Selection()
	return m, nil
}

func (m Model) refusal(action string) string {
	st := m.ctrl.Snapshot()
	switch {
	case st.Scanning:
		return "cannot " + action + " while scanning"
	case !st.MagnetOn:
		return "cannot " + action + " with the magnet off"
	}
	return "cannot " + action
}

func (m Model) View() string {
	s := m.styles
	st, sel := m.state, m.sel

	spinBox := s.Box("Spin field", m.view.Draw(m.vectors).Render(s.Inks), spinCols)
	kBox := s.Box("k-space", s.kspacePanel(kspace.LinesFilled(st.Progress), kspaceCols, kspaceRows), kspaceCols+3)
	sliceBox := s.Box("Reconstruction", slicePanel(sel, st, sliceCols, sliceRows), sliceCols)
	top := lipgloss.JoinHorizontal(lipgloss.Top, spinBox, kBox, sliceBox)

	curveBox := s.Box("Relaxation: "+sel.Region.String(), curvesPanel(sel.Region, st.ElapsedMs, curveWidth, curveRows), curveWidth+8)
	statusBox := s.Box("Scanner", m.statusPanel(), 44)
	middle := lipgloss.JoinHorizontal(lipgloss.Top, curveBox, statusBox)

	textWidth := max(min(m.width, defaultWidth)-4, 40)
	explainBox := s.Box("Clinical notes", explain.Render(m.explanation, textWidth), textWidth)

	var b strings.Builder
	b.WriteString(m.header() + "\n")
	b.WriteString(top + "\n" + middle + "\n" + explainBox + "\n")
	if m.notice != "" {
		b.WriteString(s.Warn.Render(m.notice) + "\n")
	}
	b.WriteString(s.Hint.Render("s:Scan  x:Stop  m:Magnet  b:B0  r:Region  p:Sequence  t:Theme  ?:Help  q:Quit"))

	if m.showHelp {
		return helpText + "\n\n" + b.String()
	}
	return b.String()
}

func (m Model) header() string {
	title := GradientText("NEUROSPIN", m.theme.Primary, m.theme.Accent)
	parts := []string{title, m.styles.Muted.Render("MRI physics console")}
	if m.owner != "" {
		parts = append(parts, m.styles.Value.Render("licensed to "+m.owner))
	}
	if m.latest.HasUpdate {
		note := "update " + m.latest.LatestVersion + " available"
		if m.latest.Force {
			parts = append(parts, m.styles.Error.Render(note+" (required)"))
		} else {
			parts = append(parts, m.styles.Warn.Render(note))
		}
	}
	return strings.Join(parts, "  ·  ")
}

func (m Model) statusPanel() string {
	s := m.styles
	st, sel := m.state, m.sel
	tr, te := sel.Sequence.Timing()

	row := func(label, value string) string {
		return s.Label.Render(label) + s.Value.Render(value) + "\n"
	}

	var b strings.Builder
	magnet := s.Active.Render("ON")
	if !st.MagnetOn {
		magnet = s.Error.Render("OFF")
	}
	b.WriteString(s.Label.Render("Magnet") + magnet + "\n")
	b.WriteString(row("B0", fmt.Sprintf("%.1f T", st.FieldStrength)))
	b.WriteString(row("Larmor", fmt.Sprintf("%.2f MHz", st.LarmorMHz())))
	b.WriteString(row("Sequence", sel.Sequence.String()))
	b.WriteString(row("TR / TE", fmt.Sprintf("%.0f / %.0f ms", tr, te)))
	b.WriteString(row("Phase", st.Phase.Label()))

	scan := "idle"
	if st.Scanning {
		scan = AnimatedSpinner(m.ticks) + fmt.Sprintf(" %.0f%%", st.Progress)
	} else if st.Progress >= 100 {
		scan = "complete"
	}
	b.WriteString(row("Scan", scan))
	b.WriteString(s.Label.Render("Progress") + s.ProgressBar(st.Progress/100, 24) + "\n")
	b.WriteString(s.Separator(36) + "\n")
	b.WriteString(row("Mxy / Mz", fmt.Sprintf("%.2f / %.2f", m.mxy, m.mz)))
	b.WriteString(s.Label.Render("Signal") + s.Value.Render(Sparkline(m.mxyHistory, 24, 0, 1)))
	return b.String()
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  S/Space  - Start scan               ║
║  X        - Stop scan                ║
║  M        - Toggle magnet (quench)   ║
║  B        - Cycle field strength     ║
║  R        - Cycle anatomical region  ║
║  P        - Cycle pulse sequence     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
