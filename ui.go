package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"liftlogic/console/internal/history"
	"liftlogic/console/internal/journal"
	"liftlogic/console/internal/state"
	"liftlogic/console/internal/view"
	"liftlogic/console/internal/wire"
	"liftlogic/console/logging"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc"))
	liveStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	offlineStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f87171"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#facc15"))
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)
)

// Messages flowing into the Update loop. All writes to the store and the
// ring happen there, so the two producers interleave on one event loop.

type streamMsg streamEvent

type streamDoneMsg struct{}

type commandResultMsg struct {
	action string
	seq    uint64
	snap   wire.Snapshot
	err    error
}

type bootstrapMsg struct {
	snap wire.Snapshot
	err  error
}

type journalErrMsg struct{ err error }

// model is the console's display surface: it renders projections of the
// current snapshot plus history and routes operator intent into the
// command dispatcher.
type model struct {
	cfg      Config
	store    *state.Store
	ring     *history.Ring
	commands *commandClient
	stream   *streamSupervisor
	journal  *journal.Store
	log      logging.Publisher

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	selectedCar int
	schedulers  []string

	// Spawn form state; while active, keystrokes go to the inputs.
	formActive bool
	formIndex  int
	formInputs []textinput.Model

	lastErr   string
	lastEvent string
}

func newModel(cfg Config, store *state.Store, ring *history.Ring, commands *commandClient,
	stream *streamSupervisor, jstore *journal.Store, log logging.Publisher) *model {
	if log == nil {
		log = logging.NopPublisher()
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	inputs := make([]textinput.Model, 3)
	for i, label := range []string{"origin", "destination", "count"} {
		in := textinput.New()
		in.Prompt = label + ": "
		in.CharLimit = 4
		in.Width = 6
		inputs[i] = in
	}
	inputs[2].SetValue("25")

	return &model{
		cfg:        cfg,
		store:      store,
		ring:       ring,
		commands:   commands,
		stream:     stream,
		journal:    jstore,
		log:        log,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		schedulers: append([]string(nil), fallbackSchedulers...),
		formInputs: inputs,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bootstrapCmd(), m.waitForStream())
}

func (m *model) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.commands.Bootstrap(context.Background())
		return bootstrapMsg{snap: snap, err: err}
	}
}

func (m *model) waitForStream() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.stream.Events()
		if !ok {
			return streamDoneMsg{}
		}
		return streamMsg(ev)
	}
}

func (m *model) recordCmd(point history.Point) tea.Cmd {
	if m.journal == nil {
		return nil
	}
	return func() tea.Msg {
		if err := m.journal.Record(context.Background(), point); err != nil {
			return journalErrMsg{err: err}
		}
		return nil
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.applySnapshot(msg.snap, state.OriginBootstrap)
		return m, nil

	case streamMsg:
		return m.handleStream(streamEvent(msg))

	case streamDoneMsg:
		return m, nil

	case commandResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		if !m.store.ApplyCommand(msg.snap, msg.seq) {
			m.log.Publish(context.Background(), logging.Event{
				Type:     logging.EventCommandStale,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryCommand,
				Payload:  map[string]string{"action": msg.action},
			})
			return m, nil
		}
		m.lastErr = ""
		m.lastEvent = msg.action + " applied"
		m.noteScheduler(msg.snap.Scheduler)
		m.clampSelection(msg.snap.Building)
		return m, nil

	case journalErrMsg:
		m.log.Publish(context.Background(), logging.Event{
			Type:     logging.EventJournalError,
			Severity: logging.SeverityWarn,
			Category: logging.CategoryJournal,
			Payload:  map[string]string{"error": msg.err.Error()},
		})
		return m, nil

	case tea.KeyMsg:
		if m.formActive {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleStream(ev streamEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForStream()}
	switch ev.kind {
	case streamOpened:
		m.lastEvent = "stream live"
	case streamSnapshot:
		m.applySnapshot(ev.snapshot, state.OriginStream)
		point := history.Point{
			Time:        ev.snapshot.Time,
			AverageWait: ev.snapshot.Metrics.AverageWait,
			Throughput:  ev.snapshot.Metrics.Throughput,
		}
		m.ring.Record(point)
		if cmd := m.recordCmd(point); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case streamDecodeError:
		m.lastErr = "bad stream payload: " + ev.err.Error()
	case streamClosed:
		if ev.err != nil {
			m.lastEvent = "stream offline"
		}
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot routes stream and bootstrap writes; command responses go
// through ApplyCommand with their sequence instead.
func (m *model) applySnapshot(snap wire.Snapshot, origin state.Origin) {
	m.store.Apply(snap, origin)
	m.noteScheduler(snap.Scheduler)
	m.clampSelection(snap.Building)
}

// noteScheduler grows the advertised-algorithm set from what the service
// actually reports, so the cycle key tracks the remote option set.
func (m *model) noteScheduler(name string) {
	if name == "" {
		return
	}
	for _, s := range m.schedulers {
		if s == name {
			return
		}
	}
	m.schedulers = append(m.schedulers, name)
}

func (m *model) clampSelection(b wire.Building) {
	if len(b.Elevators) == 0 {
		m.selectedCar = 0
		return
	}
	if m.selectedCar >= len(b.Elevators) {
		m.selectedCar = len(b.Elevators) - 1
	}
	if m.selectedCar < 0 {
		m.selectedCar = 0
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.selectedCar--
		if snap, ok := m.store.Current(); ok {
			m.clampSelection(snap.Building)
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.selectedCar++
		if snap, ok := m.store.Current(); ok {
			m.clampSelection(snap.Building)
		}
		return m, nil
	case key.Matches(msg, m.keys.Algorithm):
		return m, m.cycleAlgorithm()
	case key.Matches(msg, m.keys.Spawn):
		m.openForm()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleSelected()
	}
	return m, nil
}

func (m *model) cycleAlgorithm() tea.Cmd {
	snap, ok := m.store.Current()
	if !ok {
		m.lastErr = "no state yet; cannot switch algorithm"
		return nil
	}
	next := m.schedulers[0]
	for i, s := range m.schedulers {
		if s == snap.Scheduler {
			next = m.schedulers[(i+1)%len(m.schedulers)]
			break
		}
	}
	seq := m.store.NextCommandSeq()
	known := append([]string(nil), m.schedulers...)
	action := "switch algorithm to " + next
	m.lastEvent = action + "…"
	return func() tea.Msg {
		resp, err := m.commands.SetAlgorithm(context.Background(), next, known)
		return commandResultMsg{action: action, seq: seq, snap: resp, err: err}
	}
}

func (m *model) toggleSelected() tea.Cmd {
	snap, ok := m.store.Current()
	if !ok || len(snap.Building.Elevators) == 0 {
		m.lastErr = "no cars to toggle"
		return nil
	}
	m.clampSelection(snap.Building)
	car := snap.Building.Elevators[m.selectedCar]
	makeAvailable := !car.InService()
	reason := "operator toggle"
	seq := m.store.NextCommandSeq()
	action := fmt.Sprintf("toggle elevator %d", car.ID)
	m.lastEvent = action + "…"
	return func() tea.Msg {
		resp, err := m.commands.SetAvailability(context.Background(), car.ID, makeAvailable, reason)
		return commandResultMsg{action: action, seq: seq, snap: resp, err: err}
	}
}

func (m *model) openForm() {
	m.formActive = true
	m.formIndex = 0
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formInputs[0].Focus()
}

func (m *model) closeForm() {
	m.formActive = false
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "shift+tab", "enter":
		if msg.String() == "enter" && m.formIndex == len(m.formInputs)-1 {
			cmd := m.submitForm()
			m.closeForm()
			return m, cmd
		}
		if msg.String() == "shift+tab" {
			m.formIndex--
		} else {
			m.formIndex++
		}
		if m.formIndex < 0 {
			m.formIndex = len(m.formInputs) - 1
		}
		m.formIndex %= len(m.formInputs)
		for i := range m.formInputs {
			if i == m.formIndex {
				m.formInputs[i].Focus()
			} else {
				m.formInputs[i].Blur()
			}
		}
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *model) submitForm() tea.Cmd {
	origin, err := strconv.Atoi(strings.TrimSpace(m.formInputs[0].Value()))
	if err != nil {
		m.lastErr = "spawn passengers: origin must be a number"
		return nil
	}
	destination, err := strconv.Atoi(strings.TrimSpace(m.formInputs[1].Value()))
	if err != nil {
		m.lastErr = "spawn passengers: destination must be a number"
		return nil
	}
	count, err := strconv.Atoi(strings.TrimSpace(m.formInputs[2].Value()))
	if err != nil {
		m.lastErr = "spawn passengers: count must be a number"
		return nil
	}
	seq := m.store.NextCommandSeq()
	action := fmt.Sprintf("spawn %d passengers %d→%d", count, origin, destination)
	m.lastEvent = action + "…"
	return func() tea.Msg {
		resp, err := m.commands.SpawnBatch(context.Background(), origin, destination, count)
		return commandResultMsg{action: action, seq: seq, snap: resp, err: err}
	}
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")

	snap, ok := m.store.Current()
	if !ok {
		b.WriteString(dimStyle.Render("waiting for first snapshot…"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.boardView(snap))
		b.WriteString("\n")
		b.WriteString(m.metricsView(snap))
		b.WriteString("\n")
	}

	if m.formActive {
		b.WriteString(m.formView())
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render("✗ " + m.lastErr))
		b.WriteString("\n")
	} else if m.lastEvent != "" {
		b.WriteString(dimStyle.Render(m.lastEvent))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *model) headerView() string {
	var status string
	switch m.stream.Status() {
	case statusConnecting:
		status = pendingStyle.Render(m.spinner.View() + " connecting")
	case statusLive:
		status = liveStyle.Render("● live")
	default:
		status = offlineStyle.Render("○ offline")
	}
	title := headerStyle.Render("LiftLogic ops")
	parts := []string{title, status}
	if snap, ok := m.store.Current(); ok {
		parts = append(parts,
			fmt.Sprintf("tick %d", snap.Time),
			"scheduler "+snap.Scheduler,
			dimStyle.Render("via "+m.store.LastOrigin().String()),
		)
	}
	return strings.Join(parts, "  ")
}

// boardWidth is how many columns the shaft gauge spans.
const boardWidth = 40

func (m *model) boardView(snap wire.Snapshot) string {
	var rows []string
	maxWaiting := view.MaxWaiting(snap.Building)

	for i, car := range snap.Building.Elevators {
		pct := view.CarOffsetPercent(car.Position)
		gauge := shaftGauge(pct, boardWidth)
		label := fmt.Sprintf("car %2d %s %5.1f%%  %-7s %-11s pax %d",
			car.ID, gauge, pct, car.DoorState, car.Status, car.PassengerCount)
		if len(car.Targets) > 0 {
			label += fmt.Sprintf("  → %v", car.Targets)
		}
		switch {
		case i == m.selectedCar:
			label = selectedStyle.Render("▸ " + label)
		case !car.InService():
			label = errorStyle.Render("  " + label)
		default:
			label = "  " + label
		}
		rows = append(rows, label)
	}

	heat := m.heatmapView(snap.Building, maxWaiting)
	return panelStyle.Render(strings.Join(rows, "\n") + "\n\n" + heat)
}

// shaftGauge draws a car's vertical position as a horizontal gauge,
// bottom of the shaft at the left edge.
func shaftGauge(pct float64, width int) string {
	if width < 3 {
		width = 3
	}
	pos := int(pct / 100 * float64(width-1))
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = '·'
	}
	cells[pos] = '█'
	return "[" + string(cells) + "]"
}

func (m *model) heatmapView(b wire.Building, maxWaiting int) string {
	if len(b.Floors) == 0 {
		return dimStyle.Render("no floors")
	}
	var sb strings.Builder
	sb.WriteString(dimStyle.Render("floors " + strconv.Itoa(len(b.Floors)-1) + "→0 "))
	for _, f := range view.FloorsTopDown(b) {
		ratio := view.OccupancyRatio(f, maxWaiting)
		color := view.OccupancyColor(ratio)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
	}
	hot := view.HotFloors(b, 5)
	var hotParts []string
	for _, f := range hot {
		if f.TotalWaiting == 0 {
			break
		}
		hotParts = append(hotParts, fmt.Sprintf("%d(%d)", f.Number, f.TotalWaiting))
	}
	if len(hotParts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("busiest: " + strings.Join(hotParts, " ")))
	}
	return sb.String()
}

func (m *model) metricsView(snap wire.Snapshot) string {
	metrics := snap.Metrics
	line := fmt.Sprintf("wait %.1f (p95 %.1f)  ride %.1f (p95 %.1f)  throughput %.0f",
		metrics.AverageWait, metrics.WaitP95, metrics.AverageRide, metrics.RideP95, metrics.Throughput)
	width := m.width - 6
	if width < 20 {
		width = 60
	}
	spark := view.SparkRow(m.ring.Window(m.cfg.SparkWindow), width)
	if spark == "" {
		spark = dimStyle.Render("collecting history…")
	}
	return panelStyle.Render(line + "\n" + spark)
}

func (m *model) formView() string {
	fields := make([]string, len(m.formInputs))
	for i, in := range m.formInputs {
		fields[i] = in.View()
	}
	return panelStyle.Render("spawn batch  " + strings.Join(fields, "  ") +
		dimStyle.Render("  (enter to send, esc to cancel)"))
}
