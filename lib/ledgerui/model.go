// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/adjutant-works/adjutant/lib/archive"
	"github.com/adjutant-works/adjutant/lib/ledger"
)

// Config configures the ledger viewer.
type Config struct {
	// LedgerPath is the ledger file to view. A missing file shows as
	// an empty ledger rather than an error; the dispatcher creates it
	// on first submit.
	LedgerPath string

	// Archive resolves archive references on Done entries to report
	// bodies. Nil disables report rendering.
	Archive *archive.Store

	// Watch follows ledger writes live via inotify.
	Watch bool
}

// sectionTabs is the tab order. Non-canonical sections present in the
// file are reachable through the canonical four only; the dispatcher
// never creates others.
var sectionTabs = []string{
	ledger.SectionActive,
	ledger.SectionWaiting,
	ledger.SectionParked,
	ledger.SectionDone,
}

// reloadMsg delivers a fresh ledger snapshot from the watcher through
// the bubbletea message loop.
type reloadMsg struct {
	snapshot *ledger.Ledger
}

// row is one visible list row: an entry plus its filter match, kept
// together so match positions line up with the rendered text.
type row struct {
	entry *ledger.Entry
	text  string
	match FuzzyResult
}

// renderedReport caches one rendered archive report. Keyed by
// reference; re-rendered when the pane width changes.
type renderedReport struct {
	width int
	text  string
	err   error
}

type model struct {
	cfg   Config
	theme Theme
	keys  KeyMap

	snapshot *ledger.Ledger

	sectionIndex int
	cursor       int
	detailOffset int

	filterInput  string
	filterActive bool

	width  int
	height int
	ready  bool

	slab    *util.Slab
	reports map[string]renderedReport

	snapshots <-chan *ledger.Ledger
	stopWatch func()
}

// Run opens the viewer and blocks until the user quits.
func Run(cfg Config) error {
	m, err := newModel(cfg)
	if err != nil {
		return err
	}
	if m.stopWatch != nil {
		defer m.stopWatch()
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func newModel(cfg Config) (*model, error) {
	if cfg.LedgerPath == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	snapshot, err := readLedger(cfg.LedgerPath)
	if err != nil {
		return nil, err
	}

	m := &model{
		cfg:      cfg,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		snapshot: snapshot,
		slab:     newSlab(),
		reports:  make(map[string]renderedReport),
	}

	if cfg.Watch {
		snapshots, stop, err := watchLedger(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("watching ledger: %w", err)
		}
		m.snapshots = snapshots
		m.stopWatch = stop
	}
	return m, nil
}

// readLedger parses the ledger file, treating a missing file as empty.
func readLedger(path string) (*ledger.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ledger.New(), nil
		}
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return ledger.Parse(data), nil
}

func (m *model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

// waitForSnapshot blocks on the watcher channel and feeds the result
// into the update loop. Re-armed after every reloadMsg.
func (m *model) waitForSnapshot() tea.Cmd {
	if m.snapshots == nil {
		return nil
	}
	snapshots := m.snapshots
	return func() tea.Msg {
		snapshot, ok := <-snapshots
		if !ok {
			return nil
		}
		return reloadMsg{snapshot: snapshot}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case reloadMsg:
		m.snapshot = msg.snapshot
		m.clampCursor()
		return m, m.waitForSnapshot()

	case tea.KeyMsg:
		if m.filterActive {
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

// updateFilter routes keystrokes to the filter input.
func (m *model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.filterInput = ""
		m.filterActive = false
		m.clampCursor()
	case tea.KeyEnter:
		m.filterActive = false
	case tea.KeyBackspace:
		if runes := []rune(m.filterInput); len(runes) > 0 {
			m.filterInput = string(runes[:len(runes)-1])
			m.clampCursor()
		}
	case tea.KeyRunes:
		m.filterInput += string(msg.Runes)
		m.clampCursor()
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.detailOffset = 0
	case key.Matches(msg, m.keys.End):
		if rows := m.visibleRows(); len(rows) > 0 {
			m.cursor = len(rows) - 1
			m.detailOffset = 0
		}

	case key.Matches(msg, m.keys.DetailUp):
		m.detailOffset -= m.bodyHeight() / 2
		if m.detailOffset < 0 {
			m.detailOffset = 0
		}
	case key.Matches(msg, m.keys.DetailDown):
		m.detailOffset += m.bodyHeight() / 2

	case key.Matches(msg, m.keys.TabActive):
		m.selectSection(0)
	case key.Matches(msg, m.keys.TabWaiting):
		m.selectSection(1)
	case key.Matches(msg, m.keys.TabParked):
		m.selectSection(2)
	case key.Matches(msg, m.keys.TabDone):
		m.selectSection(3)
	case key.Matches(msg, m.keys.TabNext):
		m.selectSection((m.sectionIndex + 1) % len(sectionTabs))

	case key.Matches(msg, m.keys.FilterActivate):
		m.filterActive = true
	case key.Matches(msg, m.keys.FilterClear):
		m.filterInput = ""
		m.clampCursor()

	case key.Matches(msg, m.keys.Reload):
		if snapshot, err := readLedger(m.cfg.LedgerPath); err == nil {
			m.snapshot = snapshot
			m.clampCursor()
		}
	}
	return m, nil
}

func (m *model) selectSection(index int) {
	if index == m.sectionIndex {
		return
	}
	m.sectionIndex = index
	m.cursor = 0
	m.detailOffset = 0
}

func (m *model) moveCursor(delta int) {
	rows := m.visibleRows()
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	m.detailOffset = 0
}

func (m *model) clampCursor() {
	rows := m.visibleRows()
	if m.cursor >= len(rows) {
		m.cursor = 0
		if len(rows) > 0 {
			m.cursor = len(rows) - 1
		}
	}
	m.detailOffset = 0
}

// rowText is the line an entry renders and filters as: the ID, the
// status or summary, and the description.
func rowText(entry *ledger.Entry) string {
	parts := []string{entry.ID}
	if status, ok := entry.Get("status"); ok && status != "" {
		parts = append(parts, status)
	} else if summary, ok := entry.Get("summary"); ok && summary != "" {
		parts = append(parts, summary)
	}
	if description, ok := entry.Get("description"); ok && description != "" {
		parts = append(parts, description)
	}
	return strings.Join(parts, "  ")
}

// visibleRows returns the current section's entries that pass the
// filter, in ledger order (newest first, matching insertHead).
func (m *model) visibleRows() []row {
	section := m.snapshot.Section(sectionTabs[m.sectionIndex])
	if section == nil {
		return nil
	}

	pattern := []rune(m.filterInput)
	var rows []row
	for _, entry := range section.Entries {
		text := rowText(entry)
		match := fuzzyMatch(text, pattern, m.slab)
		if !match.Matched {
			continue
		}
		rows = append(rows, row{entry: entry, text: text, match: match})
	}
	return rows
}

func (m *model) selectedEntry() *ledger.Entry {
	rows := m.visibleRows()
	if len(rows) == 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor].entry
}

// --- View ---

const minListWidth = 30

func (m *model) listWidth() int {
	width := m.width * 2 / 5
	if width < minListWidth {
		width = minListWidth
	}
	if width > m.width {
		width = m.width
	}
	return width
}

func (m *model) bodyHeight() int {
	// Header, filter bar, and help line.
	height := m.height - 3
	if height < 1 {
		height = 1
	}
	return height
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.renderHeader()
	filterBar := m.renderFilterBar()
	help := m.renderHelp()

	listPane := m.renderList()
	detailPane := m.renderDetail()
	body := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	return lipgloss.JoinVertical(lipgloss.Left, header, filterBar, body, help)
}

// renderHeader draws the section tabs with entry counts.
func (m *model) renderHeader() string {
	active := lipgloss.NewStyle().
		Foreground(m.theme.HeaderForeground).
		Bold(true).
		Underline(true)
	inactive := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	var tabs []string
	for index, name := range sectionTabs {
		count := 0
		if section := m.snapshot.Section(name); section != nil {
			count = len(section.Entries)
		}
		label := fmt.Sprintf("%d:%s (%d)", index+1, name, count)
		if index == m.sectionIndex {
			tabs = append(tabs, active.Render(label))
		} else {
			tabs = append(tabs, inactive.Render(label))
		}
	}
	return " " + strings.Join(tabs, "  ")
}

func (m *model) renderFilterBar() string {
	style := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	if m.filterActive {
		cursor := lipgloss.NewStyle().
			Foreground(m.theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + m.filterInput + cursor)
	}
	if m.filterInput != "" {
		return lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render(" filter: " + m.filterInput)
	}
	return ""
}

func (m *model) renderHelp() string {
	return lipgloss.NewStyle().
		Foreground(m.theme.HelpText).
		Render(" j/k move  1-4 section  / filter  C-u/C-d report  r reload  q quit")
}

// renderList draws the entry rows with the cursor kept in view.
func (m *model) renderList() string {
	width := m.listWidth()
	height := m.bodyHeight()
	rows := m.visibleRows()

	empty := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if len(rows) == 0 {
		label := "no entries"
		if m.filterInput != "" {
			label = "no matches"
		}
		return lipgloss.NewStyle().Width(width).Height(height).Render(empty.Render(" " + label))
	}

	// Scroll window around the cursor.
	top := 0
	if m.cursor >= height {
		top = m.cursor - height + 1
	}

	var lines []string
	for index := top; index < len(rows) && index-top < height; index++ {
		lines = append(lines, m.renderRow(rows[index], index == m.cursor, width))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

// renderRow draws one list row, highlighting filter match positions.
func (m *model) renderRow(r row, selected bool, width int) string {
	base := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	if status, ok := r.entry.Get("status"); ok {
		base = base.Foreground(m.theme.StatusColor(status))
	} else if sectionTabs[m.sectionIndex] == ledger.SectionDone {
		base = base.Foreground(m.theme.StatusDone)
	}
	match := lipgloss.NewStyle().Foreground(m.theme.MatchForeground).Bold(true)

	matched := make(map[int]bool, len(r.match.Positions))
	for _, position := range r.match.Positions {
		matched[position] = true
	}

	// Style contiguous runs to keep the escape overhead down.
	var line strings.Builder
	runes := []rune(r.text)
	for start := 0; start < len(runes); {
		end := start
		for end < len(runes) && matched[end] == matched[start] {
			end++
		}
		segment := string(runes[start:end])
		if matched[start] {
			line.WriteString(match.Render(segment))
		} else {
			line.WriteString(base.Render(segment))
		}
		start = end
	}

	text := ansi.Truncate(" "+line.String(), width, "…")
	if selected {
		return lipgloss.NewStyle().
			Background(m.theme.SelectedBackground).
			Foreground(m.theme.SelectedForeground).
			Width(width).
			Render(ansi.Strip(text))
	}
	return text
}

// renderDetail draws the selected entry's fields and, when the entry
// carries archive references, the rendered reports.
func (m *model) renderDetail() string {
	width := m.width - m.listWidth() - 1
	if width < 20 {
		width = 20
	}
	height := m.bodyHeight()

	border := lipgloss.NewStyle().
		Width(width).
		Height(height).
		PaddingLeft(1).
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.theme.BorderColor)

	entry := m.selectedEntry()
	if entry == nil {
		return border.Render(lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render("nothing selected"))
	}

	header := lipgloss.NewStyle().
		Foreground(m.theme.HeaderForeground).
		Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	valueStyle := lipgloss.NewStyle().Foreground(m.theme.NormalText)

	contentWidth := width - 2
	var lines []string
	lines = append(lines, header.Render(entry.ID), "")
	for _, field := range entry.Fields {
		rendered := keyStyle.Render(field.Key+": ") + valueStyle.Render(field.Value)
		lines = append(lines, strings.Split(ansi.Wrap(rendered, contentWidth, " ,.;-+|"), "\n")...)
	}

	if artifacts, ok := entry.Get("artifacts"); ok && m.cfg.Archive != nil {
		for _, reference := range strings.Split(artifacts, ",") {
			reference = strings.TrimSpace(reference)
			if reference == "" {
				continue
			}
			lines = append(lines, "", header.Render("report "+reference), "")
			lines = append(lines, m.reportLines(reference, contentWidth)...)
		}
	}

	// Scroll.
	if m.detailOffset > len(lines)-1 {
		m.detailOffset = len(lines) - 1
	}
	if m.detailOffset < 0 {
		m.detailOffset = 0
	}
	visible := lines[m.detailOffset:]
	if len(visible) > height {
		visible = visible[:height]
	}
	return border.Render(strings.Join(visible, "\n"))
}

// reportLines fetches and renders one archived report, caching the
// result until the pane width changes.
func (m *model) reportLines(reference string, width int) []string {
	cached, ok := m.reports[reference]
	if !ok || cached.width != width {
		cached = renderedReport{width: width}
		report, err := m.cfg.Archive.Get(reference)
		if err != nil {
			cached.err = err
		} else {
			cached.text = renderReport(string(report), m.theme, width)
		}
		m.reports[reference] = cached
	}

	if cached.err != nil {
		faint := lipgloss.NewStyle().Foreground(m.theme.StatusFailed)
		return []string{faint.Render("report unavailable: " + cached.err.Error())}
	}
	return strings.Split(cached.text, "\n")
}
