package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"tuneshift/internal/tasks"
)

// thresholdStep is how far one +/- keypress moves the acceptance threshold.
const thresholdStep = 0.05

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MatchingView ViewState = iota
	ReviewView
	ConfirmView
	PublishView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	engine     *tasks.ConversionEngine
	playlistID string
	opts       tasks.EngineOpts

	width  int
	height int

	resultList list.Model
	base       *tasks.Manifest // manifest as matched, before review
	manifest   *tasks.Manifest // manifest at the current threshold
	threshold  float64

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.ConversionResult
	err          error

	help help.Model
	keys keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

// phaseDoneMsg signals that the engine goroutine for the current view has
// finished and closed the progress channel.
type phaseDoneMsg struct{}

// NewModel creates a new TUI model for converting one playlist.
func NewModel(ctx context.Context, engine *tasks.ConversionEngine, playlistID string, opts tasks.EngineOpts) *Model {
	return &Model{
		ctx:        ctx,
		view:       MatchingView,
		engine:     engine,
		playlistID: playlistID,
		opts:       opts,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the matching phase.
func (m *Model) Init() tea.Cmd {
	return m.startMatching()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() != 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case phaseDoneMsg:
		return m.handlePhaseDone()
	}

	if m.view == ReviewView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case MatchingView:
		return m.renderMatching()
	case ReviewView:
		return m.renderReview()
	case ConfirmView:
		return m.renderConfirm()
	case PublishView:
		return m.renderPublish()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		return m.adjustThreshold(thresholdStep), nil
	case "-", "_":
		return m.adjustThreshold(-thresholdStep), nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = ReviewView
		return m, nil
	case "y":
		m.view = PublishView
		return m, m.startPublish()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.base != nil {
			m.view = ReviewView
			m.result = nil
			m.err = nil
			return m, nil
		}
	}
	return m, nil
}

// handlePhaseDone routes the end of an engine goroutine to the next view.
func (m *Model) handlePhaseDone() (tea.Model, tea.Cmd) {
	m.progressChan = nil

	switch m.view {
	case MatchingView:
		if m.err != nil {
			m.view = ResultView
			return m, nil
		}
		m.base = m.result.Manifest
		m.threshold = m.base.AcceptanceThreshold
		m.setManifest(m.base)
		m.view = ReviewView
		return m, nil

	case PublishView:
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// adjustThreshold reclassifies the matched manifest at a shifted threshold
// and rebuilds the review list in place.
func (m *Model) adjustThreshold(delta float64) *Model {
	t := m.threshold + delta
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t == m.threshold {
		return m
	}

	m.threshold = t
	m.setManifest(m.base.Reclassify(t))
	return m
}

// setManifest installs a manifest and rebuilds the review list from it.
func (m *Model) setManifest(manifest *tasks.Manifest) {
	m.manifest = manifest

	items := make([]list.Item, len(manifest.Results))
	for i, r := range manifest.Results {
		items[i] = resultItem{position: i + 1, result: r}
	}

	index := m.resultList.Index()
	m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = m.reviewTitle()
	m.resultList.SetSize(m.width-4, m.height-8)
	m.resultList.Select(index)
}

func (m *Model) reviewTitle() string {
	name := "Matches"
	if m.manifest.Playlist != nil {
		name = m.manifest.Playlist.Name
	}
	summary := tasks.Summarize(m.manifest, nil)
	return fmt.Sprintf("%s — threshold %.2f, %d/%d accepted", name, m.threshold, summary.Matched, m.manifest.TotalSourceTracks)
}

func (m *Model) startMatching() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		opts := m.opts
		opts.MatchOnly = true
		result, err := m.engine.Run(m.ctx, m.progressChan, m.playlistID, opts)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) startPublish() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	manifest := m.manifest

	go func() {
		opts := m.opts
		opts.Threshold = m.threshold
		result, err := m.engine.PublishManifest(m.ctx, m.progressChan, manifest, opts)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return phaseDoneMsg{}
		}

		update, ok := <-m.progressChan
		if !ok {
			return phaseDoneMsg{}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderMatching() string {
	title := styles.title.Render("Matching Tracks")

	var phase string
	switch m.progress.Phase {
	case tasks.PhaseFetching:
		phase = "Fetching source playlist..."
	case tasks.PhaseMatching:
		phase = fmt.Sprintf("Searching candidates (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderReview() string {
	helpKeys := []key.Binding{m.keys.raise, m.keys.lower, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	summary := tasks.Summarize(m.manifest, nil)

	name := ""
	if m.manifest.Playlist != nil {
		name = m.manifest.Playlist.Name
	}
	title := styles.title.Render(fmt.Sprintf("Publish '%s' to YouTube?", name))
	info := fmt.Sprintf(
		"\nAccepted: %d of %d tracks (threshold %.2f)\nLow confidence: %d\nNo candidate: %d\n",
		summary.Matched, m.manifest.TotalSourceTracks, m.threshold,
		summary.LowConfidence, summary.NoCandidate,
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderPublish() string {
	title := styles.title.Render("Publishing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.PhaseAwaitingAuthorization:
		phase = "Waiting for YouTube authorization (check your browser)..."
	case tasks.PhasePublishing:
		phase = fmt.Sprintf("Inserting tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Preparing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Conversion failed: %v\n\nPress r to review again, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Conversion Complete")
	s := m.result.Summary

	info := fmt.Sprintf(
		"\nMatched: %d/%d\nPublished: %d\nFailed: %d\nSkipped (quota): %d",
		s.Matched, m.result.Manifest.TotalSourceTracks,
		s.Published, s.FailedPublish, s.SkippedForQuota,
	)
	if m.result.Playlist != nil {
		info += fmt.Sprintf("\n\nPlaylist: %s", m.result.Playlist.URL)
	}

	var missed string
	if s.NoCandidate+s.QueryFailed > 0 {
		missed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d tracks had no viable match", s.NoCandidate+s.QueryFailed)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missed, helpView)
}
