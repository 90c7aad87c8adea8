package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldRunType = iota
	fieldDistance
	fieldPace
	fieldCount
)

// PlanModel is the plan-a-run screen: a small form that feeds the playlist
// pipeline and then shows the generated playlist.
type PlanModel struct {
	playlistService *service.PlaylistService

	inputs [fieldCount]textinput.Model
	focus  int

	generating bool
	result     *service.PlanResult
	err        error
	formErr    string
}

// NewPlanModel creates a new plan model
func NewPlanModel(ps *service.PlaylistService) PlanModel {
	m := PlanModel{playlistService: ps}

	runType := textinput.New()
	runType.Placeholder = "easy, steady, tempo, interval, long, race"
	runType.CharLimit = 10
	runType.Width = 40
	runType.Focus()
	m.inputs[fieldRunType] = runType

	distance := textinput.New()
	distance.Placeholder = "10"
	distance.CharLimit = 6
	distance.Width = 40
	m.inputs[fieldDistance] = distance

	pace := textinput.New()
	pace.Placeholder = "5:30"
	pace.CharLimit = 6
	pace.Width = 40
	m.inputs[fieldPace] = pace

	return m
}

// Init initializes the plan screen
func (m PlanModel) Init() tea.Cmd {
	return textinput.Blink
}

// editing reports whether keystrokes belong to the form
func (m PlanModel) editing() bool {
	return !m.generating && m.result == nil && m.err == nil
}

type planDoneMsg struct {
	result *service.PlanResult
	err    error
}

// Update handles messages
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planDoneMsg:
		m.generating = false
		m.result = msg.result
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.generating {
			return m, nil
		}

		// Result or error view: esc returns to the form
		if m.result != nil || m.err != nil {
			if msg.String() == "esc" {
				m.result = nil
				m.err = nil
			}
			return m, nil
		}

		switch msg.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "enter":
			if m.focus < fieldCount-1 {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			req, err := m.buildRequest()
			if err != nil {
				m.formErr = err.Error()
				return m, nil
			}
			m.formErr = ""
			m.generating = true
			return m, m.generate(req)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *PlanModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m PlanModel) buildRequest() (service.PlanRequest, error) {
	runType := analysis.ParseRunType(strings.TrimSpace(m.inputs[fieldRunType].Value()))
	if runType == analysis.RunUnknown {
		return service.PlanRequest{}, fmt.Errorf("run type must be one of easy, steady, tempo, interval, long, race")
	}

	distance, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[fieldDistance].Value()), 64)
	if err != nil || distance <= 0 {
		return service.PlanRequest{}, fmt.Errorf("distance must be a positive number of kilometers")
	}

	pace, err := parsePace(strings.TrimSpace(m.inputs[fieldPace].Value()))
	if err != nil {
		return service.PlanRequest{}, err
	}

	return service.PlanRequest{
		RunType:    runType,
		DistanceKM: distance,
		PaceMinKM:  pace,
		Start:      time.Now(),
	}, nil
}

func (m PlanModel) generate(req service.PlanRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := m.playlistService.Generate(context.Background(), req)
		return planDoneMsg{result: result, err: err}
	}
}

// parsePace accepts "5:30" or "5.5" as minutes per kilometer
func parsePace(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("pace is required")
	}
	if min, sec, ok := strings.Cut(s, ":"); ok {
		mins, err1 := strconv.Atoi(min)
		secs, err2 := strconv.Atoi(sec)
		if err1 != nil || err2 != nil || mins <= 0 || secs < 0 || secs > 59 {
			return 0, fmt.Errorf("pace must look like 5:30 (min:sec per km)")
		}
		return float64(mins) + float64(secs)/60, nil
	}
	pace, err := strconv.ParseFloat(s, 64)
	if err != nil || pace <= 0 {
		return 0, fmt.Errorf("pace must look like 5:30 or 5.5 (min/km)")
	}
	return pace, nil
}

// View renders the plan screen
func (m PlanModel) View() string {
	if m.generating {
		return "\n  Generating playlist...\n\n" + statusStyle.Render("  Searching the catalog and shaping tracks")
	}

	if m.err != nil {
		return m.renderError()
	}

	if m.result != nil {
		return m.renderResult()
	}

	return m.renderForm()
}

func (m PlanModel) renderForm() string {
	title := cardTitleStyle.Render("Plan Your Run")

	labels := [fieldCount]string{"Run type", "Distance (km)", "Pace (min/km)"}

	var lines []string
	for i := range m.inputs {
		lines = append(lines, metricLabelStyle.Render(labels[i])+m.inputs[i].View())
	}
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("tab: next field  enter: generate playlist"))

	if m.formErr != "" {
		lines = append(lines, errorStyle.Render("  "+m.formErr))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m PlanModel) renderError() string {
	var sections []string
	sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))

	// A publish failure still produced a playlist worth showing
	if m.result != nil && len(m.result.Playlist.Entries) > 0 {
		sections = append(sections, warningStyle.Render("  The playlist was shaped but could not be published:"))
		sections = append(sections, m.renderTracks())
	}

	sections = append(sections, statusStyle.Render("\n  esc: back to form"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlanModel) renderResult() string {
	r := m.result

	title := cardTitleStyle.Render(r.Playlist.Title)

	var lines []string
	lines = append(lines, RenderMetric("Target tempo", fmt.Sprintf("%.0f BPM", r.Targets.TempoBPM)))
	lines = append(lines, RenderMetric("Energy", fmt.Sprintf("%.2f", r.Targets.Energy)))
	lines = append(lines, RenderMetric("Valence", fmt.Sprintf("%.2f", r.Targets.Valence)))
	lines = append(lines, RenderMetric("Fatigue", string(r.Context.Fatigue)))
	if r.Context.SuggestedPace != nil {
		lines = append(lines, RenderMetric("Suggested pace",
			fmt.Sprintf("%s - %s /km", formatPace(r.Context.SuggestedPace.Min), formatPace(r.Context.SuggestedPace.Max))))
	}
	if r.Record.SpotifyURL != "" {
		lines = append(lines, RenderMetric("Spotify", r.Record.SpotifyURL))
	}
	if r.ShortfallWarning != "" {
		lines = append(lines, warningStyle.Render("  "+r.ShortfallWarning))
	}

	summary := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))

	return lipgloss.JoinVertical(lipgloss.Left,
		summary,
		m.renderTracks(),
		statusStyle.Render("  esc: plan another run"),
	)
}

func (m PlanModel) renderTracks() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Tracks (%d)", len(m.result.Playlist.Entries)))

	var rows []string
	for i, e := range m.result.Playlist.Entries {
		tempo := "-"
		if e.Track.TempoBPM != nil {
			tempo = fmt.Sprintf("%.0f", *e.Track.TempoBPM)
		}

		style := phaseMainStyle
		switch e.Phase {
		case "warmup":
			style = phaseWarmupStyle
		case "finish":
			style = phaseFinishStyle
		}

		row := style.Render(fmt.Sprintf("  %2d. %-30s %-20s %4s BPM  %s",
			i+1, truncateName(e.Track.Name, 30), truncateName(e.Track.Artist, 20), tempo, e.Phase))
		rows = append(rows, row)
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")))
}
