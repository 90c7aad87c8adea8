package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	navSection := m.renderSection("Navigation", []keyHelp{
		{"1", "Dashboard"},
		{"2", "Plan a run"},
		{"3", "Playlist history"},
		{"4", "Sync screen"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	planSection := m.renderSection("Plan Screen", []keyHelp{
		{"tab / down", "Next field"},
		{"shift+tab / up", "Previous field"},
		{"enter", "Next field, or generate on the last one"},
		{"esc", "Back to the form after a result"},
	})
	sections = append(sections, planSection)

	listSection := m.renderSection("Playlists", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"r", "Refresh list"},
	})
	sections = append(sections, listSection)

	syncSection := m.renderSection("Sync Screen", []keyHelp{
		{"s / enter", "Start sync"},
	})
	sections = append(sections, syncSection)

	sections = append(sections, m.renderPipelineHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderPipelineHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("How It Works"))
	lines = append(lines, "")

	steps := []struct {
		name string
		desc string
	}{
		{"Sync", "Pulls your runs from Strava and matches weather to each one."},
		{"Train", "Fits a model on your history: run conditions in, music targets out."},
		{"Plan", "Describe the run you're about to do; the model predicts tempo, energy and valence."},
		{"Shape", "Catalog tracks near the target tempo are ordered into a playlist. Long runs get a warmup and a fast finish."},
	}

	for _, step := range steps {
		lines = append(lines, "  "+helpKeyStyle.Render(step.name))
		lines = append(lines, "  "+helpDescStyle.Render(step.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
