package tui

import (
	"fmt"

	"runsound/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService    *service.QueryService
	playlistService *service.PlaylistService
	data            *service.DashboardData
	loading         bool
	err             error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, ps *service.PlaylistService) DashboardModel {
	return DashboardModel{
		queryService:    qs,
		playlistService: ps,
		loading:         true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.Dashboard()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || m.data.TotalRuns == 0 {
		return "\n  No runs collected yet. Press '4' to sync with Strava."
	}

	var sections []string

	contextCard := m.renderContextCard()
	modelCard := m.renderModelCard()
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, contextCard, "  ", modelCard)
	sections = append(sections, topRow)

	if len(m.data.WeeklyMileage) > 2 {
		sections = append(sections, m.renderMileageChart())
	}

	sections = append(sections, m.renderRecentRuns())

	help := statusStyle.Render("Press 'r' to refresh, '2' to plan a run, '4' to sync")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderContextCard() string {
	title := cardTitleStyle.Render("Training Context")

	ctx := m.data.Context
	pace := "-"
	if ctx.SuggestedPace != nil {
		pace = fmt.Sprintf("%s - %s /km", formatPace(ctx.SuggestedPace.Min), formatPace(ctx.SuggestedPace.Max))
	}

	lines := []string{
		RenderMetric("Weekly mileage", fmt.Sprintf("%.1f km", ctx.WeeklyMileageKM)),
		RenderMetric("Recent runs", fmt.Sprintf("%d", ctx.RecentRunCount)),
		RenderMetric("Pace consistency", fmt.Sprintf("%.2f", ctx.PaceConsistency)),
		RenderMetric("Fatigue", string(ctx.Fatigue)),
		RenderMetric("Suggested pace", pace),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderModelCard() string {
	title := cardTitleStyle.Render("Model")

	var lines []string
	if trainedOn, ok := m.playlistService.ModelInfo(); ok {
		lines = append(lines, RenderMetric("Status", "trained"))
		lines = append(lines, RenderMetric("Examples", fmt.Sprintf("%d", trainedOn)))
		if m.data.Model != nil {
			lines = append(lines, RenderMetric("Trained at", m.data.Model.TrainedAt.Format("Jan 2 15:04")))
		}
	} else {
		lines = append(lines, RenderMetric("Status", "not trained"))
		lines = append(lines, helpDescStyle.Render("Sync more runs to train the model"))
	}
	lines = append(lines, RenderMetric("Weather coverage", fmt.Sprintf("%.0f%%", m.data.WeatherCoverage*100)))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderMileageChart() string {
	title := cardTitleStyle.Render("Weekly Mileage - Last 12 Weeks")

	series := make([]float64, len(m.data.WeeklyMileage))
	for i, w := range m.data.WeeklyMileage {
		series[i] = w.KM
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentRuns() string {
	title := cardTitleStyle.Render("Recent Runs")

	if len(m.data.RecentRuns) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No runs yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-22s  %-8s  %8s  %9s  %7s",
		"Date", "Name", "Type", "Distance", "Pace", "Temp"))

	var rows []string
	rows = append(rows, header)

	for i, r := range m.data.RecentRuns {
		if i >= 5 {
			break
		}

		temp := "-"
		if r.TempC != nil {
			temp = fmt.Sprintf("%.0f°C", *r.TempC)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %-22s  %-8s  %6.1fkm  %6s/km  %7s",
			r.StartTimeLocal.Format("Jan 02"),
			truncateName(r.Name, 22),
			r.Type,
			r.DistanceKM,
			formatPace(r.AvgPaceMinKM),
			temp,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

// formatPace renders min/km as m:ss
func formatPace(paceMinKM float64) string {
	minutes := int(paceMinKM)
	seconds := int((paceMinKM - float64(minutes)) * 60)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
