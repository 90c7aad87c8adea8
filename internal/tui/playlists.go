package tui

import (
	"fmt"

	"runsound/internal/service"
	"runsound/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PlaylistsModel is the playlist history screen model
type PlaylistsModel struct {
	queryService *service.QueryService
	playlists    []store.PlaylistRecord
	cursor       int
	loading      bool
	err          error
}

// NewPlaylistsModel creates a new playlists model
func NewPlaylistsModel(qs *service.QueryService) PlaylistsModel {
	return PlaylistsModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the playlists screen
func (m PlaylistsModel) Init() tea.Cmd {
	return m.loadPlaylists
}

type playlistsLoadedMsg struct {
	playlists []store.PlaylistRecord
	err       error
}

func (m PlaylistsModel) loadPlaylists() tea.Msg {
	playlists, err := m.queryService.Playlists()
	return playlistsLoadedMsg{playlists: playlists, err: err}
}

// Update handles messages
func (m PlaylistsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case playlistsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.playlists = msg.playlists
		if m.cursor >= len(m.playlists) {
			m.cursor = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.playlists)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.loadPlaylists
		}
	}
	return m, nil
}

// View renders the playlists screen
func (m PlaylistsModel) View() string {
	if m.loading {
		return "\n  Loading playlists..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	title := cardTitleStyle.Render("Generated Playlists")

	if len(m.playlists) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title,
			"No playlists yet. Press '2' to plan a run."))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-12s  %-28s  %-8s  %6s  %6s  %6s",
		"Created", "Title", "Type", "Tempo", "Tracks", ""))

	var rows []string
	rows = append(rows, header)

	for i, p := range m.playlists {
		note := ""
		if p.Shortfall {
			note = "short"
		}

		line := fmt.Sprintf("%-12s  %-28s  %-8s  %4.0f  %6d  %6s",
			p.CreatedAt.Format("Jan 02 15:04"),
			truncateName(p.Title, 28),
			p.RunType,
			p.TargetTempo,
			p.TrackCount,
			note,
		)

		if i == m.cursor {
			rows = append(rows, navActiveStyle.Render("> "+line))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)

	var detail string
	if m.cursor < len(m.playlists) {
		p := m.playlists[m.cursor]
		detail = statusStyle.Render(fmt.Sprintf("  %s  |  targets: %.0f BPM, energy %.2f, valence %.2f\n  %s",
			p.Title, p.TargetTempo, p.TargetEnergy, p.TargetValence, p.SpotifyURL))
	}

	footer := statusStyle.Render("  j/k: move  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left,
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table)),
		detail,
		footer,
	)
}
