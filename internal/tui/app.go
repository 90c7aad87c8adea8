package tui

import (
	"runsound/internal/service"
	"runsound/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenPlan
	ScreenPlaylists
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard DashboardModel
	plan      PlanModel
	playlists PlaylistsModel
	sync      SyncModel
	help      HelpModel

	// Services
	db              *store.DB
	queryService    *service.QueryService
	syncService     *service.SyncService
	playlistService *service.PlaylistService

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(db *store.DB, syncService *service.SyncService, playlistService *service.PlaylistService, queryService *service.QueryService) *App {
	return &App{
		screen:          ScreenDashboard,
		db:              db,
		queryService:    queryService,
		syncService:     syncService,
		playlistService: playlistService,
		dashboard:       NewDashboardModel(queryService, playlistService),
		plan:            NewPlanModel(playlistService),
		playlists:       NewPlaylistsModel(queryService),
		sync:            NewSyncModel(syncService, playlistService),
		help:            NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings, suspended while a form or sync is busy
		if a.allowGlobalKeys() {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.queryService, a.playlistService)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenPlan
				a.plan = NewPlanModel(a.playlistService)
				return a, a.plan.Init()
			case "3":
				a.screen = ScreenPlaylists
				return a, a.playlists.Init()
			case "4":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.sync.Init()
				}
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case SyncCompleteMsg:
		// Refresh dashboard after sync; the sync screen already reloaded
		// the model.
		a.screen = ScreenDashboard
		a.dashboard = NewDashboardModel(a.queryService, a.playlistService)
		return a, a.dashboard.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenPlan:
		var m tea.Model
		m, cmd = a.plan.Update(msg)
		a.plan = m.(PlanModel)
	case ScreenPlaylists:
		var m tea.Model
		m, cmd = a.playlists.Update(msg)
		a.playlists = m.(PlaylistsModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.sync.Update(msg)
		a.sync = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// allowGlobalKeys reports whether number-key navigation is safe: the plan
// form captures digits while editing, and a running sync should not be
// abandoned mid-flight.
func (a *App) allowGlobalKeys() bool {
	if a.screen == ScreenPlan && a.plan.editing() {
		return false
	}
	if a.screen == ScreenSync && a.sync.syncing {
		return false
	}
	return true
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenPlan:
		content = a.plan.View()
	case ScreenPlaylists:
		content = a.playlists.View()
	case ScreenSync:
		content = a.sync.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("RunSound - Playlists for your next run")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Plan Run", ScreenPlan},
		{"3", "Playlists", ScreenPlaylists},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
