package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/tui/styles"
	"estate_admin/tui/views"
)

type tab int

const (
	tabListings tab = iota
	tabDashboard
	tabActivity
	tabCount
)

// Deps is what the terminal front-end needs from the rest of the program.
type Deps struct {
	Listings *services.ListingService
	Accounts *services.AccountService
	Events   <-chan models.ListingEvent
	Activity *views.ActivityLog
	// Backup starts a backup and reports false when none can run.
	Backup func() bool
	// Refresh makes the watcher poll now.
	Refresh func() bool
}

type model struct {
	deps          Deps
	activeTab     tab
	width, height int
	notification  string
	notifyError   bool
	notifyUntil   time.Time

	listings  views.Listings
	dashboard views.Dashboard
	activity  views.Activity
}

type listingEventMsg models.ListingEvent
type activityTickMsg time.Time

func initialModel(deps Deps) model {
	return model{
		deps:      deps,
		activeTab: tabListings,
		listings:  views.NewListings(deps.Listings, deps.Accounts),
		dashboard: views.NewDashboard(deps.Listings, deps.Accounts),
		activity:  views.NewActivity(deps.Activity),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.listings.Init(),
		m.dashboard.Init(),
		m.activity.Init(),
		waitForEvent(m.deps.Events),
		activityTickCmd(),
	)
}

// waitForEvent blocks on the watcher channel; nothing is polled on a timer.
func waitForEvent(events <-chan models.ListingEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return listingEventMsg(e)
	}
}

func activityTickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return activityTickMsg(t)
	})
}

func (m *model) flash(text string, isErr bool) {
	m.notification = text
	m.notifyError = isErr
	m.notifyUntil = time.Now().Add(3 * time.Second)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.activeTab == tabListings && m.listings.Editing() {
			var cmd tea.Cmd
			m.listings, cmd = m.listings.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "1":
			m.activeTab = tabListings
			return m, nil
		case "2":
			m.activeTab = tabDashboard
			return m, nil
		case "3":
			m.activeTab = tabActivity
			return m, m.activity.Refresh()
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "r":
			if m.deps.Refresh != nil {
				m.deps.Refresh()
			}
			m.flash("Refreshed", false)
			return m, tea.Batch(m.listings.Refresh(), m.dashboard.Refresh())
		case "b":
			if m.deps.Backup != nil && m.deps.Backup() {
				m.flash("Backup triggered!", false)
			} else {
				m.flash("Backups not configured", true)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listings = m.listings.SetSize(msg.Width, msg.Height-4)
		m.dashboard = m.dashboard.SetSize(msg.Width, msg.Height-4)
		m.activity = m.activity.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case listingEventMsg:
		cmds = append(cmds,
			m.listings.Refresh(),
			m.dashboard.Refresh(),
			waitForEvent(m.deps.Events),
		)
		if msg.Kind == models.ListingEventExternal {
			m.flash("Listings changed elsewhere, reloaded", false)
		}
		return m, tea.Batch(cmds...)

	case activityTickMsg:
		return m, tea.Batch(m.activity.Refresh(), activityTickCmd())

	case views.NotifyMsg:
		m.flash(msg.Text, msg.Error)
		return m, nil
	}

	// Key messages go to the active tab only, everything else to all views
	if _, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		switch m.activeTab {
		case tabListings:
			m.listings, cmd = m.listings.Update(msg)
		case tabDashboard:
			m.dashboard, cmd = m.dashboard.Update(msg)
		case tabActivity:
			m.activity, cmd = m.activity.Update(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.listings, cmd = m.listings.Update(msg)
	cmds = append(cmds, cmd)
	m.dashboard, cmd = m.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	m.activity, cmd = m.activity.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderContent(),
		m.renderStatusBar(),
	)
}

func (m model) renderTabs() string {
	tabNames := []string{"1 Listings", "2 Dashboard", "3 Activity"}
	var rendered []string
	for i, name := range tabNames {
		if tab(i) == m.activeTab {
			rendered = append(rendered, styles.TabActive.Render(name))
		} else {
			rendered = append(rendered, styles.TabInactive.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m model) renderContent() string {
	switch m.activeTab {
	case tabListings:
		return m.listings.View()
	case tabDashboard:
		return m.dashboard.View()
	case tabActivity:
		return m.activity.View()
	}
	return ""
}

func (m model) renderStatusBar() string {
	left := "tab Switch  r Refresh  b Backup  q Quit"
	right := ""
	if time.Now().Before(m.notifyUntil) {
		if m.notifyError {
			right = styles.ErrorNotification.Render(m.notification)
		} else {
			right = styles.Notification.Render(m.notification)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 0 {
		gap = 0
	}

	return styles.StatusBar.Render(left) + lipgloss.NewStyle().Width(gap).Render("") + right
}

// Run takes over the terminal until the user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	if deps.Activity == nil {
		deps.Activity = views.NewActivityLog()
	}
	p := tea.NewProgram(
		initialModel(deps),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
