package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/tui/styles"
)

type dashboardDataMsg struct {
	stats *models.ListingStats
	users int
	user  *models.User
	err   error
}

type Dashboard struct {
	listings      *services.ListingService
	accounts      *services.AccountService
	width, height int
	stats         *models.ListingStats
	users         int
	user          *models.User
	err           error
}

func NewDashboard(listings *services.ListingService, accounts *services.AccountService) Dashboard {
	return Dashboard{listings: listings, accounts: accounts}
}

func (d Dashboard) Init() tea.Cmd {
	return d.Refresh()
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := d.listings.Stats(ctx)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		users, _ := d.accounts.ListUsers(ctx)
		user, _ := d.accounts.CurrentUser(ctx)
		return dashboardDataMsg{stats: stats, users: len(users), user: user}
	}
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (Dashboard, tea.Cmd) {
	if msg, ok := msg.(dashboardDataMsg); ok {
		d.err = msg.err
		if msg.err == nil {
			d.stats = msg.stats
			d.users = msg.users
			d.user = msg.user
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	if d.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.Title.Render("Dashboard"),
			styles.StatusError.Render(d.err.Error()),
		)
	}
	if d.stats == nil {
		return styles.Title.Render("Dashboard") + "\n" + styles.Muted.Render("Loading...")
	}
	if !d.user.IsAdmin() {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.Title.Render("Dashboard"),
			d.renderStatCard("Listings", fmt.Sprintf("%d", d.stats.Total)),
			styles.Muted.Render("Sign in as an admin (estate -login) for the full dashboard"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Dashboard"),
		d.renderStatCards(),
		"",
		styles.Title.Render("By type"),
		d.renderTypeCards(),
	)
}

func (d Dashboard) renderStatCards() string {
	cards := []string{
		d.renderStatCard("Listings", fmt.Sprintf("%d", d.stats.Total)),
		d.renderStatCard("For sale", fmt.Sprintf("%d", d.stats.ForSale)),
		d.renderStatCard("For rent", fmt.Sprintf("%d", d.stats.ForRent)),
		d.renderStatCard("Sale value", "$"+humanize.Commaf(d.stats.TotalSaleValue)),
		d.renderStatCard("Accounts", fmt.Sprintf("%d", d.users)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (d Dashboard) renderStatCard(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.StatValue.Render(value),
		styles.StatLabel.Render(label),
	)
	return styles.CardBorder.Width(18).Render(content)
}

func (d Dashboard) renderTypeCards() string {
	var cards []string
	for _, t := range models.PropertyTypes {
		n := d.stats.ByType[t]
		share := 0.0
		if d.stats.Total > 0 {
			share = float64(n) / float64(d.stats.Total) * 100
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			styles.StatValue.Render(string(t)),
			styles.StatLabel.Render(fmt.Sprintf("Count: %d", n)),
			styles.StatLabel.Render(fmt.Sprintf("Share: %.0f%%", share)),
		)
		cards = append(cards, styles.DetailBorder.Width(20).Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
