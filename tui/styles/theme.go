package styles

import "github.com/charmbracelet/lipgloss"

var (
	brand  = lipgloss.Color("#0F766E")
	accent = lipgloss.Color("#F59E0B")
	good   = lipgloss.Color("#16A34A")
	warn   = lipgloss.Color("#D97706")
	bad    = lipgloss.Color("#DC2626")
	dim    = lipgloss.Color("#78716C")
	bright = lipgloss.Color("#FAFAF9")
)

// Chrome
var (
	Muted = lipgloss.NewStyle().Foreground(dim)

	TabActive = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(brand).
			Padding(0, 2)

	TabInactive = lipgloss.NewStyle().
			Foreground(dim).
			Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(brand).
		Padding(0, 1)

	StatusBar = lipgloss.NewStyle().
			Foreground(dim).
			Padding(0, 1)

	Notification      = lipgloss.NewStyle().Foreground(good).Padding(0, 1)
	ErrorNotification = lipgloss.NewStyle().Foreground(bad).Padding(0, 1)
)

// Dashboard cards
var (
	CardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(0, 1)

	StatValue = lipgloss.NewStyle().Bold(true).Foreground(bright)
	StatLabel = lipgloss.NewStyle().Foreground(dim)
)

// Listings table, filter bar and detail pane
var (
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(brand).
			Padding(0, 1)

	TableSelected = lipgloss.NewStyle().
			Background(brand).
			Foreground(bright)

	FieldActive = lipgloss.NewStyle().
			Foreground(bright).
			Background(accent)

	DetailBorder = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(accent).
			Padding(0, 1)

	AdminBadge = lipgloss.NewStyle().Bold(true).Foreground(accent)
)

// Activity levels
var (
	StatusSuccess = lipgloss.NewStyle().Foreground(good)
	StatusPending = lipgloss.NewStyle().Foreground(warn)
	StatusError   = lipgloss.NewStyle().Foreground(bad)
)
