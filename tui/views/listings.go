package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/tui/styles"
)

type filterField int

const (
	fieldText filterField = iota
	fieldLocation
	fieldMinPrice
	fieldMaxPrice
	fieldCount
)

var filterLabels = [fieldCount]string{"Text", "Location", "Min $", "Max $"}

type listingsMsg struct {
	properties []models.Property
	user       *models.User
	err        error
}

// NotifyMsg asks the app to flash a status message.
type NotifyMsg struct {
	Text  string
	Error bool
}

type deletedMsg struct {
	title string
	err   error
}

type Listings struct {
	listings      *services.ListingService
	accounts      *services.AccountService
	width, height int

	properties  []models.Property
	user        *models.User
	selectedRow int
	loadErr     error

	typeIndex int // 0 = any, otherwise models.PropertyTypes[typeIndex-1]
	opIndex   int // 0 = any, otherwise models.Operations[opIndex-1]
	fields    [fieldCount]string

	editing       bool
	editField     filterField
	draft         [fieldCount]string
	confirmDelete bool
}

func NewListings(listings *services.ListingService, accounts *services.AccountService) Listings {
	return Listings{listings: listings, accounts: accounts}
}

func (l Listings) Init() tea.Cmd {
	return l.Refresh()
}

// Editing reports whether keystrokes belong to the filter editor.
func (l Listings) Editing() bool {
	return l.editing || l.confirmDelete
}

func (l Listings) Refresh() tea.Cmd {
	criteria, err := l.criteria()
	return func() tea.Msg {
		if err != nil {
			return listingsMsg{err: err}
		}
		ctx := context.Background()
		props, err := l.listings.SearchProperties(ctx, criteria)
		user, _ := l.accounts.CurrentUser(ctx)
		return listingsMsg{properties: props, user: user, err: err}
	}
}

func (l Listings) SetSize(w, h int) Listings {
	l.width = w
	l.height = h
	return l
}

// criteria builds search criteria from the filter bar. Unparseable prices
// are reported rather than silently dropped.
func (l Listings) criteria() (models.SearchCriteria, error) {
	c := models.SearchCriteria{
		Text:     strings.TrimSpace(l.fields[fieldText]),
		Location: strings.TrimSpace(l.fields[fieldLocation]),
	}
	if l.typeIndex > 0 {
		c.Type = models.PropertyTypes[l.typeIndex-1]
	}
	if l.opIndex > 0 {
		c.Operation = models.Operations[l.opIndex-1]
	}

	var err error
	if c.MinPrice, err = parsePrice(l.fields[fieldMinPrice]); err != nil {
		return c, fmt.Errorf("min price: %w", err)
	}
	if c.MaxPrice, err = parsePrice(l.fields[fieldMaxPrice]); err != nil {
		return c, fmt.Errorf("max price: %w", err)
	}
	return c, nil
}

func parsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (l Listings) selected() *models.Property {
	if l.selectedRow < 0 || l.selectedRow >= len(l.properties) {
		return nil
	}
	return &l.properties[l.selectedRow]
}

func (l Listings) Update(msg tea.Msg) (Listings, tea.Cmd) {
	switch msg := msg.(type) {
	case listingsMsg:
		l.loadErr = msg.err
		if msg.err != nil {
			return l, nil
		}
		l.properties = msg.properties
		l.user = msg.user
		if l.selectedRow >= len(l.properties) {
			l.selectedRow = len(l.properties) - 1
		}
		if l.selectedRow < 0 {
			l.selectedRow = 0
		}

	case deletedMsg:
		if msg.err != nil {
			return l, notify(fmt.Sprintf("Delete failed: %v", msg.err), true)
		}
		return l, tea.Batch(notify("Deleted "+msg.title, false), l.Refresh())

	case tea.KeyMsg:
		if l.confirmDelete {
			return l.updateConfirm(msg)
		}
		if l.editing {
			return l.updateEditor(msg)
		}
		return l.updateBrowse(msg)
	}
	return l, nil
}

func (l Listings) updateBrowse(msg tea.KeyMsg) (Listings, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if l.selectedRow > 0 {
			l.selectedRow--
		}
	case "down", "j":
		if l.selectedRow < len(l.properties)-1 {
			l.selectedRow++
		}
	case "pgdown", "ctrl+d":
		l.selectedRow += 10
		if l.selectedRow >= len(l.properties) {
			l.selectedRow = len(l.properties) - 1
		}
		if l.selectedRow < 0 {
			l.selectedRow = 0
		}
	case "pgup", "ctrl+u":
		l.selectedRow -= 10
		if l.selectedRow < 0 {
			l.selectedRow = 0
		}
	case "home", "g":
		l.selectedRow = 0
	case "end", "G":
		if len(l.properties) > 0 {
			l.selectedRow = len(l.properties) - 1
		}
	case "t":
		l.typeIndex = (l.typeIndex + 1) % (len(models.PropertyTypes) + 1)
		l.selectedRow = 0
		return l, l.Refresh()
	case "o":
		l.opIndex = (l.opIndex + 1) % (len(models.Operations) + 1)
		l.selectedRow = 0
		return l, l.Refresh()
	case "/", "f":
		l.editing = true
		l.draft = l.fields
		if msg.String() == "/" {
			l.editField = fieldText
		}
	case "c":
		l.typeIndex, l.opIndex = 0, 0
		l.fields = [fieldCount]string{}
		l.selectedRow = 0
		return l, l.Refresh()
	case "x", "delete":
		p := l.selected()
		if p == nil {
			return l, nil
		}
		if !l.user.IsAdmin() {
			return l, notify("Only an admin can delete listings", true)
		}
		l.confirmDelete = true
	}
	return l, nil
}

func (l Listings) updateEditor(msg tea.KeyMsg) (Listings, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		l.editing = false
	case tea.KeyEnter:
		l.editing = false
		l.fields = l.draft
		l.selectedRow = 0
		return l, l.Refresh()
	case tea.KeyTab, tea.KeyDown:
		l.editField = (l.editField + 1) % fieldCount
	case tea.KeyShiftTab, tea.KeyUp:
		l.editField = (l.editField + fieldCount - 1) % fieldCount
	case tea.KeyBackspace:
		v := []rune(l.draft[l.editField])
		if len(v) > 0 {
			l.draft[l.editField] = string(v[:len(v)-1])
		}
	case tea.KeyCtrlU:
		l.draft[l.editField] = ""
	case tea.KeySpace:
		l.draft[l.editField] += " "
	case tea.KeyRunes:
		l.draft[l.editField] += string(msg.Runes)
	}
	return l, nil
}

func (l Listings) updateConfirm(msg tea.KeyMsg) (Listings, tea.Cmd) {
	l.confirmDelete = false
	if msg.String() != "y" {
		return l, notify("Delete cancelled", false)
	}
	p := l.selected()
	if p == nil {
		return l, nil
	}
	id, title := p.ID, p.Title
	return l, func() tea.Msg {
		ctx := context.Background()
		// The session may have changed since the list was loaded.
		if !l.accounts.IsAdmin(ctx) {
			return deletedMsg{title: title, err: fmt.Errorf("admin session required")}
		}
		return deletedMsg{title: title, err: l.listings.DeleteProperty(ctx, id)}
	}
}

func notify(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return NotifyMsg{Text: text, Error: isErr} }
}

func (l Listings) View() string {
	header := styles.Title.Render("Listings") +
		styles.StatValue.Render(fmt.Sprintf("  %d", len(l.properties))) +
		"  " + l.renderSession()

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		l.renderFilterBar(),
		"",
		l.renderTable(),
		"",
		l.renderDetails(),
	)
}

func (l Listings) renderSession() string {
	if l.user == nil {
		return styles.Muted.Render("not signed in (read-only)")
	}
	s := styles.StatLabel.Render(l.user.Email)
	if l.user.IsAdmin() {
		s += " " + styles.AdminBadge.Render("ADMIN")
	}
	return s
}

func (l Listings) renderFilterBar() string {
	typ, op := "any", "any"
	if l.typeIndex > 0 {
		typ = string(models.PropertyTypes[l.typeIndex-1])
	}
	if l.opIndex > 0 {
		op = string(models.Operations[l.opIndex-1])
	}

	values := l.fields
	if l.editing {
		values = l.draft
	}

	parts := []string{
		styles.StatLabel.Render("[t] Type: ") + typ,
		styles.StatLabel.Render("[o] Op: ") + op,
	}
	for i := filterField(0); i < fieldCount; i++ {
		v := values[i]
		if v == "" && !(l.editing && i == l.editField) {
			v = "—"
		}
		label := styles.StatLabel.Render(filterLabels[i] + ": ")
		if l.editing && i == l.editField {
			parts = append(parts, label+styles.FieldActive.Render(v+"▏"))
		} else {
			parts = append(parts, label+v)
		}
	}

	bar := strings.Join(parts, "  ")
	switch {
	case l.confirmDelete:
		if p := l.selected(); p != nil {
			bar += "\n" + styles.StatusError.Render(fmt.Sprintf("Delete %q? [y/N]", p.Title))
		}
	case l.editing:
		bar += "\n" + styles.Muted.Render("Tab next field  Enter apply  Esc cancel  Ctrl+U clear")
	case l.loadErr != nil:
		bar += "\n" + styles.StatusError.Render(l.loadErr.Error())
	default:
		bar += "\n" + styles.Muted.Render("[/] Search  [f] Filters  [c] Clear  [x] Delete")
	}
	return bar
}

func (l Listings) visibleRows() int {
	rows := 15
	if l.height > 0 {
		rows = (l.height * 45) / 100
		if rows < 5 {
			rows = 5
		}
	}
	return rows
}

func (l Listings) renderTable() string {
	if len(l.properties) == 0 {
		return styles.Muted.Render("No listings match")
	}

	header := fmt.Sprintf("%-34s %-10s %-7s %12s %4s %4s %7s %-20s",
		"Title", "Type", "Op", "Price", "Bed", "Bath", "Area", "Location")
	rows := styles.TableHeader.Render(header) + "\n"

	visible := l.visibleRows()
	scrollOffset := 0
	if l.selectedRow >= visible {
		scrollOffset = l.selectedRow - visible + 1
	}
	endRow := scrollOffset + visible
	if endRow > len(l.properties) {
		endRow = len(l.properties)
	}

	for i := scrollOffset; i < endRow; i++ {
		p := l.properties[i]
		row := fmt.Sprintf("%-34s %-10s %-7s %12s %4d %4d %7s %-20s",
			truncate(p.Title, 34),
			truncate(string(p.Type), 10),
			truncate(string(p.Operation), 7),
			FormatPrice(p.Price, p.Operation),
			p.Bedrooms,
			p.Bathrooms,
			formatArea(p.Area),
			truncate(p.Location, 20),
		)
		if i == l.selectedRow {
			rows += styles.TableSelected.Render(row) + "\n"
		} else {
			rows += row + "\n"
		}
	}

	if len(l.properties) > visible {
		rows += styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", scrollOffset+1, endRow, len(l.properties)))
	}
	return rows
}

func (l Listings) renderDetails() string {
	p := l.selected()
	if p == nil {
		return ""
	}

	width := l.width - 4
	if width < 40 {
		width = 76
	}

	lines := []string{
		styles.StatValue.Render(p.Title),
		styles.StatLabel.Render(fmt.Sprintf("%s · %s · %s", p.Type, p.Operation, FormatPrice(p.Price, p.Operation))),
		"",
	}
	if p.Description != "" {
		lines = append(lines, wrapText(p.Description, width-4)...)
		lines = append(lines, "")
	}
	if len(p.Features) > 0 {
		lines = append(lines, styles.StatLabel.Render("Features: ")+strings.Join(p.Features, ", "))
	}
	if p.Contact.WhatsApp != "" {
		lines = append(lines, styles.StatLabel.Render("WhatsApp: ")+p.Contact.WhatsApp)
	}
	if p.Contact.Telegram != "" {
		lines = append(lines, styles.StatLabel.Render("Telegram: ")+p.Contact.Telegram)
	}
	if cover := p.CoverImage(); cover != "" {
		lines = append(lines, styles.Muted.Render(truncate(cover, width-4)))
	}
	lines = append(lines, styles.Muted.Render(fmt.Sprintf("id %s · updated %s", p.ID, humanize.Time(p.UpdatedAt))))

	return styles.DetailBorder.Width(width).Render(strings.Join(lines, "\n"))
}

// FormatPrice renders a price with thousands separators; rentals are monthly.
func FormatPrice(price float64, op models.Operation) string {
	s := "$" + humanize.Commaf(price)
	if op == models.OperationRental {
		s += "/mo"
	}
	return s
}

func formatArea(area float64) string {
	if area <= 0 {
		return "—"
	}
	return humanize.Commaf(area) + "m²"
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 40
	}
	var lines []string
	words := strings.Fields(text)
	var line string
	for _, word := range words {
		if len(line)+len(word)+1 > width {
			lines = append(lines, line)
			line = word
		} else {
			if line != "" {
				line += " "
			}
			line += word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
