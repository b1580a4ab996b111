package views

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"estate_admin/logging"
	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/storage"
)

func newListingsFixture(t *testing.T) (Listings, *services.ListingService, *services.AccountService) {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	listings := services.NewListingService(kv)
	accounts := services.NewAccountService(kv, services.NewPlaintextCredentials(kv), "admin@admin.com")

	if _, err := listings.InitializeSampleData(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return NewListings(listings, accounts), listings, accounts
}

// load runs the view's refresh command synchronously.
func load(t *testing.T, l Listings) Listings {
	t.Helper()
	msg := l.Refresh()()
	l, _ = l.Update(msg)
	return l
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListings_LoadsAll(t *testing.T) {
	l, _, _ := newListingsFixture(t)
	l = load(t, l)

	if len(l.properties) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(l.properties))
	}
	if l.user != nil {
		t.Fatalf("expected no session")
	}
}

func TestListings_TypeAndOperationFilters(t *testing.T) {
	l, _, _ := newListingsFixture(t)

	// t cycles house -> apartment
	l, _ = l.Update(key("t"))
	l, _ = l.Update(key("t"))
	l = load(t, l)
	if len(l.properties) != 1 || l.properties[0].Type != models.PropertyTypeApartment {
		t.Fatalf("expected the apartment only, got %+v", l.properties)
	}

	l, _ = l.Update(key("c"))
	l, _ = l.Update(key("o"))
	l = load(t, l)
	if len(l.properties) != 2 {
		t.Fatalf("expected 2 sale listings, got %d", len(l.properties))
	}
}

func TestListings_EditorAppliesTextFilters(t *testing.T) {
	l, _, _ := newListingsFixture(t)

	l, _ = l.Update(key("/"))
	if !l.Editing() {
		t.Fatalf("expected editor open")
	}
	l, _ = l.Update(key("garaje"))
	l, _ = l.Update(key("tab"))
	l, _ = l.Update(key("norte"))
	l, _ = l.Update(key("enter"))
	if l.Editing() {
		t.Fatalf("expected editor closed")
	}

	l = load(t, l)
	if len(l.properties) != 1 || l.properties[0].Location != "Zona Norte, Ciudad" {
		t.Fatalf("expected the Zona Norte house, got %+v", l.properties)
	}
}

func TestListings_EditorEscDiscards(t *testing.T) {
	l, _, _ := newListingsFixture(t)

	l, _ = l.Update(key("f"))
	l, _ = l.Update(key("zzz"))
	l, _ = l.Update(key("esc"))

	if l.fields[fieldText] != "" {
		t.Fatalf("esc must discard the draft, got %q", l.fields[fieldText])
	}
}

func TestListings_InvalidPriceReported(t *testing.T) {
	l, _, _ := newListingsFixture(t)
	l.fields[fieldMinPrice] = "cheap"

	l = load(t, l)
	if l.loadErr == nil {
		t.Fatalf("expected a price parse error")
	}
}

func TestListings_PriceRange(t *testing.T) {
	l, _, _ := newListingsFixture(t)
	l.fields[fieldMinPrice] = "100"
	l.fields[fieldMaxPrice] = "300,000"

	l = load(t, l)
	if len(l.properties) != 2 {
		t.Fatalf("expected 2 listings in range, got %d", len(l.properties))
	}
}

func TestListings_DeleteRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	l, listings, accounts := newListingsFixture(t)

	if _, err := accounts.CreateUser(ctx, "ana@example.com", "secret1", "Ana"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := accounts.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	l = load(t, l)

	l, cmd := l.Update(key("x"))
	if l.confirmDelete {
		t.Fatalf("non-admin must not reach confirmation")
	}
	if msg, ok := cmd().(NotifyMsg); !ok || !msg.Error {
		t.Fatalf("expected error notification, got %#v", msg)
	}

	props, _ := listings.ListProperties(ctx)
	if len(props) != 3 {
		t.Fatalf("listing deleted without admin session")
	}
}

func TestListings_AdminDelete(t *testing.T) {
	ctx := context.Background()
	l, listings, accounts := newListingsFixture(t)

	if _, err := accounts.CreateUser(ctx, "admin@admin.com", "x", "Root"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := accounts.Login(ctx, "admin@admin.com", "x"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	l = load(t, l)
	target := l.properties[0].ID

	l, _ = l.Update(key("x"))
	if !l.confirmDelete {
		t.Fatalf("expected confirmation prompt")
	}
	_, cmd := l.Update(key("y"))
	msg := cmd()
	if dm, ok := msg.(deletedMsg); !ok || dm.err != nil {
		t.Fatalf("expected successful delete, got %#v", msg)
	}

	got, _ := listings.GetProperty(ctx, target)
	if got != nil {
		t.Fatalf("listing still present")
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(250000, models.OperationSale); got != "$250,000" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPrice(800, models.OperationRental); got != "$800/mo" {
		t.Fatalf("got %q", got)
	}
}

func TestActivityLog(t *testing.T) {
	a := NewActivityLog()
	for i := 0; i < activityCapacity+5; i++ {
		a.Record(logging.LevelInfo, "backup", "ok")
	}
	a.Record(logging.LevelError, "backup", "failed")

	all := a.Recent(logging.LevelDebug)
	if len(all) != activityCapacity {
		t.Fatalf("expected capacity %d, got %d", activityCapacity, len(all))
	}
	if all[0].Message != "failed" {
		t.Fatalf("expected newest first, got %q", all[0].Message)
	}

	errs := a.Recent(logging.LevelError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(errs))
	}
}
