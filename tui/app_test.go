package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"estate_admin/services"
	"estate_admin/storage"
	"estate_admin/tui/views"
)

func newTestModel(backup func() bool) model {
	kv := storage.NewMemoryKV()
	return initialModel(Deps{
		Listings: services.NewListingService(kv),
		Accounts: services.NewAccountService(kv, services.NewPlaintextCredentials(kv), "admin@admin.com"),
		Activity: views.NewActivityLog(),
		Backup:   backup,
	})
}

func pressB(m model) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	return next.(model)
}

func TestBackupKey(t *testing.T) {
	cases := []struct {
		name    string
		backup  func() bool
		want    string
		wantErr bool
	}{
		{"no destination", func() bool { return false }, "Backups not configured", true},
		{"no backup hook", nil, "Backups not configured", true},
		{"triggered", func() bool { return true }, "Backup triggered!", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := pressB(newTestModel(tc.backup))
			if m.notification != tc.want || m.notifyError != tc.wantErr {
				t.Fatalf("got %q (error=%v), want %q (error=%v)", m.notification, m.notifyError, tc.want, tc.wantErr)
			}
		})
	}
}
