package views

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"estate_admin/logging"
	"estate_admin/tui/styles"
)

const activityCapacity = 200

// ActivityEntry is one line of worker activity.
type ActivityEntry struct {
	Timestamp time.Time
	Level     logging.Level
	Source    string
	Message   string
}

// ActivityLog keeps the most recent worker messages. Record is safe to call
// from worker goroutines and matches workers.LogFunc.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (a *ActivityLog) Record(level logging.Level, source, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, ActivityEntry{
		Timestamp: time.Now(),
		Level:     level,
		Source:    source,
		Message:   message,
	})
	if len(a.entries) > activityCapacity {
		a.entries = a.entries[len(a.entries)-activityCapacity:]
	}
}

// Recent returns entries newest first, keeping only those at or above min.
func (a *ActivityLog) Recent(min logging.Level) []ActivityEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ActivityEntry, 0, len(a.entries))
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].Level >= min {
			out = append(out, a.entries[i])
		}
	}
	return out
}

var activityLevels = []struct {
	name  string
	level logging.Level
}{
	{"ALL", logging.LevelDebug},
	{"INFO", logging.LevelInfo},
	{"WARN", logging.LevelWarn},
	{"ERROR", logging.LevelError},
}

type activityMsg struct {
	entries []ActivityEntry
}

type Activity struct {
	log           *ActivityLog
	width, height int
	entries       []ActivityEntry
	levelIndex    int
	scrollOffset  int
}

func NewActivity(log *ActivityLog) Activity {
	return Activity{log: log}
}

func (a Activity) Init() tea.Cmd {
	return a.Refresh()
}

func (a Activity) Refresh() tea.Cmd {
	return func() tea.Msg {
		return activityMsg{a.log.Recent(activityLevels[a.levelIndex].level)}
	}
}

func (a Activity) SetSize(w, h int) Activity {
	a.width = w
	a.height = h
	return a
}

func (a Activity) Update(msg tea.Msg) (Activity, tea.Cmd) {
	switch msg := msg.(type) {
	case activityMsg:
		a.entries = msg.entries
		if a.scrollOffset > a.maxScroll() {
			a.scrollOffset = a.maxScroll()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if a.levelIndex > 0 {
				a.levelIndex--
				a.scrollOffset = 0
				return a, a.Refresh()
			}
		case "right", "l":
			if a.levelIndex < len(activityLevels)-1 {
				a.levelIndex++
				a.scrollOffset = 0
				return a, a.Refresh()
			}
		case "up", "k":
			if a.scrollOffset > 0 {
				a.scrollOffset--
			}
		case "down", "j":
			if a.scrollOffset < a.maxScroll() {
				a.scrollOffset++
			}
		case "g":
			a.scrollOffset = 0
		case "G":
			a.scrollOffset = a.maxScroll()
		}
	}
	return a, nil
}

func (a Activity) visibleLines() int {
	return a.height - 6
}

func (a Activity) maxScroll() int {
	m := len(a.entries) - a.visibleLines()
	if m < 0 {
		return 0
	}
	return m
}

func (a Activity) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Activity"),
		a.renderFilter(),
		"",
		a.renderEntries(),
	)
}

func (a Activity) renderFilter() string {
	var parts []string
	for i, l := range activityLevels {
		if i == a.levelIndex {
			parts = append(parts, styles.TabActive.Render("["+l.name+"]"))
		} else {
			parts = append(parts, styles.TabInactive.Render(l.name))
		}
	}
	return "Filter: " + strings.Join(parts, " ") + "  (←/→ to change)"
}

func (a Activity) renderEntries() string {
	if len(a.entries) == 0 {
		return styles.Muted.Render("No activity yet")
	}

	visible := a.visibleLines()
	if visible < 1 {
		visible = 10
	}

	start := a.scrollOffset
	end := start + visible
	if end > len(a.entries) {
		end = len(a.entries)
	}

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, a.formatEntry(a.entries[i]))
	}

	header := styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(a.entries)))
	return header + "\n" + strings.Join(lines, "\n")
}

func (a Activity) formatEntry(e ActivityEntry) string {
	var level string
	var levelStyle lipgloss.Style
	switch e.Level {
	case logging.LevelDebug:
		level, levelStyle = "DEBUG", styles.Muted
	case logging.LevelInfo:
		level, levelStyle = "INFO", styles.StatusSuccess
	case logging.LevelWarn:
		level, levelStyle = "WARN", styles.StatusPending
	default:
		level, levelStyle = "ERROR", styles.StatusError
	}

	msg := e.Message
	maxLen := a.width - 30
	if maxLen > 3 {
		msg = truncate(msg, maxLen)
	}

	return fmt.Sprintf("%s %s %s%s",
		styles.Muted.Render(e.Timestamp.Format("15:04:05")),
		levelStyle.Render(fmt.Sprintf("%-5s", level)),
		styles.Muted.Render("["+e.Source+"] "),
		msg,
	)
}
