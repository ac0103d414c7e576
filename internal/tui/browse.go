package tui

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/emilianohg/git-global-log/internal/models"
	"github.com/emilianohg/git-global-log/internal/repository"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type Browser struct {
	db     *sql.DB
	width  int
	height int

	filter    textinput.Model
	filtering bool

	commits  []models.Commit
	total    int
	selected int
	loading  bool
	err      error
}

func NewBrowser(db *sql.DB) *Browser {
	filter := textinput.New()
	filter.Placeholder = "author, branch, repo or message"
	filter.CharLimit = 100

	return &Browser{
		db:      db,
		filter:  filter,
		loading: true,
	}
}

type browserDataMsg struct {
	commits []models.Commit
	total   int
	err     error
}

func (b *Browser) Init() tea.Cmd {
	b.loading = true
	return b.loadData
}

func (b *Browser) loadData() tea.Msg {
	commitRepo := repository.NewCommitRepo(b.db)

	total, err := commitRepo.Count()
	if err != nil {
		return browserDataMsg{err: err}
	}

	var commits []models.Commit
	if term := strings.TrimSpace(b.filter.Value()); term != "" {
		commits, err = commitRepo.Search(term)
	} else {
		commits, err = commitRepo.Recent(0)
	}
	if err != nil {
		return browserDataMsg{err: err}
	}

	return browserDataMsg{commits: commits, total: total}
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case browserDataMsg:
		b.loading = false
		b.err = msg.err
		b.commits = msg.commits
		b.total = msg.total
		if b.selected >= len(b.commits) {
			b.selected = 0
		}
		return b, nil

	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil

	case tea.KeyMsg:
		if b.filtering {
			switch msg.String() {
			case "enter":
				b.filtering = false
				b.filter.Blur()
				return b, b.loadData
			case "esc":
				b.filtering = false
				b.filter.Blur()
				b.filter.SetValue("")
				return b, b.loadData
			default:
				var cmd tea.Cmd
				b.filter, cmd = b.filter.Update(msg)
				return b, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "/":
			b.filtering = true
			return b, b.filter.Focus()
		case "up", "k":
			if b.selected > 0 {
				b.selected--
			}
		case "down", "j":
			if b.selected < len(b.commits)-1 {
				b.selected++
			}
		case "r":
			return b, b.loadData
		}
	}

	return b, nil
}

func (b *Browser) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Commit Log"))
	sb.WriteString("\n")

	if b.err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", b.err)))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("q: quit"))
		return sb.String()
	}

	if b.loading {
		sb.WriteString(dimStyle.Render("Loading..."))
		return sb.String()
	}

	if b.filtering || b.filter.Value() != "" {
		sb.WriteString(subtitleStyle.Render("Filter: "))
		sb.WriteString(b.filter.View())
		sb.WriteString("\n")
	}

	sb.WriteString(subtitleStyle.Render(
		fmt.Sprintf("%d shown of %d recorded", len(b.commits), b.total)))
	sb.WriteString("\n\n")

	if len(b.commits) == 0 {
		sb.WriteString(dimStyle.Render("No commits recorded yet."))
	}

	visible := b.visibleRows()
	start, end := b.viewport(visible)

	for i := start; i < end; i++ {
		c := b.commits[i]
		line := fmt.Sprintf("%s  %s  %-18s %-16s %s",
			c.Hash[:8],
			c.Timestamp.Format("2006-01-02 15:04"),
			truncate(c.BranchName(), 18),
			truncate(c.AuthorName, 16),
			truncate(subject(c.Message), 48),
		)

		if i == b.selected {
			sb.WriteString(selectedStyle.Render("> " + line))
		} else {
			sb.WriteString(normalStyle.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	if i := b.selected; i >= 0 && i < len(b.commits) {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(b.commits[i].RepoPath))
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("up/down: select  /: filter  r: refresh  q: quit"))

	return sb.String()
}

func (b *Browser) visibleRows() int {
	// Header, counters, repo path line and help take up the rest
	rows := b.height - 8
	if rows < 5 {
		rows = 5
	}
	return rows
}

// viewport keeps the selected row within the visible window.
func (b *Browser) viewport(visible int) (int, int) {
	start := 0
	if b.selected >= visible {
		start = b.selected - visible + 1
	}
	end := start + visible
	if end > len(b.commits) {
		end = len(b.commits)
	}
	return start, end
}

func subject(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

// truncate shortens by display width, never splitting a multibyte rune.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

func Run(db *sql.DB) error {
	p := tea.NewProgram(NewBrowser(db), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
