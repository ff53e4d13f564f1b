package tui

import (
	"fmt"
	"strings"

	"stocknews-client/src/models"

	"github.com/charmbracelet/lipgloss"
)

const maxHeadlines = 8

// -----------------------------------------------------------------------------

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("StockNews"))
	b.WriteString("  ")
	b.WriteString(sessionStyle.Render(sessionLine(m.sess)))
	b.WriteString("\n")

	if m.dash.HasError {
		b.WriteString(errorStyle.Render(m.dash.Error))
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(m.sidebar()),
		newsPaneStyle.Render(m.news()),
	))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("1/2/3 select view  tab next  r refresh  q quit"))
	return b.String()
}

// -----------------------------------------------------------------------------

func sessionLine(s models.MSessionState) string {
	switch {
	case s.Loading:
		return "Checking session..."
	case s.Status == models.SessionAuthenticated && s.User != nil:
		return "Signed in as " + s.User.Username
	default:
		return "Not signed in"
	}
}

// -----------------------------------------------------------------------------

func (m *Model) sidebar() string {
	view := m.dash.Rotation.CurrentView
	var b strings.Builder

	b.WriteString(headingStyle.Render(view.Title()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Next view in %ds", m.dash.Rotation.SecondsRemaining)))
	b.WriteString("\n")

	tabs := make([]string, 0, len(models.Views))
	for i, v := range models.Views {
		label := fmt.Sprintf("%d %s", i+1, tabLabel(v))
		if v == view {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	items := m.dash.CurrentItems()
	if len(items) == 0 {
		if m.dash.Loading {
			b.WriteString(dimStyle.Render("Loading..."))
		} else {
			b.WriteString(dimStyle.Render("No data"))
		}
		return b.String()
	}

	for _, item := range items {
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			symbolStyle.Render(fmt.Sprintf("%-6s", item.Symbol)),
			fmt.Sprintf("%-16s", truncate(item.Name, 16)),
			fmt.Sprintf("%9s", item.FormattedPrice()),
			changeStyle(item.Gaining()).Render(fmt.Sprintf("%8s", item.FormattedChange())),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}

func tabLabel(v models.MView) string {
	switch v {
	case models.ViewStocks:
		return "Stocks"
	case models.ViewMutualFunds:
		return "Funds"
	default:
		return "ETFs"
	}
}

// -----------------------------------------------------------------------------

func (m *Model) news() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Top Headlines"))
	b.WriteString("\n")

	if len(m.dash.News) == 0 {
		b.WriteString(dimStyle.Render("No headlines"))
		return b.String()
	}

	width := m.width - sidebarWidth - 8
	if width < 30 {
		width = 60
	}
	for i, h := range m.dash.News {
		if i == maxHeadlines {
			break
		}
		b.WriteString(truncate(h.Headline, width))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(truncate(h.Source, width)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// -----------------------------------------------------------------------------

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
