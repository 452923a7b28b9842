package ui

import (
	"fmt"
	"strings"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/instance"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/oracle"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	MIN_WIDTH  = 44
	MIN_HEIGHT = 12
)

// Controller is the part of an instance the view reports user activity to.
type Controller interface {
	FocusGained() error
	Interacted() error
}

type AppModel struct {
	width, height int
	oracle        *oracle.State
	controller    Controller
	site          domain.SiteAdapter
	sites         []domain.SiteAdapter
	mediaURL      string
	status        instance.Status
	playerExited  bool
	tabs          TabModel
	spinner       spinner.Model
	styles        Styles
}

func InitialModel(state *oracle.State, ctrl Controller, site domain.SiteAdapter, sites []domain.SiteAdapter, mediaURL string) AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return AppModel{
		oracle:     state,
		controller: ctrl,
		site:       site,
		sites:      sites,
		mediaURL:   mediaURL,
		tabs:       NewTabModel(),
		spinner:    s,
		styles:     DefaultStyles(),
	}
}

func (m AppModel) Init() tea.Cmd { return m.spinner.Tick }

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.FocusMsg:
		m.oracle.SetFocused(true)
		m.report(m.controller.FocusGained())
	case tea.BlurMsg:
		m.oracle.SetFocused(false)
	case tea.ResumeMsg:
		m.oracle.SetVisible(true)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "ctrl+z":
			// The terminal no longer reports focus while suspended.
			m.oracle.SetFocused(false)
			m.oracle.SetVisible(false)
			return m, tea.Suspend
		case "tab":
			m.tabs.Next()
		}
		m.report(m.controller.Interacted())
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			m.report(m.controller.Interacted())
		}
	case statusMsg:
		m.status = msg.status
	case playerExitedMsg:
		m.playerExited = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m AppModel) report(err error) {
	if err != nil {
		logger.Log.Debug().Err(err).Msg("Instance not accepting events")
	}
}

func (m AppModel) View() string {
	if m.width < MIN_WIDTH || m.height < MIN_HEIGHT {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, "Terminal too small")
	}

	availableWidth := m.width - m.styles.App.GetHorizontalFrameSize()
	helpHeight := 1
	tabsHeight := 3
	mainHeight := m.height - helpHeight - tabsHeight - m.styles.App.GetVerticalFrameSize()

	var content string
	switch m.tabs.ActiveTab {
	case sitesTab:
		content = m.sitesView()
	default:
		content = m.statusView()
	}

	mainPanel := m.styles.Box.Width(availableWidth - 2).Height(mainHeight - 2).Render(content)
	helpView := m.styles.Help.Width(availableWidth).Render("Help: [tab] switch view | [ctrl+z] hide | [q] quit")

	return m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Top,
		m.tabs.View(),
		mainPanel,
		helpView,
	))
}

func (m AppModel) statusView() string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left, m.styles.Label.Render(label), value)
	}

	focus := m.styles.Muted.Render("unfocused")
	if m.oracle.Focused() {
		focus = m.styles.Playing.Render("focused")
	}

	var element string
	switch {
	case m.playerExited:
		element = m.styles.ErrorText.Render("player exited")
	case !m.status.Bound:
		element = m.spinner.View() + " waiting for player"
	case m.status.Playing:
		element = m.styles.Playing.Render("playing")
	default:
		element = m.styles.Paused.Render("paused")
	}

	verdict := m.styles.Muted.Render("-")
	if m.status.LastTrigger != "" {
		verdict = fmt.Sprintf("%s on %s", m.status.LastVerdict, strings.ReplaceAll(m.status.LastTrigger, "_", " "))
	}

	return strings.Join([]string{
		row("Instance", shortID(m.status.ID)),
		row("Site", m.site.Name),
		row("Media", m.mediaURL),
		row("Focus", focus),
		row("Player", element),
		row("Verdict", verdict),
	}, "\n")
}

func (m AppModel) sitesView() string {
	lines := make([]string, 0, len(m.sites))
	for _, site := range m.sites {
		line := fmt.Sprintf("%-12s %-18s %s", site.Name, site.Match, site.PlayerSelector)
		if site.Name == m.site.Name {
			line = m.styles.Playing.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
