package main

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/dice"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "What do you do?"
)

var classChoices = []string{"Warrior", "Rogue", "Mage", "Cleric", "Ranger", "Bard"}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *state.GameState
	chatViewport viewport.Model
	sheetView    viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Character creation state
	showCreateModal bool
	selectedClass   int
	seed            string
	notice          string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type chatResponseMsg struct {
	response *chat.ChatResponse
	err      error
}

type gameStateMsg struct {
	gameState *state.GameState
	err       error
}

type sessionCreatedMsg struct {
	created *CreateSessionResponse
	err     error
}

type shareLinkMsg struct {
	share *ShareResponse
	err   error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	sheetPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, seed string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	sheetVp := viewport.New(20, 20)

	return ConsoleUI{
		config:          cfg,
		client:          client,
		textarea:        ta,
		chatViewport:    chatVp,
		sheetView:       sheetVp,
		ready:           false,
		showCreateModal: true,
		seed:            seed,
	}
}

func writeSheet(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")

	content.WriteString(fmt.Sprintf("%s\n", gs.Name))
	content.WriteString(fmt.Sprintf("Level %d %s %s\n\n", gs.Level, gs.Race, gs.Class))

	content.WriteString(fmt.Sprintf("HP: %d / %d\n\n", gs.HP, gs.MaxHP))

	if len(gs.Currency) > 0 {
		content.WriteString("Purse:\n")
		denoms := make([]string, 0, len(gs.Currency))
		for d := range gs.Currency {
			denoms = append(denoms, d)
		}
		sort.Strings(denoms)
		for _, d := range denoms {
			content.WriteString(fmt.Sprintf("• %s: %d\n", d, gs.Currency[d]))
		}
		content.WriteString("\n")
	}

	if len(gs.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		for _, item := range gs.Inventory {
			content.WriteString(fmt.Sprintf("• %s\n", item.Name))
		}
	} else {
		content.WriteString("Inventory:\nEmpty\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /roll d20: Roll\n")
	content.WriteString("• /share: Copy link\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// writeChatContent builds the chat content from game state for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("INFINITE TABLETOP") + "\n\n")
	content.WriteString("Describe your actions below and the dungeon master responds.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	if m.notice != "" {
		content.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}

	if m.gameState != nil {
		for _, msg := range m.gameState.ChatHistory {
			switch msg.Role {
			case chat.ChatRoleAgent, chat.ChatRoleSystem:
				formattedMsg := formatNarratorResponse(msg.Content, chatWidth)
				content.WriteString(formattedMsg + "\n\n")
			case chat.ChatRoleUser:
				userMsg := userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n"
				content.WriteString(userMsg)
			}
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.seed != "" {
		// A seed skips character creation entirely
		return m.createSessionCmd(CreateSessionRequest{Seed: m.seed})
	}
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showCreateModal {
		return m.updateCreateModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.sheetView, svCmd = m.sheetView.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, svCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.ready = true
		m.writeChatContent()
		if m.gameState != nil {
			m.sheetView.SetContent(writeSheet(m.gameState))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			// Show the player's turn immediately
			m.gameState.ChatHistory = append(m.gameState.ChatHistory, chat.ChatMessage{
				Role:    chat.ChatRoleUser,
				Content: input,
			})
			m.writeChatContent()

			return m, tea.Batch(m.sendChatCmd(input), progressTick())
		}

	case chatResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			// The server's history includes the applied delta
			m.gameState.ChatHistory = msg.response.ChatHistory
			if len(msg.response.Notices) > 0 {
				m.notice = "(" + strings.Join(msg.response.Notices, ", ") + ")"
			}
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshGameState()

	case gameStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.sheetView.SetContent(writeSheet(m.gameState))
		}

	case shareLinkMsg:
		currentContent := m.chatViewport.View()
		var line string
		if msg.err != nil {
			line = errorStyle.Render("Share failed: " + msg.err.Error())
		} else {
			line = noticeStyle.Render("Share link copied to clipboard:") + "\n" + msg.share.URL
			if err := clipboard.WriteAll(msg.share.URL); err != nil {
				line = noticeStyle.Render("Share link (clipboard unavailable):") + "\n" + msg.share.URL
			}
		}
		m.chatViewport.SetContent(currentContent + line + "\n\n")
		m.chatViewport.GotoBottom()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.sheetView, svCmd = m.sheetView.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, svCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.75) - 4
	sheetWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.sheetView.Width = sheetWidth - 2
	m.sheetView.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func formatNarratorResponse(response string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(response, max(width-len(prefix), 10))
	return narratorStyle.Render(prefix) + wrapped
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	if strings.HasPrefix(cmd, "/roll") {
		if m.loading {
			return m, nil
		}
		sides := 20
		arg := strings.TrimSpace(strings.TrimPrefix(cmd, "/roll"))
		if arg != "" {
			arg = strings.TrimPrefix(arg, "d")
			if n, err := strconv.Atoi(arg); err == nil && slices.Contains(dice.Sizes, n) {
				sides = n
			} else {
				currentContent := m.chatViewport.View()
				m.chatViewport.SetContent(currentContent + errorStyle.Render("Unknown die. Try /roll d4, d6, d8, d10, d12 or d20.") + "\n\n")
				m.chatViewport.GotoBottom()
				return m, nil
			}
		}
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.sendRollCmd(sides), progressTick())
	}

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /roll [d4|d6|d8|d10|d12|d20] - Roll a die (default d20)
• /share - Copy a share link for this adventure
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• The dungeon master narrates and keeps your sheet updated
• Roll dice when the outcome is uncertain
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/share":
		return m, m.shareCmd()
	}

	return m, nil
}

func (m ConsoleUI) sendChatCmd(message string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendChat(m.client, m.config.APIBaseURL, m.gameState.ID, message)
		return chatResponseMsg{resp, err}
	}
}

func (m ConsoleUI) sendRollCmd(sides int) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendRoll(m.client, m.config.APIBaseURL, m.gameState.ID, sides)
		if err != nil {
			return chatResponseMsg{nil, err}
		}
		return chatResponseMsg{&resp.ChatResponse, nil}
	}
}

func (m ConsoleUI) shareCmd() tea.Cmd {
	return func() tea.Msg {
		share, err := getShareLink(m.client, m.config.APIBaseURL, m.gameState.ID)
		return shareLinkMsg{share, err}
	}
}

func (m ConsoleUI) refreshGameState() tea.Cmd {
	return func() tea.Msg {
		gs, err := getSession(m.client, m.config.APIBaseURL, m.gameState.ID)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) createSessionCmd(req CreateSessionRequest) tea.Cmd {
	return func() tea.Msg {
		created, err := createSession(m.client, m.config.APIBaseURL, req)
		return sessionCreatedMsg{created, err}
	}
}

func (m ConsoleUI) updateCreateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameState = msg.created.Session
			m.notice = msg.created.Notice
			m.showCreateModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.writeChatContent()
			m.sheetView.SetContent(writeSheet(m.gameState))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedClass > 0 {
				m.selectedClass--
			}
		case tea.KeyDown:
			if m.selectedClass < len(classChoices)-1 {
				m.selectedClass++
			}
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.createSessionCmd(CreateSessionRequest{
				Class: classChoices[m.selectedClass],
			})
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Use /share first if you want a link to resume this adventure.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCreateModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to start adventure: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading || m.seed != "" {
		content.WriteString(modalTitleStyle.Render("Entering the Dungeon..."))
		content.WriteString("\n\n")
		content.WriteString(noticeStyle.Render("Setting up your adventure..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Choose Your Class"))
		content.WriteString("\n\n")

		for i, class := range classChoices {
			if i == m.selectedClass {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", class)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", class)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCreateModal {
		return m.renderCreateModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	sheetWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
			m.textarea.View(),
		),
	)

	sheetPanel := sheetPanelStyle.Width(sheetWidth).Height(m.height - 2).Render(
		m.sheetView.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, sheetPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
