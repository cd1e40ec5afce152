package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmribeiro/geminiweb/internal/api"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/history"
	"github.com/dmribeiro/geminiweb/internal/models"
	"github.com/dmribeiro/geminiweb/internal/render"
)

// animationTickMsg drives the loading animation
type animationTickMsg time.Time

type (
	responseMsg struct {
		output *models.ModelOutput
	}
	errMsg struct {
		err error
	}
)

// chatSession is the session surface the TUI needs
type chatSession interface {
	SendMessage(prompt string, images []*api.UploadedImage) (*models.ModelOutput, error)
	SetMetadata(cid, rid, rcid string)
	CID() string
	RID() string
	RCID() string
	GetModel() models.Model
}

// historyRecorder persists chat turns. A nil recorder disables persistence.
type historyRecorder interface {
	AppendMessage(id, role, content, thoughts string) error
	SetMetadata(id, cid, rid, rcid string) error
}

// chatMessage is one rendered message in the transcript
type chatMessage struct {
	role     string // "user" or "assistant"
	content  string
	thoughts string
}

// Model is the bubbletea model for the chat screen
type Model struct {
	session   chatSession
	modelName string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	messages       []chatMessage
	loading        bool
	ready          bool
	err            error
	animationFrame int

	// Conversation persistence. Both nil when running without history.
	conversationID string
	store          historyRecorder

	width  int
	height int
}

// NewChatModel creates a chat model without history persistence
func NewChatModel(session chatSession, modelName string) Model {
	return newModel(session, modelName, "", nil, nil)
}

// NewChatModelWithConversation creates a chat model that records every
// turn into the given conversation. Previous messages are preloaded
// into the transcript.
func NewChatModelWithConversation(session chatSession, modelName string, conv *history.Conversation, store historyRecorder) Model {
	var preloaded []chatMessage
	var convID string
	if conv != nil {
		convID = conv.ID
		for _, msg := range conv.Messages {
			preloaded = append(preloaded, chatMessage{
				role:     msg.Role,
				content:  msg.Content,
				thoughts: msg.Thoughts,
			})
		}
	}
	return newModel(session, modelName, convID, store, preloaded)
}

func newModel(session chatSession, modelName, convID string, store historyRecorder, preloaded []chatMessage) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		session:        session,
		modelName:      modelName,
		textarea:       ta,
		spinner:        s,
		messages:       preloaded,
		conversationID: convID,
		store:          store,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.loading {
				m.loading = false
			} else {
				return m, tea.Quit
			}

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if !m.loading && input != "" {
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				m.messages = append(m.messages, chatMessage{
					role:    "user",
					content: input,
				})
				m.recordMessage("user", input, "")
				m.updateViewport()
				m.viewport.GotoBottom()

				m.loading = true
				m.err = nil
				m.animationFrame = 0
				m.textarea.Reset()

				return m, tea.Batch(
					m.sendMessage(input),
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case responseMsg:
		m.loading = false
		m.messages = append(m.messages, chatMessage{
			role:     "assistant",
			content:  msg.output.Text(),
			thoughts: msg.output.Thoughts(),
		})
		m.recordMessage("assistant", msg.output.Text(), msg.output.Thoughts())
		m.recordMetadata()
		m.updateViewport()
		m.viewport.GotoBottom()

	case errMsg:
		m.loading = false
		m.err = msg.err

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only forward key events to the textarea so escape sequences from
	// other messages never leak into the input.
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// recordMessage appends a turn to the history store, best effort
func (m *Model) recordMessage(role, content, thoughts string) {
	if m.store == nil || m.conversationID == "" {
		return
	}
	_ = m.store.AppendMessage(m.conversationID, role, content, thoughts)
}

// recordMetadata saves the server-side ids so the conversation can be
// resumed in a later run.
func (m *Model) recordMetadata() {
	if m.store == nil || m.conversationID == "" {
		return
	}
	_ = m.store.SetMetadata(m.conversationID, m.session.CID(), m.session.RID(), m.session.RCID())
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("✦ Gemini Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	))
	sections = append(sections, header)

	var messagesContent string
	if len(m.messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, m.formatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to Gemini Chat"),
		"",
		welcomeStyle.Width(width).Render("Start a conversation by typing a message below"),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Gemini is thinking ")
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// sendMessage returns a command that submits the prompt to the session
func (m Model) sendMessage(prompt string) tea.Cmd {
	return func() tea.Msg {
		output, err := m.session.SendMessage(prompt, nil)
		if err != nil {
			return errMsg{err: err}
		}
		return responseMsg{output: output}
	}
}

// updateViewport rebuilds the transcript content
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.role == "user" {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Gemini")
			content.WriteString(label + "\n")

			if msg.thoughts != "" {
				thoughts := thoughtsStyle.Width(bubbleWidth - 4).Render("💭 " + msg.thoughts)
				content.WriteString(thoughts + "\n")
			}

			rendered, err := render.MarkdownWithWidth(msg.content, bubbleWidth-4)
			if err != nil {
				rendered = msg.content
			}
			rendered = strings.TrimRight(rendered, "\n")

			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError renders an error with structured details and a hint
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("⚠ Error: %v", err)))

	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)

	var gemErr *apierrors.GeminiError
	if errors.As(err, &gemErr) && gemErr.HTTPStatus > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", gemErr.HTTPStatus)))
	}

	hintedStyle := lipgloss.NewStyle().Foreground(colorPrimary).PaddingLeft(2)

	var usageErr *apierrors.UsageLimitError
	var netErr *apierrors.NetworkError
	var timeoutErr *apierrors.TimeoutError

	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString("\n")
		sb.WriteString(hintedStyle.Render("💡 Try 'geminiweb auto-login' to refresh your session"))
	case errors.As(err, &usageErr):
		sb.WriteString("\n")
		sb.WriteString(hintedStyle.Render("💡 Usage limit reached. Try again later or use a different model"))
	case errors.As(err, &netErr):
		sb.WriteString("\n")
		sb.WriteString(hintedStyle.Render("💡 Check your internet connection"))
	case errors.As(err, &timeoutErr):
		sb.WriteString("\n")
		sb.WriteString(hintedStyle.Render("💡 Request timed out. Try again"))
	}

	return sb.String()
}

// RunChat starts the chat TUI on a fresh session without persistence
func RunChat(client *api.GeminiClient, modelName string) error {
	m := NewChatModel(client.StartChat(), modelName)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunChatWithConversation starts the chat TUI on a session that records
// turns into conv through store.
func RunChatWithConversation(session *api.ChatSession, modelName string, conv *history.Conversation, store *history.Store) error {
	m := NewChatModelWithConversation(session, modelName, conv, store)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
