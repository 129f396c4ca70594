package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robinebers/transcript-rag/internal/lessons"
	"github.com/robinebers/transcript-rag/internal/llm"
	"github.com/robinebers/transcript-rag/internal/rag"
	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type chatState int

const (
	chatIdle chatState = iota
	chatThinking
)

type chatModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	messages    []chatMessage
	history     []llm.Message
	pipeline    *rag.Pipeline
	st          store.Gateway
	filter      []string
	state       chatState
	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
}

// answerMsg is sent when a question has been answered.
type answerMsg struct {
	answer  string
	sources []store.Chunk
	err     error
}

func newChatModel(pipeline *rag.Pipeline, st store.Gateway) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your lessons..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		spinner:  sp,
		input:    ti,
		pipeline: pipeline,
		st:       st,
		state:    chatIdle,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + borders/gaps (1 line).
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Ask a question about your ingested lessons.\n\nCommands: /help, /lessons, /lesson <name>, /clear, /exit"))

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func askQuestion(pipeline *rag.Pipeline, question string, filter []string, history []llm.Message) tea.Cmd {
	return func() tea.Msg {
		answer, res, err := pipeline.Ask(context.Background(), question, filter, history)
		if err != nil {
			return answerMsg{err: err}
		}
		var sources []store.Chunk
		if res != nil {
			sources = res.Chunks
		}
		return answerMsg{answer: answer, sources: sources}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case answerMsg:
		m.state = chatIdle
		if msg.err != nil {
			var unknown *lessons.UnknownLessonError
			if errors.As(msg.err, &unknown) {
				m.messages = append(m.messages, chatMessage{role: "error", content: unknown.Error()})
			} else {
				m.messages = append(m.messages, chatMessage{role: "error", content: msg.err.Error()})
			}
		} else {
			content := msg.answer
			if len(msg.sources) > 0 {
				content += "\n\n" + formatSources(msg.sources)
			}
			m.messages = append(m.messages, chatMessage{role: "assistant", content: content})
			m.history = append(m.history, llm.Message{Role: "assistant", Content: msg.answer})
			if len(m.history) > 20 {
				m.history = m.history[len(m.history)-20:]
			}
		}
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.state != chatIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.state != chatIdle {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			if handled, cmd := m.handleCommand(question); handled {
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.history = append(m.history, llm.Message{Role: "user", Content: question})
			m.state = chatThinking
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()

			return m, tea.Batch(
				m.spinner.Tick,
				askQuestion(m.pipeline, question, m.filter, m.history[:len(m.history)-1]),
			)
		}
	}

	if m.state == chatIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes slash commands. It returns false when the
// input is a regular question.
func (m *chatModel) handleCommand(input string) (bool, tea.Cmd) {
	cmd, rest, _ := strings.Cut(input, " ")
	switch cmd {
	case "/exit", "/quit":
		return true, tea.Quit

	case "/clear":
		m.messages = nil
		m.history = nil
		m.viewport.SetContent(dimStyle.Render("Conversation cleared."))
		return true, nil

	case "/help":
		helpText := "Commands:\n" +
			"  /lessons         - list ingested lessons\n" +
			"  /lesson <name>   - restrict search to a lesson (repeat to add)\n" +
			"  /lesson          - clear the lesson filter\n" +
			"  /clear           - clear conversation history\n" +
			"  /exit            - quit"
		m.pushSystem(helpText)
		return true, nil

	case "/lessons":
		infos, err := m.st.ListLessons()
		if err != nil {
			m.pushError(err.Error())
			return true, nil
		}
		var sb strings.Builder
		sb.WriteString("Lessons:\n")
		for _, info := range infos {
			fmt.Fprintf(&sb, "  %s (%d chunks)\n", info.Name, info.Chunks)
		}
		m.pushSystem(sb.String())
		return true, nil

	case "/lesson":
		name := strings.TrimSpace(rest)
		if name == "" {
			m.filter = nil
			m.pushSystem("Lesson filter cleared.")
			return true, nil
		}
		infos, err := m.st.ListLessons()
		if err != nil {
			m.pushError(err.Error())
			return true, nil
		}
		known := make([]string, len(infos))
		for i, info := range infos {
			known[i] = info.Name
		}
		if err := lessons.Validate([]string{name}, known); err != nil {
			m.pushError(err.Error())
			return true, nil
		}
		m.filter = append(m.filter, name)
		m.pushSystem("Searching only: " + strings.Join(m.filter, ", "))
		return true, nil
	}
	return false, nil
}

func (m *chatModel) pushSystem(content string) {
	m.messages = append(m.messages, chatMessage{role: "system", content: content})
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m *chatModel) pushError(content string) {
	m.messages = append(m.messages, chatMessage{role: "error", content: content})
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func formatSources(chunks []store.Chunk) string {
	var sb strings.Builder
	sb.WriteString("Sources:\n")
	for _, c := range chunks {
		fmt.Fprintf(&sb, "- %s [%s - %s]\n", c.Lesson, c.StartStamp, c.EndStamp)
	}
	return sb.String()
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+msg.content) + "\n\n")
		case "system":
			sb.WriteString(dimStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.state != chatIdle {
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render("Thinking...") + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	if m.state == chatThinking {
		statusText = "thinking..."
	}
	if len(m.filter) > 0 {
		statusText += " · filter: " + strings.Join(m.filter, ", ")
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(" transcript-rag · " + statusText)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
