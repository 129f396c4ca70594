package tui

import (
	"io"
	"log/slog"

	"github.com/robinebers/transcript-rag/internal/embedder"
	"github.com/robinebers/transcript-rag/internal/llm"
	"github.com/robinebers/transcript-rag/internal/rag"
	"github.com/robinebers/transcript-rag/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewChat
)

// Config holds configuration passed from the CLI layer.
type Config struct {
	DBPath      string
	OllamaURL   string
	EmbedModel  string
	ChatModel   string
	EmbedDim    int
	TimeoutSecs int
	SearchLimit int
	TopK        int
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome welcomeModel
	chat    chatModel
	store   *store.SQLiteStore
	err     error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(checkIndex(m.config), checkModels(m.config))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			if m.welcome.status == indexReady {
				cmd := m.transitionToChat()
				return m, cmd
			}
			// No usable index; nothing to chat over.
			return m, tea.Quit
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToChat() tea.Cmd {
	st, err := store.Open(m.config.DBPath, m.config.EmbedDim)
	if err != nil {
		m.err = err
		return nil
	}
	m.store = st

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emb := embedder.NewOllamaEmbedder(m.config.OllamaURL, m.config.EmbedModel, m.config.TimeoutSecs)
	chat := llm.NewOllamaChat(m.config.OllamaURL, m.config.ChatModel, m.config.TimeoutSecs)
	pipeline := rag.NewPipeline(st, emb, chat, chat, m.config.SearchLimit, m.config.TopK, logger)

	m.chat = newChatModel(pipeline, st)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat

	return nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
