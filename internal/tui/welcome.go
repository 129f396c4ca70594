package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/robinebers/transcript-rag/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexStale
)

type welcomeModel struct {
	status      indexStatus
	staleReason string
	lessonCount int
	ready       bool // true once the index check has completed

	modelsChecked bool
	missingModels []string
	modelsErr     error
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status      indexStatus
	staleReason string
	lessonCount int
}

// checkModelsMsg is sent after querying the Ollama server for installed models.
type checkModelsMsg struct {
	missing []string
	err     error
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return checkIndexMsg{status: indexNotFound}
		}

		st, err := store.Open(cfg.DBPath, cfg.EmbedDim)
		if err != nil {
			return checkIndexMsg{status: indexNotFound}
		}
		defer st.Close()

		lastModel, err := st.GetMeta("embedding_model")
		if err != nil || lastModel == "" {
			return checkIndexMsg{status: indexNotFound}
		}
		if lastModel != cfg.EmbedModel {
			return checkIndexMsg{
				status:      indexStale,
				staleReason: fmt.Sprintf("embedding model changed: %s -> %s", lastModel, cfg.EmbedModel),
			}
		}

		infos, err := st.ListLessons()
		if err != nil || len(infos) == 0 {
			return checkIndexMsg{status: indexNotFound}
		}
		return checkIndexMsg{status: indexReady, lessonCount: len(infos)}
	}
}

func checkModels(cfg Config) tea.Cmd {
	return func() tea.Msg {
		models, err := ListModels(cfg.OllamaURL)
		if err != nil {
			return checkModelsMsg{err: err}
		}
		installed := make(map[string]bool, len(models))
		for _, m := range models {
			installed[m.Name] = true
			// Tags list names like "nomic-embed-text:latest".
			installed[strings.TrimSuffix(m.Name, ":latest")] = true
		}
		var missing []string
		for _, want := range []string{cfg.EmbedModel, cfg.ChatModel} {
			if !installed[want] {
				missing = append(missing, want)
			}
		}
		return checkModelsMsg{missing: missing}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.staleReason = msg.staleReason
		m.lessonCount = msg.lessonCount
		m.ready = true
	case checkModelsMsg:
		m.modelsChecked = true
		m.missingModels = msg.missing
		m.modelsErr = msg.err
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ transcript-rag") + "\n"
	s += subtitleStyle.Render("  Search and chat over your lesson transcripts") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d lessons)", m.lessonCount)) + "\n"
	case indexNotFound:
		s += warnStyle.Render("  ✗ No index found") + "\n"
		s += dimStyle.Render("    Run 'transcript-rag ingest <dir>' to build one") + "\n"
	case indexStale:
		s += warnStyle.Render("  ⚠ Index stale") + "\n"
		s += dimStyle.Render("    "+m.staleReason) + "\n"
		s += dimStyle.Render("    Re-run 'transcript-rag ingest <dir>' to rebuild") + "\n"
	}

	if m.modelsChecked {
		switch {
		case m.modelsErr != nil:
			s += warnStyle.Render("  ⚠ Ollama unreachable") + "\n"
		case len(m.missingModels) > 0:
			s += warnStyle.Render("  ⚠ Models not installed: "+strings.Join(m.missingModels, ", ")) + "\n"
		default:
			s += successStyle.Render("  ✓ Ollama models available") + "\n"
		}
	}

	s += "\n"
	if m.status == indexReady {
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
	} else {
		s += dimStyle.Render("  Press Enter or q to quit") + "\n"
	}
	return s
}
