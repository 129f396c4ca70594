package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/robinebers/transcript-rag/internal/rag"
	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing transcript search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	st, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := newPipeline(cfg, st, 0, logger)

	s := mcpserver.NewMCPServer("transcript-rag", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchTranscriptsTool(), makeSearchHandler(p))
	s.AddTool(listLessonsTool(), makeListLessonsHandler(st))
	s.AddTool(getLessonTool(), makeGetLessonHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchTranscriptsTool() mcp.Tool {
	return mcp.NewTool("search_transcripts",
		mcp.WithDescription("Search the ingested lesson transcripts using hybrid keyword + vector retrieval with reranking. Returns transcript excerpts with lesson names and timestamps."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword query to search the transcripts"),
		),
		mcp.WithString("lessons",
			mcp.Description("Optional comma-separated lesson names to restrict the search to"),
		),
	)
}

func listLessonsTool() mcp.Tool {
	return mcp.NewTool("list_lessons",
		mcp.WithDescription("List all ingested lessons with their chunk counts and ingestion times."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func getLessonTool() mcp.Tool {
	return mcp.NewTool("get_lesson",
		mcp.WithDescription("Get a contiguous slice of a lesson's transcript in temporal order."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("lesson",
			mcp.Required(),
			mcp.Description("Lesson name as listed by list_lessons"),
		),
		mcp.WithNumber("from",
			mcp.Description("First chunk index to return (default 0)"),
		),
		mcp.WithNumber("count",
			mcp.Description("Number of chunks to return (default 20)"),
		),
	)
}

// --- Handler factories ---

func makeSearchHandler(p *rag.Pipeline) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		var lessonFilter []string
		if raw := req.GetString("lessons", ""); raw != "" {
			for _, name := range strings.Split(raw, ",") {
				if name = strings.TrimSpace(name); name != "" {
					lessonFilter = append(lessonFilter, name)
				}
			}
		}

		res, err := p.Search(ctx, query, lessonFilter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, res)), nil
	}
}

func makeListLessonsHandler(st store.Gateway) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		infos, err := st.ListLessons()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list lessons failed: %v", err)), nil
		}
		if len(infos) == 0 {
			return mcp.NewToolResultText("No lessons ingested yet. Run 'transcript-rag ingest <dir>' first."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Lessons (%d)\n\n", len(infos))
		for _, info := range infos {
			fmt.Fprintf(&sb, "- **%s** (%d chunks, ingested %s)\n",
				info.Name, info.Chunks, info.IngestedAt.Format("2006-01-02 15:04"))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeGetLessonHandler(st store.Gateway) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lesson := req.GetString("lesson", "")
		if lesson == "" {
			return mcp.NewToolResultError("lesson is required"), nil
		}
		from := req.GetInt("from", 0)
		if from < 0 {
			from = 0
		}
		count := req.GetInt("count", 20)
		if count <= 0 {
			count = 20
		}

		indexes := make([]int, count)
		for i := range indexes {
			indexes[i] = from + i
		}
		chunks, err := st.ChunksAt(lesson, indexes)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get lesson failed: %v", err)), nil
		}
		if len(chunks) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no chunks for lesson %q at index %d — call list_lessons to see available lessons", lesson, from)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (chunks %d-%d)\n\n", lesson, chunks[0].Index, chunks[len(chunks)-1].Index)
		for _, c := range chunks {
			fmt.Fprintf(&sb, "[%s - %s]\n%s\n\n", c.StartStamp, c.EndStamp, c.Text)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, res *rag.Result) string {
	if res == nil || len(res.Chunks) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d excerpts)\n\n", query, len(res.Chunks))
	if !res.Refined {
		fmt.Fprintf(&sb, "_Reranking unavailable (%s); results use fused order._\n\n", res.FallbackReason)
	}

	for i, c := range res.Chunks {
		fmt.Fprintf(&sb, "### Excerpt %d: %s [%s - %s]\n\n%s\n\n",
			i+1, c.Lesson, c.StartStamp, c.EndStamp, c.Text)
	}
	return sb.String()
}
