package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/andresrv/qualia/internal/dialogue"
	"github.com/andresrv/qualia/internal/docparse"
	"github.com/andresrv/qualia/internal/protocol"
	"github.com/andresrv/qualia/internal/qdpx"
	"github.com/andresrv/qualia/internal/storage"
	"github.com/andresrv/qualia/internal/synthesis"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store // optional; the recent-analyses resource needs it
	Model string
}

// NewMCPServer creates an MCP server with the interview-analysis tools
// and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"qualia",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("qualia: qualitative interview analysis with document parsing, protocol extraction, code aggregation."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("parse_document",
			mcp.WithDescription("Parse an interview transcript (PDF, DOCX, or plain text) into numbered lines and detect its dialogue structure."),
			mcp.WithString("path", mcp.Description("Path to the transcript file"), mcp.Required()),
		),
		mcpParseDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("parse_protocol",
			mcp.WithDescription("Extract numbered research questions from an interview guide, classify each by role, and list the themes they touch."),
			mcp.WithString("path", mcp.Description("Path to the protocol file")),
			mcp.WithString("text", mcp.Description("Protocol text, used when no path is given")),
		),
		mcpParseProtocol(deps),
	)

	s.AddTool(
		mcp.NewTool("extract_codes",
			mcp.WithDescription("Extract the coding scheme from a QDPX qualitative-research archive."),
			mcp.WithString("path", mcp.Description("Path to the .qdpx archive"), mcp.Required()),
		),
		mcpExtractCodes(deps),
	)

	s.AddTool(
		mcp.NewTool("aggregate_results",
			mcp.WithDescription("Merge per-participant analysis records into a single batch summary with per-dimension code totals."),
			mcp.WithString("results", mcp.Description("JSON array of analysis result objects"), mcp.Required()),
		),
		mcpAggregateResults(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"analyses://recent",
			"Recent Analyses",
			mcp.WithResourceDescription("Last 10 stored analyses (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpParseDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		kind, err := docparse.DetectKind(path)
		if err != nil {
			return mcpError(fmt.Sprintf("unsupported format: %v", err)), nil
		}
		doc, err := docparse.Parse(path, kind)
		if err != nil {
			return mcpError(fmt.Sprintf("parsing document: %v", err)), nil
		}
		structure := dialogue.Detect(doc.Lines)

		b, err := json.Marshal(map[string]any{
			"format":    kind,
			"document":  doc,
			"structure": structure,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpParseProtocol(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		text := req.GetString("text", "")
		if path == "" && text == "" {
			return mcpError("one of path or text is required"), nil
		}

		if path != "" {
			kind, err := docparse.DetectKind(path)
			if err != nil {
				return mcpError(fmt.Sprintf("unsupported format: %v", err)), nil
			}
			doc, err := docparse.Parse(path, kind)
			if err != nil {
				return mcpError(fmt.Sprintf("parsing protocol file: %v", err)), nil
			}
			text = doc.Text
		}

		p := protocol.Parse(text)
		b, err := json.Marshal(map[string]any{
			"protocol": p,
			"summary":  protocol.Summary(p),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpExtractCodes(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		project, err := qdpx.Extract(path)
		if errors.Is(err, qdpx.ErrMalformedArchive) {
			return mcpError(err.Error()), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("extracting archive: %v", err)), nil
		}

		b, err := json.Marshal(project)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal project: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAggregateResults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resultsJSON, err := req.RequireString("results")
		if err != nil {
			return mcpError("results is required"), nil
		}

		var raws []json.RawMessage
		if err := json.Unmarshal([]byte(resultsJSON), &raws); err != nil {
			return mcpError(fmt.Sprintf("invalid results JSON: %v", err)), nil
		}
		if len(raws) == 0 {
			return mcpError("results must not be empty"), nil
		}

		inputs := make([]synthesis.Input, len(raws))
		for i, raw := range raws {
			inputs[i] = synthesis.Input{Raw: raw}
		}

		b, err := json.Marshal(synthesis.Merge(inputs))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal aggregate: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Store == nil {
			return nil, fmt.Errorf("no store configured")
		}
		analyses, err := deps.Store.ListAnalyses(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list analyses: %w", err)
		}

		type analysisSummary struct {
			ID            string `json:"id"`
			ParticipantID string `json:"participant_id"`
			CreatedAt     string `json:"created_at"`
			Excerpt       string `json:"excerpt"`
		}

		summaries := make([]analysisSummary, len(analyses))
		for i, a := range analyses {
			excerpt := a.InputText
			if utf8.RuneCountInString(excerpt) > 200 {
				runes := []rune(excerpt)
				excerpt = string(runes[:200]) + "..."
			}
			summaries[i] = analysisSummary{
				ID:            a.ID,
				ParticipantID: a.ParticipantID,
				CreatedAt:     a.CreatedAt.Format(time.RFC3339),
				Excerpt:       excerpt,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analyses: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
