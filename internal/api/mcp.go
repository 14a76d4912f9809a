package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/feedlens/feedlens/internal/model"
	"github.com/feedlens/feedlens/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store  *storage.Store
	Models *model.Service
}

// NewMCPServer creates an MCP server exposing the sentiment analytics
// to desktop agents.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"feedlens",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("feedlens — customer feedback sentiment analytics: score text, inspect stats, browse recent feedback."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("predict_sentiment",
			mcp.WithDescription("Score a piece of text with the trained sentiment model."),
			mcp.WithString("text", mcp.Description("The text to classify"), mcp.Required()),
		),
		mcpPredictSentiment(deps),
	)

	s.AddTool(
		mcp.NewTool("feedback_stats",
			mcp.WithDescription("Aggregate counts of stored feedback by sentiment and platform."),
		),
		mcpFeedbackStats(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_feedback",
			mcp.WithDescription("List the most recently ingested feedback entries."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 10)")),
		),
		mcpRecentFeedback(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"feedlens://model",
			"Active Sentiment Model",
			mcp.WithResourceDescription("Training time, accuracy, classes, and vocabulary size of the active model"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceModel(deps),
	)

	return s
}

func mcpPredictSentiment(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		m, err := deps.Models.Current()
		if errors.Is(err, model.ErrNotLoaded) {
			return mcpError("no trained model; train one first"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("loading model: %v", err)), nil
		}

		b, err := json.Marshal(m.Predict(text))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal prediction: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpFeedbackStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := feedbackStats(deps.Store)
		if err != nil {
			return mcpError(fmt.Sprintf("computing stats: %v", err)), nil
		}
		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecentFeedback(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		records, err := deps.Store.ListFeedback(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing feedback: %v", err)), nil
		}
		if len(records) == 0 {
			return mcpText("[]"), nil
		}

		items := make([]feedbackItem, len(records))
		for i, rec := range records {
			items[i] = toFeedbackItem(rec)
		}
		b, err := json.Marshal(items)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal feedback: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceModel(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		m, err := deps.Models.Current()
		if errors.Is(err, model.ErrNotLoaded) {
			return nil, fmt.Errorf("no trained model")
		}
		if err != nil {
			return nil, fmt.Errorf("loading model: %w", err)
		}

		summary := map[string]any{
			"trained_at": m.TrainedAt.Format(time.RFC3339),
			"accuracy":   m.Accuracy,
			"classes":    m.Classifier.Classes,
			"vocabulary": m.Vectorizer.NumFeatures(),
		}
		b, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal model summary: %w", err)
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
