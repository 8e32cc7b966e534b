// Package mcp exposes the issue corpus over the Model Context Protocol,
// so coding agents can run the same hybrid search the HTTP API serves.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gimlabs/gim/application/service"
	"github.com/gimlabs/gim/domain/search"
)

// Searcher runs hybrid queries for the search tool.
type Searcher interface {
	Query(ctx context.Context, q search.Query) (service.SearchPage, error)
}

// IssueLookup serves single-issue detail for the get_issue tool.
type IssueLookup interface {
	Detail(ctx context.Context, nodeID string) (search.Item, error)
}

// Server wraps the MCP server with the issue-discovery tools.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	issues    IssueLookup
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher Searcher, issues IssueLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		issues:   issues,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"gim",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all gim tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_issues",
		mcp.WithDescription("Search open GitHub issues using hybrid lexical and vector search"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of results to return (default: 20, max: 50)"),
		),
		mcp.WithString("languages",
			mcp.Description("Comma-separated list of primary languages to filter by"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated list of issue labels to filter by"),
		),
		mcp.WithString("repos",
			mcp.Description("Comma-separated list of repository full names to filter by"),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearchIssues)

	getIssueTool := mcp.NewTool("get_issue",
		mcp.WithDescription("Get one issue by its GitHub node ID"),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("The issue's GitHub node ID"),
		),
	)

	mcpServer.AddTool(getIssueTool, s.handleGetIssue)
}

// issueRow is the JSON row both tools return.
type issueRow struct {
	NodeID          string   `json:"node_id"`
	Title           string   `json:"title"`
	BodyPreview     string   `json:"body_preview"`
	HTMLURL         string   `json:"html_url"`
	RepoName        string   `json:"repo_name"`
	PrimaryLanguage string   `json:"primary_language"`
	Labels          []string `json:"labels"`
	Score           float64  `json:"score"`
}

func toRow(item search.Item, score float64) issueRow {
	labels := item.Labels()
	if labels == nil {
		labels = []string{}
	}
	return issueRow{
		NodeID:          item.NodeID(),
		Title:           item.Title(),
		BodyPreview:     item.BodyPreview(),
		HTMLURL:         item.HTMLURL(),
		RepoName:        item.RepoName(),
		PrimaryLanguage: item.PrimaryLanguage(),
		Labels:          labels,
		Score:           score,
	}
}

// handleSearchIssues handles the search_issues tool invocation.
func (s *Server) handleSearchIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	var opts []search.FiltersOption
	if languages := splitList(request.GetString("languages", "")); len(languages) > 0 {
		opts = append(opts, search.WithLanguages(languages))
	}
	if labels := splitList(request.GetString("labels", "")); len(labels) > 0 {
		opts = append(opts, search.WithLabels(labels))
	}
	if repos := splitList(request.GetString("repos", "")); len(repos) > 0 {
		opts = append(opts, search.WithRepos(repos))
	}

	q := search.NewQuery(query, search.NewFilters(opts...)).
		WithPageSize(request.GetInt("page_size", search.DefaultPageSize))

	page, err := s.searcher.Query(ctx, q)
	if err != nil {
		s.logger.Error("mcp search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	items := page.Items()
	rows := make([]issueRow, len(items))
	for i, item := range items {
		rows[i] = toRow(item, item.RRFScore())
	}

	jsonBytes, err := json.Marshal(rows)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleGetIssue handles the get_issue tool invocation.
func (s *Server) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required"), nil
	}

	item, err := s.issues.Detail(ctx, nodeID)
	if err != nil {
		s.logger.Error("mcp issue lookup failed", slog.String("node_id", nodeID), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get issue: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(toRow(item, item.QScore()))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// splitList parses a comma-separated argument, dropping empties.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MCPServer returns the underlying MCP server for transport mounting.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
