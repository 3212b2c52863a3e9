// Package mcp provides the stdio MCP server exposing the current editor
// selection to coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/idelink/internal/buildinfo"
	"github.com/go-ports/idelink/internal/config"
	"github.com/go-ports/idelink/internal/reader"
	"github.com/go-ports/idelink/internal/selection"
	"github.com/go-ports/idelink/internal/store"
)

const currentDescription = `Get the file and text range the user is currently looking at in their editor. Returns {"present": false} when nothing is focused or the last selection is stale. Call this before answering questions like "what does this do?" that refer to on-screen code.` //nolint:lll

const refDescription = `Get a compact file reference for the user's current editor selection, e.g. "/src/main.go:42-57". Suitable for inserting directly into a reply or a prompt. Returns an empty string when nothing is focused.` //nolint:lll

const clearDescription = `Forget the user's current editor selection. Use when the user asks to drop or reset the shared selection context.`

// NewServer creates and registers all selection tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers
// can obtain a fully configured server without committing to the stdio
// transport.
func NewServer(rd *reader.Reader) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("idelink", buildinfo.Version)
	registerTools(s, rd)
	return s
}

// Serve starts a reader over the resolved link home and serves MCP on
// stdio, blocking until stdin closes.
func Serve(_ context.Context, linkHome string) error {
	if linkHome == "" {
		linkHome = config.GetLinkHome()
	}

	cfg, err := config.Load(filepath.Join(linkHome, "config.yaml"))
	if err != nil {
		return fmt.Errorf("mcp: load config: %w", err)
	}

	rd := reader.New(store.New(linkHome), pollInterval(cfg), nil)
	if err := rd.Start(); err != nil {
		return fmt.Errorf("mcp: start reader: %w", err)
	}
	defer rd.Stop()

	return mcpserver.ServeStdio(NewServer(rd))
}

// registerTools wires all three selection tools into the server.
func registerTools(s *mcpserver.MCPServer, rd *reader.Reader) {
	s.AddTool(mcp.NewTool("selection_current",
		mcp.WithDescription(currentDescription),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCurrent(rd)
	})

	s.AddTool(mcp.NewTool("selection_ref",
		mcp.WithDescription(refDescription),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(rd.Ref()), nil
	})

	s.AddTool(mcp.NewTool("selection_clear",
		mcp.WithDescription(clearDescription),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClear(rd)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleCurrent(rd *reader.Reader) (*mcp.CallToolResult, error) {
	rec := rd.Current()
	if rec == nil {
		return jsonResult(map[string]any{"present": false})
	}
	return jsonResult(currentPayload(rec))
}

func handleClear(rd *reader.Reader) (*mcp.CallToolResult, error) {
	if err := rd.Clear(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"cleared": true})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// currentPayload shapes a record for tool output, always including the
// presence flag and the ready-made reference string.
func currentPayload(rec *selection.Record) map[string]any {
	out := map[string]any{
		"present": true,
		"file":    rec.File,
		"ide":     rec.IDE,
		"ref":     rec.Ref(),
	}
	if rec.Selection != "" {
		out["selection"] = rec.Selection
	}
	if rec.StartLine != nil && rec.EndLine != nil {
		out["startLine"] = *rec.StartLine
		out["endLine"] = *rec.EndLine
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// pollInterval converts the configured poll cadence to a duration.
func pollInterval(cfg *config.LinkConfig) time.Duration {
	return time.Duration(cfg.PollMs) * time.Millisecond
}
