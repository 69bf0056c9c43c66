package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abaveja313/treedex/internal/ingest"
	"github.com/abaveja313/treedex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeIngestInProgress = -32001 // Another ingestion run is already running
	ErrorCodeEmptyQuery       = -32002 // Query parameter is empty
)

// handleIngestTree handles the ingest_tree tool invocation
func (s *Server) handleIngestTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.coord.Initialize(ctx)
	if errors.Is(err, ingest.ErrIngestInProgress) {
		return nil, newMCPError(ErrorCodeIngestInProgress, "an ingestion run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"ingested":             true,
		"root":                 s.rootPath,
		"files_scanned":        stats.FilesScanned,
		"files_loaded":         stats.FilesLoaded,
		"binary_files_skipped": stats.BinaryFilesSkipped,
		"documents_extracted":  stats.DocumentsExtracted,
		"total_size_bytes":     stats.TotalSize,
		"duration_ms":          stats.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchContent handles the search_content tool invocation
func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	results, err := s.index.SearchText(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]interface{}{
			"path":       r.Path,
			"snippet":    r.Snippet,
			"score":      r.Score,
			"size_bytes": r.Size,
			"extracted":  r.Extracted,
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(items),
		"results": items,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get index stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	statistics := map[string]interface{}{
		"documents":           stats.Documents,
		"extracted_documents": stats.ExtractedDocs,
		"total_size_bytes":    stats.TotalSize,
	}
	if !stats.LastLoadedAt.IsZero() {
		statistics["last_loaded_at"] = stats.LastLoadedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	response := map[string]interface{}{
		"root":       s.rootPath,
		"phase":      s.coord.Phase().String(),
		"statistics": statistics,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleWriteFiles handles the write_files tool invocation
func (s *Server) handleWriteFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawFiles, ok := args["files"].([]interface{})
	if !ok || len(rawFiles) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "files parameter is required", map[string]interface{}{
			"param":  "files",
			"reason": "missing or empty",
		})
	}

	writes := make([]ingest.FileWrite, 0, len(rawFiles))
	for i, raw := range rawFiles {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "each file must be an object", map[string]interface{}{
				"param": fmt.Sprintf("files[%d]", i),
			})
		}

		p, ok := entry["path"].(string)
		if !ok || p == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "file path is required", map[string]interface{}{
				"param":  fmt.Sprintf("files[%d].path", i),
				"reason": "missing or empty",
			})
		}
		if err := validateRelPath(p); err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid file path", map[string]interface{}{
				"param":  fmt.Sprintf("files[%d].path", i),
				"reason": err.Error(),
			})
		}

		content, ok := entry["content"].(string)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "file content is required", map[string]interface{}{
				"param":  fmt.Sprintf("files[%d].content", i),
				"reason": "missing or not a string",
			})
		}

		writes = append(writes, ingest.FileWrite{Path: p, Content: []byte(content)})
	}

	written, err := s.coord.WriteModifiedFiles(ctx, writes)

	var partial *types.PartialWriteError
	if errors.As(err, &partial) {
		failures := make([]map[string]interface{}, 0, len(partial.Failures))
		for _, f := range partial.Failures {
			failures = append(failures, map[string]interface{}{
				"path":  f.Path,
				"error": f.Err.Error(),
			})
		}

		response := map[string]interface{}{
			"written": written,
			"failed":  partial.Paths(),
		}
		if len(failures) > 5 {
			response["failures"] = failures[:5]
			response["failure_count"] = len(failures)
		} else {
			response["failures"] = failures
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"written": written,
		"failed":  []string{},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveFile handles the remove_file tool invocation
func (s *Server) handleRemoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	p, ok := args["path"].(string)
	if !ok || p == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateRelPath(p); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	if err := s.coord.RemoveFile(ctx, p); err != nil {
		if errors.Is(err, types.ErrRootRemoval) {
			return nil, newMCPError(ErrorCodeInvalidParams, "cannot remove the ingest root", map[string]interface{}{
				"param": "path",
				"value": p,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to remove file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"removed": true,
		"path":    p,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateRelPath checks that a tool-supplied path stays inside the jailed
// root. The filesystem layer enforces the same boundary; validating here
// produces structured parameter errors instead of opaque open failures.
func validateRelPath(p string) error {
	if p == "" {
		return ErrPathRequired
	}
	if strings.Contains(p, "\\") {
		return ErrPathBackslash
	}
	if strings.HasPrefix(p, "/") {
		return ErrPathAbsolute
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ErrPathEscapes
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired  = errors.New("path is required")
	ErrPathBackslash = errors.New("path must use forward slashes")
	ErrPathAbsolute  = errors.New("path must be relative to the ingest root")
	ErrPathEscapes   = errors.New("path escapes the ingest root")
)
