package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestTreeTool returns the tool definition for ingest_tree
func ingestTreeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_tree",
		Description: "Scan the configured directory tree and load its files into the content index. Replaces any previous snapshot atomically.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchContentTool returns the tool definition for search_content
func searchContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_content",
		Description: "Full-text search over ingested file contents and paths",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms. All terms must match; matching is case-insensitive.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the ingestion phase and content index statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// writeFilesTool returns the tool definition for write_files
func writeFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "write_files",
		Description: "Write file contents back to the tree. Parent directories are created as needed; each file is written atomically.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"files": map[string]interface{}{
					"type":        "array",
					"description": "Files to write",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"path": map[string]interface{}{
								"type":        "string",
								"description": "Forward-slash path relative to the ingest root",
							},
							"content": map[string]interface{}{
								"type":        "string",
								"description": "Full file content",
							},
						},
						"required": []string{"path", "content"},
					},
				},
			},
			Required: []string{"files"},
		},
	}
}

// removeFileTool returns the tool definition for remove_file
func removeFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_file",
		Description: "Remove a file from the tree and from the content index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Forward-slash path relative to the ingest root",
				},
			},
			Required: []string{"path"},
		},
	}
}
