// Package mcp implements the Model Context Protocol (MCP) server for treedex.
//
// The MCP server exposes five tools to AI coding assistants:
//   - ingest_tree: Scan the configured tree and load it into the content index
//   - search_content: Full-text search over ingested file contents and paths
//   - get_status: Check the ingestion phase and index statistics
//   - write_files: Write file contents back into the tree
//   - remove_file: Remove a file from the tree and the index
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output. Each
// server instance is bound to one directory tree chosen at startup; tool
// paths are always relative to that root and cannot escape it.
//
// # Basic Usage
//
// The server is typically started with a root directory:
//
//	treedex -root /path/to/tree
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: ingest_tree
//
// Scan the tree and load it into the index:
//
//	Request:
//	{
//	  "name": "ingest_tree",
//	  "arguments": {}
//	}
//
//	Response:
//	{
//	  "ingested": true,
//	  "files_scanned": 412,
//	  "files_loaded": 398,
//	  "binary_files_skipped": 14,
//	  "documents_extracted": 3,
//	  "total_size_bytes": 18734222,
//	  "duration_ms": 822
//	}
//
// Ingestion is transactional: the new snapshot replaces the old one
// atomically, and a failed run leaves the index unchanged. Only one run may
// be active at a time.
//
// # Tool: search_content
//
// Search indexed content:
//
//	Request:
//	{
//	  "name": "search_content",
//	  "arguments": {
//	    "query": "connection timeout",
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "query": "connection timeout",
//	  "count": 2,
//	  "results": [
//	    {
//	      "path": "docs/runbook.md",
//	      "snippet": "...raise the [connection] [timeout] before retrying...",
//	      "score": 0.87,
//	      "size_bytes": 5123,
//	      "extracted": false
//	    }
//	  ]
//	}
//
// # Tool: write_files
//
// Write contents back to the tree:
//
//	Request:
//	{
//	  "name": "write_files",
//	  "arguments": {
//	    "files": [
//	      {"path": "notes/todo.md", "content": "- ship it\n"}
//	    ]
//	  }
//	}
//
//	Response:
//	{
//	  "written": 1,
//	  "failed": []
//	}
//
// Writes are independent: failures are reported per path while the
// remaining files land. Files whose indexed form came from extraction are
// refused, since writing the extracted text would destroy the archive.
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {
//	      "param": "path",
//	      "reason": "path escapes the ingest root"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Ingestion already in progress
//   - -32002: Empty search query
//
// # Logging
//
// The server logs to stderr; stdout is reserved for the MCP protocol
// stream.
package mcp
