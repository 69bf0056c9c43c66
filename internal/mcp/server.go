package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abaveja313/treedex/internal/extract"
	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/index"
	"github.com/abaveja313/treedex/internal/ingest"
	"github.com/abaveja313/treedex/internal/limiter"
	"github.com/abaveja313/treedex/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "treedex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.treedex/treedex.db"
)

// Options configures a Server.
type Options struct {
	// RootPath is the directory tree the server ingests and edits.
	RootPath string
	// DBPath is the SQLite database location. Empty selects DefaultDBPath.
	DBPath string
	// Scan controls traversal during ingest_tree.
	Scan types.ScanOptions
	// ExtractEnabled toggles archive extraction.
	ExtractEnabled bool
	// Parallelism caps concurrent file reads; 0 picks a CPU-based default.
	Parallelism int
	// Logger receives server logs. Must write to stderr or a file, never
	// stdout. Nil disables logging.
	Logger *zap.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	root     *fsys.Root
	index    index.Index
	coord    *ingest.Coordinator
	log      *zap.Logger
	rootPath string
}

// NewServer creates a new MCP server instance bound to one directory tree.
func NewServer(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	rootPath, err := filepath.Abs(opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	root, err := fsys.OpenRoot(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root %s: %w", rootPath, err)
	}

	dbPath, err := resolveDBPath(opts.DBPath)
	if err != nil {
		_ = root.Close()
		return nil, err
	}

	idx, err := index.NewSQLiteIndex(dbPath)
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	coordOpts := []ingest.Option{
		ingest.WithScanOptions(opts.Scan),
		ingest.WithLogger(log),
		ingest.WithLimiter(limiter.New(opts.Parallelism)),
	}
	if !opts.ExtractEnabled {
		coordOpts = append(coordOpts, ingest.WithExtractor(extract.NewRegistry()))
	}
	coord := ingest.New(root, idx, coordOpts...)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		root:     root,
		index:    idx,
		coord:    coord,
		log:      log,
		rootPath: rootPath,
	}

	if err := s.registerTools(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// resolveDBPath expands the default database location and creates parent
// directories for file-backed databases.
func resolveDBPath(dbPath string) (string, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".treedex", "treedex.db")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return dbPath, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	s.log.Info("serving on stdio",
		zap.String("root", s.rootPath),
		zap.String("server", ServerName),
		zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// Close releases the index and the root handle.
func (s *Server) Close() error {
	err := s.index.Close()
	if cerr := s.root.Close(); err == nil {
		err = cerr
	}
	return err
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(ingestTreeTool(), s.handleIngestTree)
	s.mcp.AddTool(searchContentTool(), s.handleSearchContent)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(writeFilesTool(), s.handleWriteFiles)
	s.mcp.AddTool(removeFileTool(), s.handleRemoveFile)

	return nil
}
