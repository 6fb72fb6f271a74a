// Package mcpserver exposes the ingested stub model over the Model Context
// Protocol, so an assistant can look up struct declarations and inferred
// types without reading the generated files.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/host"
	"github.com/teranos/stubgen/logger"
	"github.com/teranos/stubgen/typegen"
	"github.com/teranos/stubgen/typegen/python"
)

// Config selects the snapshot served and how it is ingested.
type Config struct {
	Name        string
	Version     string
	Strict      bool
	Corrections []typegen.Correction
}

// Server serves stub lookups for one snapshot. The snapshot is ingested on
// the first tool call.
type Server struct {
	cfg      Config
	provider host.Provider
	store    *host.Store
	server   *server.MCPServer
	tools    []string
	log      *zap.SugaredLogger

	mu    sync.Mutex
	model *typegen.Model
}

// New creates a server over p. store may be nil; the run and snapshot
// tools are only registered with one.
func New(cfg Config, p host.Provider, store *host.Store) *Server {
	if cfg.Name == "" {
		cfg.Name = "stubgen"
	}
	if cfg.Corrections == nil {
		cfg.Corrections = typegen.DefaultCorrections
	}
	s := &Server{
		cfg:      cfg,
		provider: p,
		store:    store,
		log:      logger.ComponentLogger("mcp"),
	}
	s.server = server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(true))
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.server
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return s.tools
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("stubgen_lookup_struct",
		mcp.WithDescription("Show the Python stub declaration of a struct"),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Struct identifier, e.g. Object"),
		),
	), s.handleLookupStruct)

	s.addTool(mcp.NewTool("stubgen_list_structs",
		mcp.WithDescription("List struct identifiers, optionally limited to one module"),
		mcp.WithString("module",
			mcp.Description("Dotted module path, e.g. bpy.types"),
		),
	), s.handleListStructs)

	s.addTool(mcp.NewTool("stubgen_type_of",
		mcp.WithDescription("Show the inferred type of a struct property"),
		mcp.WithString("struct", mcp.Required(), mcp.Description("Struct identifier")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
	), s.handleTypeOf)

	s.addTool(mcp.NewTool("stubgen_unrecognized",
		mcp.WithDescription("List documentation phrases that did not match a known type"),
	), s.handleUnrecognized)

	if s.store == nil {
		return
	}

	s.addTool(mcp.NewTool("stubgen_list_runs",
		mcp.WithDescription("List recent generate runs"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default: 20)")),
	), s.handleListRuns)

	s.addTool(mcp.NewTool("stubgen_list_snapshots",
		mcp.WithDescription("List stored reflection snapshots"),
	), s.handleListSnapshots)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.server.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

// load ingests the snapshot on first use. Only a successful ingest is
// kept; a failed one is retried by the next call.
func (s *Server) load(ctx context.Context) (*typegen.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return s.model, nil
	}
	m, err := typegen.Load(ctx, s.provider, s.cfg.Strict, s.cfg.Corrections)
	if err != nil {
		return nil, err
	}
	s.model = m
	s.log.Infow("snapshot ingested", logger.FieldCount, len(m.Structs()))
	return m, nil
}

func (s *Server) handleLookupStruct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load snapshot: %v", err)), nil
	}

	st, ok := m.Lookup(identifier)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Struct %s not found", identifier)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("# module: %s\n%s", st.Module(), python.RenderStruct(st, nil))), nil
}

func (s *Server) handleListStructs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module := request.GetString("module", "")
	m, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load snapshot: %v", err)), nil
	}

	var ids []string
	for _, id := range m.Structs() {
		st, _ := m.Lookup(id)
		if module == "" || st.Module() == module {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("No structs found"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d struct(s):\n%s\n", len(ids), strings.Join(ids, "\n"))), nil
}

func (s *Server) handleTypeOf(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	structID, err := request.RequireString("struct")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load snapshot: %v", err)), nil
	}

	expr, err := m.TypeOf(structID, property)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(expr), nil
}

func (s *Server) handleUnrecognized(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load snapshot: %v", err)), nil
	}
	phrases := append([]string(nil), m.Ingested().Unrecognized...)
	if len(phrases) == 0 {
		return mcp.NewToolResultText("No unrecognized phrases"), nil
	}
	sort.Strings(phrases)
	return mcp.NewToolResultText(strings.Join(phrases, "\n") + "\n"), nil
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.store.Runs(ctx, request.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list runs: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No runs recorded"), nil
	}

	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s %s %s files=%d %s", r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Status, r.Files, r.OutputDir)
		if r.Error != "" {
			fmt.Fprintf(&sb, " error=%q", r.Error)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListSnapshots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list snapshots: %v", err)), nil
	}
	if len(snaps) == 0 {
		return mcp.NewToolResultText("No snapshots stored"), nil
	}

	var sb strings.Builder
	for _, r := range snaps {
		fmt.Fprintf(&sb, "%s %s structs=%d %s\n", r.ID, r.HostVersion, r.StructCount, r.Source)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
