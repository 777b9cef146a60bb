// Package mcpserver exposes bbtool's manifest and diagnostics operations as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moasq/bbtool/internal/config"
	"github.com/moasq/bbtool/internal/diag"
	"github.com/moasq/bbtool/internal/storage"
)

// Server holds the state shared by the tool handlers.
type Server struct {
	cfg       *config.Config
	journal   *storage.JournalStore
	collector *diag.Collector
	logger    *slog.Logger
}

// New returns a Server backed by cfg. Applied restructures are recorded in
// journal when it is non-nil.
func New(cfg *config.Config, journal *storage.JournalStore, collector *diag.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = diag.NewCollector(logger)
	}
	return &Server{cfg: cfg, journal: journal, collector: collector, logger: logger}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP(version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bbtool",
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_group",
		Description: "Classify the children of an Xcode group without changing anything. Children labelled \"Prefix/File.swift\" are reported under the sub-group they would move to; children without a prefix are reported as constants. Example: analyze_group(group: \"Core\")",
	}, s.handleAnalyzeGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "restructure_group",
		Description: "Move the prefix-labelled children of an Xcode group into one sub-group per prefix and rewrite project.pbxproj. Labels, paths and \"in Sources\" comments lose the prefix. Running it twice is a no-op. Close Xcode before calling.",
	}, s.handleRestructureGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_membership",
		Description: "Check whether files are compiled by a native target's Sources build phase. Returns present and missing files. Example: check_membership(target: \"BatteryBoi (iOS)\", files: [\"BBSystemConstants.swift\"])",
	}, s.handleCheckMembership)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_devices",
		Description: "Read peripheral state from macOS. source is one of ioreg (HID battery levels), bluetooth (connected devices from system_profiler) or profiles (installed configuration profiles). Read-only.",
	}, s.handleListDevices)

	return server
}

// Run serves the tools over stdio until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, version string) error {
	s.logger.Debug("starting MCP server", "version", version)
	return s.MCP(version).Run(ctx, &mcp.StdioTransport{})
}
