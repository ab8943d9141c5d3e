package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/service"
)

// Server exposes the evidence resolver as MCP tools
type Server struct {
	config    *domain.MCPConfig
	mcpServer *mcp.Server
	service   *service.SubmissionService
	drugs     domain.DrugRegistry
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance. drugs may be nil, in which
// case lookup_drug reports every drug as unknown.
func NewServer(cfg domain.MCPConfig, svc *service.SubmissionService, drugs domain.DrugRegistry, logger *logrus.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("submission service is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.TransportType != "" && cfg.TransportType != "stdio" {
		return nil, fmt.Errorf("unsupported MCP transport %q", cfg.TransportType)
	}

	name := cfg.ServerName
	if name == "" {
		name = "oncokb-evidence-resolver"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "v0.1.0"
	}

	server := &Server{
		config:    &cfg,
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		service:   svc,
		drugs:     drugs,
		logger:    logger,
	}
	server.registerTools()

	return server, nil
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("server_name", s.config.ServerName).Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// registerTools registers every tool with the SDK server
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve_evidence",
		Description: "Classify a curation edit path against a gene tree and build the evidence it produces. Set submit to also forward it.",
	}, s.handleResolveEvidence)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "lookup_drug",
		Description: "Look up a drug by name or synonym in the drug registry.",
	}, s.handleLookupDrug)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "submission_history",
		Description: "List recorded submissions for an evidence data uuid, newest first.",
	}, s.handleSubmissionHistory)

	s.logger.WithField("tool_count", 3).Debug("Registered MCP tools")
}
