package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/fida-id/fida-extractor/internal/calendar"
	"github.com/fida-id/fida-extractor/internal/config"
	"github.com/fida-id/fida-extractor/internal/idcard"
	"github.com/fida-id/fida-extractor/internal/pdf"
)

// Parser turns PDF bytes into an ID card record
type Parser interface {
	Parse(ctx context.Context, data []byte) (*idcard.Result, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	parser    Parser
	validator *pdf.Validator
	paths     *pathGuard
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// parseResponse is the record plus the decoded QR fields, when any
type parseResponse struct {
	idcard.IdentityRecord
	QR *idcard.QRFields `json:"qr,omitempty"`
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, parser Parser, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := newPathGuard(cfg.DocumentRoot)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		parser:    parser,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	parseTool := mcp.NewTool(
		"parse_id_card",
		mcp.WithDescription("Extract the identity record from an Ethiopian national ID card PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, relative paths resolve against the document root"),
		),
	)
	s.mcpServer.AddTool(parseTool, s.handleParseIDCard)

	convertTool := mcp.NewTool(
		"gregorian_to_ethiopian",
		mcp.WithDescription("Convert a Gregorian date to the Ethiopian calendar"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Gregorian date as YYYY/MM/DD"),
		),
	)
	s.mcpServer.AddTool(convertTool, s.handleGregorianToEthiopian)
}

func (s *Server) handleParseIDCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err = s.paths.resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.validator.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	result, err := s.parser.Parse(ctx, data)
	if err != nil {
		s.logger.Debug("parse failed", zap.String("path", path), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := encodeResponse(parseResponse{IdentityRecord: result.Record, QR: result.QR})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleGregorianToEthiopian(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	converted, ok := calendar.GregorianToEthiopian(date)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid Gregorian date: %q (expected YYYY/MM/DD)", date)), nil
	}
	return mcp.NewToolResultText(converted), nil
}

// encodeResponse renders v as indented JSON without HTML escaping
func encodeResponse(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return buf.String(), nil
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
