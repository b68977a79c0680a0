// Package mcp exposes the fill pipeline as an MCP stdio server, so agent
// tooling can fill templates and inspect records without shelling out.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/redcap-tools/redcap-pdf-fill/internal/config"
	"github.com/redcap-tools/redcap-pdf-fill/internal/fill"
)

// ServerName identifies this MCP server to clients.
const ServerName = "redcap-pdf-fill"

// Version is overridden by build flags.
var Version = "dev"

// Server represents the MCP server instance.
type Server struct {
	config      *config.Config
	fillService *fill.Service
	mcpServer   *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(cfg *config.Config, fillService *fill.Service) (*Server, error) {
	if fillService == nil {
		return nil, fmt.Errorf("fillService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:      cfg,
		fillService: fillService,
		mcpServer:   mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	fillTool := mcp.NewTool(
		"redcap_fill_pdf",
		mcp.WithDescription("Fill a PDF form template with a single REDCap record and write the result"),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Unique ID of the REDCap record"),
		),
		mcp.WithString("input_pdf",
			mcp.Required(),
			mcp.Description("Path to the empty template .pdf file"),
		),
		mcp.WithString("output_pdf",
			mcp.Description("Path of the filled .pdf to create (synthesized under ./output if empty)"),
		),
		mcp.WithString("record_variable",
			mcp.Description("REDCap variable that uniquely identifies each record (default record_id)"),
		),
	)
	s.mcpServer.AddTool(fillTool, s.handleFillPDF)

	listFieldsTool := mcp.NewTool(
		"pdf_list_fields",
		mcp.WithDescription("List the fillable field names of a PDF form template in order of appearance"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF template"),
		),
	)
	s.mcpServer.AddTool(listFieldsTool, s.handleListFields)

	previewTool := mcp.NewTool(
		"redcap_preview_record",
		mcp.WithDescription("Fetch and normalize a single REDCap record without touching any PDF"),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Unique ID of the REDCap record"),
		),
		mcp.WithString("record_variable",
			mcp.Description("REDCap variable that uniquely identifies each record (default record_id)"),
		),
	)
	s.mcpServer.AddTool(previewTool, s.handlePreviewRecord)
}

// Handler functions
func (s *Server) handleFillPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inputPDF, err := request.RequireString("input_pdf")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputPDF := request.GetString("output_pdf", "")
	if outputPDF == "" {
		outputPDF = config.DefaultOutputPath(inputPDF, identifier, time.Now())
	}
	recordVariable := request.GetString("record_variable", config.DefaultIdentifierField)

	result, err := s.fillService.Run(ctx, fill.Request{
		RecordID:        identifier,
		IdentifierField: recordVariable,
		TemplatePath:    inputPDF,
		OutputPath:      outputPDF,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Filled PDF written to: %s\n", result.OutputPath)
	responseText += fmt.Sprintf("Record: %s (identified by '%s')\n", identifier, recordVariable)
	responseText += fmt.Sprintf("Template fields: %d\n", len(result.TemplateFields))
	responseText += fmt.Sprintf("Widgets written: %d text, %d checkbox, %d radio (%d skipped)\n",
		result.FillResult.TextWidgets,
		result.FillResult.CheckboxWidgets,
		result.FillResult.RadioWidgets,
		result.FillResult.SkippedWidgets)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.fillService.ListFields(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Template: %s\n", path)
	fmt.Fprintf(&b, "Fillable fields (%d, in order of appearance):\n", len(fields))
	for i, field := range fields {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, field)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handlePreviewRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recordVariable := request.GetString("record_variable", config.DefaultIdentifierField)

	rec, err := s.fillService.PreviewRecord(ctx, recordVariable, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Record %s (identified by '%s'), %d normalized values:\n",
		identifier, recordVariable, len(rec))
	for _, key := range keys {
		value := rec[key]
		fmt.Fprintf(&b, "  %s [%s] = %s\n", key, value.Kind, value)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Run starts the MCP server on stdio. The parent process controls our
// lifecycle; we exit when stdin closes or on error.
func (s *Server) Run(_ context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
