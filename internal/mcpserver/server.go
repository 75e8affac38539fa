// Package mcpserver exposes the portfolio dashboard as MCP tools over stdio,
// so an assistant can read and edit sections the same way the CLI does.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/models"
)

// Server wraps the MCP server with dashboard tools.
type Server struct {
	mcp  *server.MCPServer
	dash *editor.Dashboard
}

// New creates an MCP server with all dashboard tools registered.
func New(dash *editor.Dashboard, version string) *Server {
	s := &Server{dash: dash}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	sectionArg := mcp.WithString("section", mcp.Required(),
		mcp.Description("Section name: personal, social, experience, certifications, skills or documents"))
	listArg := mcp.WithString("section", mcp.Required(),
		mcp.Description("List section: experience, certifications or skills"))

	s.mcp.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Show the working copy of one section, or every section when none is given. "+
			"Includes unsaved edits, per-item status and the last error."),
		mcp.WithString("section", mcp.Description("Optional section name")),
	), s.getPortfolio)

	s.mcp.AddTool(mcp.NewTool("get_field_reference",
		mcp.WithDescription("Returns the field names accepted by update_field and set_item_field. "+
			"Call this before editing."),
	), s.getFieldReference)

	s.mcp.AddTool(mcp.NewTool("update_field",
		mcp.WithDescription("Set a field of the personal or social section locally. Call save_section to persist."),
		sectionArg,
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name, e.g. jobTitle or github")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.updateField)

	s.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Append an item with default values to a list section and return its temporary id."),
		listArg,
	), s.addItem)

	s.mcp.AddTool(mcp.NewTool("set_item_field",
		mcp.WithDescription("Set one field of a list item locally. Skill levels are clamped to 0-100; "+
			"responsibilities are newline-separated."),
		listArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id (temporary or server-assigned)")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name, e.g. level or company")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.setItemField)

	s.mcp.AddTool(mcp.NewTool("remove_item",
		mcp.WithDescription("Delete a list item. Saved items are deleted on the server immediately."),
		listArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.removeItem)

	s.mcp.AddTool(mcp.NewTool("save_section",
		mcp.WithDescription("Persist a section's unsaved changes and reload it from the server."),
		sectionArg,
	), s.saveSection)

	s.mcp.AddTool(mcp.NewTool("reload",
		mcp.WithDescription("Fetch the portfolio again, replacing unsaved edits. Fails while a save is running."),
	), s.reload)

	s.mcp.AddTool(mcp.NewTool("section_status",
		mcp.WithDescription("List every section with its state (unloaded, loaded, editing, saving) and error."),
	), s.sectionStatus)

	s.mcp.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Upload one document from a base64 data URI."),
		mcp.WithString("doc_type", mcp.Required(),
			mcp.Description("resume-pdf, resume-docx, cover-letter-pdf or cover-letter-docx")),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("Stored filename; derived from the type when omitted")),
	), s.uploadDocument)

	s.mcp.AddResource(
		mcp.NewResource("folio://fields", "Portfolio Field Reference",
			mcp.WithResourceDescription("Field names per section, with value rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFieldReference,
	)

	return s
}

// ServeStdio serves MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.UserMessage(err))
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// ensureLoaded loads the portfolio on first use.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.dash.Cache().Loaded() {
		return nil
	}
	_, err := s.dash.Open(ctx)
	return err
}

func (s *Server) editorFor(req mcp.CallToolRequest) (*editor.Editor, error) {
	name, err := req.RequireString("section")
	if err != nil {
		return nil, err
	}
	sec, err := models.ParseSection(name)
	if err != nil {
		return nil, err
	}
	return s.dash.Editor(sec), nil
}

func (s *Server) getPortfolio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	if name := req.GetString("section", ""); name != "" {
		sec, err := models.ParseSection(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(s.dash.Editor(sec).View()), nil
	}
	views := make([]editor.View, 0, len(models.AllSections))
	for _, sec := range models.AllSections {
		views = append(views, s.dash.Editor(sec).View())
	}
	return jsonResult(views), nil
}

func (s *Server) updateField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.editorFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	if err := ed.Set(field, value); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated %s.%s (unsaved)", ed.Section(), field)), nil
}

func (s *Server) addItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.editorFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	id, err := ed.Add()
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) setItemField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.editorFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := make([]string, 0, 3)
	for _, k := range []string{"id", "field", "value"} {
		v, err := req.RequireString(k)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args = append(args, v)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	if err := ed.SetItem(args[0], args[1], args[2]); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated %s %s.%s (unsaved)", ed.Section(), args[0], args[1])), nil
}

func (s *Server) removeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.editorFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	if err := ed.Delete(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) saveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ed, err := s.editorFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return toolError(err), nil
	}
	if err := ed.Save(ctx); err != nil {
		return toolError(err), nil
	}
	return jsonResult(ed.View()), nil
}

func (s *Server) reload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.dash.Open(ctx); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("reloaded"), nil
}

type sectionStatus struct {
	Section models.Section `json:"section"`
	State   string         `json:"state"`
	CanSave bool           `json:"canSave"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) sectionStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := make([]sectionStatus, 0, len(models.AllSections))
	for _, sec := range models.AllSections {
		v := s.dash.Editor(sec).View()
		out = append(out, sectionStatus{Section: sec, State: v.State, CanSave: v.CanSave, Error: v.Error})
	}
	return jsonResult(out), nil
}
