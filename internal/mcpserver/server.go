// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell blog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/blogservice"
	"github.com/starford/inkwell/internal/form"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/view"
)

const formatURI = "inkwell://blog-format"

// Server wraps the MCP server with Inkwell tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *blogservice.Service
	perPage int
	recent  int
}

// New creates a new MCP server with all Inkwell tools registered. perPage
// and recent are the defaults for list_blogs and dashboard.
func New(svc *blogservice.Service, perPage, recent int) *Server {
	if perPage < 1 {
		perPage = view.DefaultPageSize
	}
	if recent < 1 {
		recent = view.DefaultRecent
	}
	s := &Server{svc: svc, perPage: perPage, recent: recent}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("list_blogs",
		mcp.WithDescription("List blogs in creation order with optional title search, category and status filters and pagination. "+
			"Soft-deleted blogs are never listed."),
		mcp.WithString("search", mcp.Description("Case-insensitive substring of the title")),
		mcp.WithString("category", mcp.Description("Exact category, or All")),
		mcp.WithString("status", mcp.Description("Draft, Published or All"), mcp.Enum(view.All, "Draft", "Published")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
		mcp.WithNumber("per_page", mcp.Description("Page size, 1 to 100")),
	), s.listBlogs)

	s.mcp.AddTool(mcp.NewTool("get_blog",
		mcp.WithDescription("Read a single blog by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Blog id")),
	), s.getBlog)

	s.mcp.AddTool(mcp.NewTool("create_blog",
		mcp.WithDescription("Create a blog. Read the contract first via get_blog_contract or the "+formatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title, not blank")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Body text, not blank")),
		mcp.WithString("category", mcp.Description("Optional category")),
		mcp.WithString("author", mcp.Description("Optional author")),
		mcp.WithString("status", mcp.Description("Draft (default) or Published"), mcp.Enum("Draft", "Published")),
		mcp.WithString("publish_date", mcp.Description("Optional date, YYYY-MM-DD")),
		mcp.WithString("image", mcp.Description("Optional base64 data URL of a JPEG or PNG, at most 1MB")),
	), s.createBlog)

	s.mcp.AddTool(mcp.NewTool("update_blog",
		mcp.WithDescription("Change some fields of a blog. Omitted fields stay as they are."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Blog id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New body text")),
		mcp.WithString("category", mcp.Description("New category")),
		mcp.WithString("author", mcp.Description("New author")),
		mcp.WithString("status", mcp.Description("Draft or Published"), mcp.Enum("Draft", "Published")),
		mcp.WithString("publish_date", mcp.Description("New date, YYYY-MM-DD")),
		mcp.WithString("image", mcp.Description("New base64 data URL of a JPEG or PNG")),
	), s.updateBlog)

	s.mcp.AddTool(mcp.NewTool("delete_blog",
		mcp.WithDescription("Soft-delete a blog. It disappears at once and is purged for good after the retention window."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Blog id")),
	), s.deleteBlog)

	s.mcp.AddTool(mcp.NewTool("dashboard",
		mcp.WithDescription("Blog counts by status and the most recently created blogs."),
	), s.dashboard)

	s.mcp.AddTool(mcp.NewTool("get_blog_contract",
		mcp.WithDescription("Returns the Inkwell blog field contract. "+
			"Call this before creating or updating blogs."),
	), s.getBlogContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Blog Format Contract",
			mcp.WithResourceDescription("Fields, defaults and validation rules for Inkwell blogs."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlogFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listBlogs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := intArg(req, "page", 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	perPage, err := intArg(req, "per_page", s.perPage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if page < 1 || page > math.MaxInt32 {
		return mcp.NewToolResultError(`argument "page" must be a positive integer`), nil
	}
	if perPage < 1 || perPage > view.MaxPageSize {
		return mcp.NewToolResultError(fmt.Sprintf(`argument "per_page" must be between 1 and %d`, view.MaxPageSize)), nil
	}
	res := view.Apply(s.svc.Snapshot(), view.Filter{
		Search:   req.GetString("search", ""),
		Category: req.GetString("category", ""),
		Status:   req.GetString("status", ""),
	}, int(page), int(perPage))
	return jsonResult(res)
}

func (s *Server) getBlog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.Get(id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(b)
}

func (s *Server) createBlog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := fieldsFromArgs(req)
	if err := form.ValidateCreate(f); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Create(f))
}

func (s *Server) updateBlog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := fieldsFromArgs(req)
	if err := form.ValidateUpdate(f); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.Update(id, f)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(b)
}

func (s *Server) deleteBlog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.SoftDelete(id); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) dashboard(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(view.Dashboard(s.svc.Snapshot(), s.recent))
}

func (s *Server) getBlogContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlogFormatContract), nil
}

func (s *Server) readBlogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     BlogFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(id int64, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id))
	}
	return mcp.NewToolResultError(err.Error())
}

// argFields maps tool argument names to the blog fields they set.
var argFields = []struct {
	arg string
	set func(*models.Fields, string)
}{
	{"title", func(f *models.Fields, v string) { f.Title = &v }},
	{"description", func(f *models.Fields, v string) { f.Description = &v }},
	{"category", func(f *models.Fields, v string) { f.Category = &v }},
	{"author", func(f *models.Fields, v string) { f.Author = &v }},
	{"status", func(f *models.Fields, v string) { st := models.Status(v); f.Status = &st }},
	{"publish_date", func(f *models.Fields, v string) { f.PublishDate = &v }},
	{"image", func(f *models.Fields, v string) { f.Image = &v }},
}

// fieldsFromArgs sets a field only for arguments the caller supplied as
// strings.
func fieldsFromArgs(req mcp.CallToolRequest) models.Fields {
	var f models.Fields
	args := req.GetArguments()
	for _, af := range argFields {
		if v, ok := args[af.arg].(string); ok {
			af.set(&f, v)
		}
	}
	return f
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	v, ok := req.GetArguments()["id"]
	if !ok {
		return 0, errors.New(`required argument "id" not found`)
	}
	return toInt(v, "id")
}

func intArg(req mcp.CallToolRequest, name string, def int) (int64, error) {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return int64(def), nil
	}
	return toInt(v, name)
}

// toInt accepts JSON numbers and numeric strings. Blog ids are millisecond
// timestamps, well inside float64's exact integer range.
func toInt(v any, name string) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be an integer", name)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer", name)
		}
		return i, nil
	}
	return 0, fmt.Errorf("argument %q must be an integer", name)
}
