package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/osdesc"
)

// RegisterMCP registers the engine tools on an MCP server.
func (r *Registry) RegisterMCP(srv *mcp.Server) {
	r.registerSuggestTool(srv)
	r.registerSearchURLTool(srv)
	r.registerDescribeTool(srv)
	r.registerEnginesTool(srv)
	r.registerRegisterTool(srv)
	r.registerDiscoverTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// registerTool adapts a decode/endpoint pair onto the SDK handler shape.
// Endpoint errors come back as tool errors, not protocol errors.
func registerTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, any) (any, error), decode func(*mcp.CallToolRequest) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := endpoint(ctx, decoded)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- suggest ---

type suggestReq struct {
	Engine string `json:"engine"`
	Terms  string `json:"terms"`
}

func (r *Registry) registerSuggestTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_suggest",
		Description: "Query a registered engine's suggestion endpoint and return the completion array.",
		InputSchema: inputSchema(map[string]any{
			"engine": map[string]any{"type": "string", "description": "Registered engine name"},
			"terms":  map[string]any{"type": "string", "description": "Search terms"},
		}, []string{"engine", "terms"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*suggestReq)
		return r.Suggest(ctx, q.Engine, osdesc.Values{"searchTerms": q.Terms})
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var q suggestReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &q, nil
	}

	registerTool(srv, tool, endpoint, decode)
}

// --- search_url ---

type searchURLReq struct {
	Engine string `json:"engine"`
	Terms  string `json:"terms"`
}

func (r *Registry) registerSearchURLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_search_url",
		Description: "Expand a registered engine's results URL for the given terms without fetching it.",
		InputSchema: inputSchema(map[string]any{
			"engine": map[string]any{"type": "string", "description": "Registered engine name"},
			"terms":  map[string]any{"type": "string", "description": "Search terms"},
		}, []string{"engine", "terms"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*searchURLReq)
		u, err := r.SearchURL(ctx, q.Engine, osdesc.Values{"searchTerms": q.Terms})
		if err != nil {
			return nil, err
		}
		return map[string]any{"url": u}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var q searchURLReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &q, nil
	}

	registerTool(srv, tool, endpoint, decode)
}

// --- describe ---

type describeReq struct {
	Engine string `json:"engine"`
}

func (r *Registry) registerDescribeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_describe",
		Description: "Return the normalized description document of a registered engine.",
		InputSchema: inputSchema(map[string]any{
			"engine": map[string]any{"type": "string", "description": "Registered engine name"},
		}, []string{"engine"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*describeReq)
		p, err := r.Get(ctx, q.Engine)
		if err != nil {
			return nil, err
		}
		return p.Description(), nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var q describeReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &q, nil
	}

	registerTool(srv, tool, endpoint, decode)
}

// --- engines ---

func (r *Registry) registerEnginesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_engines",
		Description: "List all registered engines with their capabilities.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		engines, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"engines": engines}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) { return nil, nil }

	registerTool(srv, tool, endpoint, decode)
}

// --- register ---

type registerReq struct {
	Name string `json:"name"`
	XML  string `json:"xml"`
}

func (r *Registry) registerRegisterTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_register",
		Description: "Validate a description document and store it under the given engine name.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Engine name to store under"},
			"xml":  map[string]any{"type": "string", "description": "Description document XML"},
		}, []string{"name", "xml"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*registerReq)
		return r.Put(ctx, q.Name, []byte(q.XML))
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var q registerReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &q, nil
	}

	registerTool(srv, tool, endpoint, decode)
}

// --- discover ---

type discoverReq struct {
	URL string `json:"url"`
}

func (r *Registry) registerDiscoverTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "osdesc_discover",
		Description: "Fetch an HTML page and list the description documents it advertises.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to scan"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*discoverReq)
		links, err := osdesc.Discover(ctx, q.URL, r.cfg)
		if err != nil {
			return nil, err
		}
		return map[string]any{"links": links}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var q discoverReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &q, nil
	}

	registerTool(srv, tool, endpoint, decode)
}
