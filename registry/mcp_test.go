package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/osdesc"
)

var testMCPImpl = &mcp.Implementation{Name: "osdesc-test", Version: "0.1.0"}

func mcpSession(t *testing.T, r *Registry) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	r.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %s", name, tc.Text)
	}
	return tc.Text
}

// mcpCallToolErr calls a tool and requires a tool-level error. The wire
// carries that error as isError plus text content; CallToolResult.GetError
// always returns nil on the client side.
func mcpCallToolErr(t *testing.T, session *mcp.ClientSession, name string, args any) error {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected tool error", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return errors.New(tc.Text)
}

// --- osdesc_register / osdesc_engines ---

func TestMCP_RegisterAndList(t *testing.T) {
	r := OpenMemory(t, testCfg())
	session := mcpSession(t, r)

	text := mcpCallTool(t, session, "osdesc_register", map[string]any{
		"name": "example",
		"xml":  engineXML,
	})
	var e Engine
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Name != "example" || e.ShortName != "Example" || !e.HasSearch || !e.HasSuggest {
		t.Errorf("registered engine = %+v", e)
	}

	text = mcpCallTool(t, session, "osdesc_engines", map[string]any{})
	var resp struct {
		Engines []Engine `json:"engines"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Engines) != 1 || resp.Engines[0].Name != "example" {
		t.Errorf("engines = %+v", resp.Engines)
	}
}

func TestMCP_Register_BadXML(t *testing.T) {
	r := OpenMemory(t, testCfg())
	session := mcpSession(t, r)

	err := mcpCallToolErr(t, session, "osdesc_register", map[string]any{
		"name": "broken",
		"xml":  "<rss></rss>",
	})
	if !strings.Contains(err.Error(), "OpenSearchDescription") {
		t.Errorf("tool error = %v, want root-element complaint", err)
	}
}

// --- osdesc_search_url ---

func TestMCP_SearchURL(t *testing.T) {
	r := OpenMemory(t, testCfg())
	if _, err := r.Put(context.Background(), "example", []byte(engineXML)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	session := mcpSession(t, r)

	text := mcpCallTool(t, session, "osdesc_search_url", map[string]any{
		"engine": "example",
		"terms":  "black cats",
	})
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := "http://example.com/?q=black%20cats"; resp.URL != want {
		t.Errorf("url = %q, want %q", resp.URL, want)
	}
}

func TestMCP_SearchURL_UnknownEngine(t *testing.T) {
	r := OpenMemory(t, testCfg())
	session := mcpSession(t, r)

	err := mcpCallToolErr(t, session, "osdesc_search_url", map[string]any{
		"engine": "absent",
		"terms":  "cats",
	})
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("tool error = %v, want not-found", err)
	}
}

// --- osdesc_describe ---

func TestMCP_Describe(t *testing.T) {
	r := OpenMemory(t, testCfg())
	if _, err := r.Put(context.Background(), "example", []byte(engineXML)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	session := mcpSession(t, r)

	text := mcpCallTool(t, session, "osdesc_describe", map[string]any{"engine": "example"})
	var d osdesc.Description
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.ShortName != "Example" {
		t.Errorf("ShortName = %q", d.ShortName)
	}
	if len(d.URLs) != 2 {
		t.Errorf("URLs = %+v, want 2 entries", d.URLs)
	}
}

// --- osdesc_suggest ---

func TestMCP_Suggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["cat",["cats","category"]]`)
	}))
	defer srv.Close()

	xml := fmt.Sprintf(`<?xml version="1.0"?>
<OpenSearchDescription xmlns="http://a9.com/-/spec/opensearch/1.1/">
  <ShortName>Example</ShortName>
  <Url type="text/html" template="http://example.com/?q={searchTerms}"/>
  <Url type="application/x-suggestions+json" template="%s?q={searchTerms}"/>
</OpenSearchDescription>`, srv.URL)

	r := OpenMemory(t, testCfg())
	if _, err := r.Put(context.Background(), "example", []byte(xml)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	session := mcpSession(t, r)

	text := mcpCallTool(t, session, "osdesc_suggest", map[string]any{
		"engine": "example",
		"terms":  "cat",
	})

	// The tool returns the wire-format positional array.
	var s osdesc.Suggestions
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := osdesc.Suggestions{
		Query:        "cat",
		Completions:  []string{"cats", "category"},
		Descriptions: []string{},
		URLs: []string{
			"http://example.com/?q=cats",
			"http://example.com/?q=category",
		},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("suggestions = %+v, want %+v", s, want)
	}
}

// --- osdesc_discover ---

func TestMCP_Discover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
  <link rel="search" type="application/opensearchdescription+xml"
        href="/osd.xml" title="Example Search">
</head></html>`)
	}))
	defer srv.Close()

	r := OpenMemory(t, testCfg())
	session := mcpSession(t, r)

	text := mcpCallTool(t, session, "osdesc_discover", map[string]any{"url": srv.URL})
	var resp struct {
		Links []osdesc.DiscoveredLink `json:"links"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []osdesc.DiscoveredLink{{Title: "Example Search", URL: srv.URL + "/osd.xml"}}
	if !reflect.DeepEqual(resp.Links, want) {
		t.Errorf("links = %+v, want %+v", resp.Links, want)
	}
}
