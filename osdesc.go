// Package osdesc parses OpenSearch 1.1 description documents (and
// Mozilla SearchPlugin variants) into a normalized model, compiles their
// URL templates, and dispatches parameterized search and suggestion
// requests against the endpoints they declare.
//
// Usage:
//
//	p, err := osdesc.FromFile("engine.xml", osdesc.Config{})
//	if err != nil {
//		return err
//	}
//	sugg, err := p.Suggest(ctx, osdesc.Values{"searchTerms": "cats"})
//
// A Provider is immutable after construction and safe for concurrent use.
package osdesc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/hazyhaar/osdesc/xmltree"
)

// Provider owns a normalized description and its compiled URL templates.
type Provider struct {
	desc      *Description
	templates []URLTemplate
	config    Config
	client    *http.Client
	logger    *slog.Logger
}

// New constructs a Provider around an already-normalized description,
// compiling its URL entries. Use this to rehydrate a stored description;
// for raw documents, use FromXML, FromFile or FromURL.
func New(desc *Description, cfg Config) *Provider {
	cfg.defaults()
	return &Provider{
		desc:      desc,
		templates: Compile(desc.URLs),
		config:    cfg,
		client:    newHTTPClient(cfg),
		logger:    cfg.Logger,
	}
}

// FromXML parses a description document and constructs a Provider. Both
// the OpenSearchDescription root and Mozilla's SearchPlugin root are
// accepted.
func FromXML(data []byte, cfg Config) (*Provider, error) {
	tree, err := xmltree.Parse(data, xmltree.Options{TextKey: "src"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	node, ok := tree["OpenSearchDescription"]
	if !ok {
		node, ok = tree["SearchPlugin"]
	}
	if !ok {
		return nil, fmt.Errorf("%w: root element is neither OpenSearchDescription nor SearchPlugin", ErrParse)
	}

	// An empty root element collapses to a bare string; normalize it as
	// an empty tree so the description falls back to pure defaults.
	raw, _ := node.(map[string]any)
	if raw == nil {
		raw = map[string]any{}
	}

	desc, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	return New(desc, cfg), nil
}

// FromFile reads a description document from disk.
func FromFile(path string, cfg Config) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return FromXML(data, cfg)
}

// FromURL fetches a description document over HTTP. The URL is validated
// before the request, the response must be 2xx, and the body read is
// capped at Config.MaxBytes.
func FromURL(ctx context.Context, rawURL string, cfg Config) (*Provider, error) {
	cfg.defaults()
	if err := cfg.URLValidator(rawURL); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := newHTTPClient(cfg).Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrRequest, resp.Status)
	}
	body, err := readBounded(resp.Body, cfg.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return FromXML(body, cfg)
}

// newHTTPClient builds the outbound client with SSRF protection on
// redirects. cfg must already have defaults applied.
func newHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	validate := cfg.URLValidator
	return &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (%d)", len(via))
			}
			if err := validate(req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked (SSRF): %w", err)
			}
			return nil
		},
	}
}

// Description returns the normalized description. Callers must treat it
// as read-only.
func (p *Provider) Description() *Description { return p.desc }

// URLTemplates returns the compiled URL entries, in declaration order.
func (p *Provider) URLTemplates() []URLTemplate { return p.templates }

// FindURL returns the first compiled URL entry with the given MIME type,
// or nil when the description declares none.
func (p *Provider) FindURL(mimeType string) *URLTemplate {
	for i := range p.templates {
		if p.templates[i].Type == mimeType {
			return &p.templates[i]
		}
	}
	return nil
}

// SearchURL expands the text/html results URL with params without
// dispatching it, for handing the search off to a browser.
func (p *Provider) SearchURL(params Values) (string, error) {
	u := p.FindURL(TypeHTML)
	if u == nil {
		return "", fmt.Errorf("%w: %s", ErrNoSuchURL, TypeHTML)
	}
	return expandURL(u, params)
}
