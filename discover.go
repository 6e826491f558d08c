package osdesc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DiscoveredLink is one description document advertised by an HTML page.
type DiscoveredLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DiscoverLinks scans an HTML page for autodiscovery links of the form
//
//	<link rel="search" type="application/opensearchdescription+xml"
//	      href="..." title="..."/>
//
// and returns them in document order. Relative hrefs are resolved
// against base when it is non-nil.
func DiscoverLinks(pageHTML []byte, base *url.URL) ([]DiscoveredLink, error) {
	doc, err := html.Parse(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var links []DiscoveredLink
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Link {
			if l, ok := discoveryLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return links, nil
}

func discoveryLink(n *html.Node, base *url.URL) (DiscoveredLink, bool) {
	var rel, typ, href, title string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "rel":
			rel = a.Val
		case "type":
			typ = a.Val
		case "href":
			href = a.Val
		case "title":
			title = a.Val
		}
	}
	if !relContains(rel, "search") || !strings.EqualFold(strings.TrimSpace(typ), TypeOpenSearchXML) || href == "" {
		return DiscoveredLink{}, false
	}

	resolved := href
	if base != nil {
		if ref, err := url.Parse(href); err == nil {
			resolved = base.ResolveReference(ref).String()
		}
	}
	return DiscoveredLink{Title: title, URL: resolved}, true
}

// rel holds a space-separated token list.
func relContains(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// Discover fetches an HTML page and returns the description documents it
// advertises. Relative hrefs are resolved against the final request URL,
// so links survive redirects.
func Discover(ctx context.Context, pageURL string, cfg Config) ([]DiscoveredLink, error) {
	cfg.defaults()
	if err := cfg.URLValidator(pageURL); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
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
	return DiscoverLinks(body, resp.Request.URL)
}
