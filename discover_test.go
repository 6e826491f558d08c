package osdesc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestDiscoverLinks(t *testing.T) {
	page := []byte(`<!DOCTYPE html>
<html><head>
  <link rel="stylesheet" href="/style.css">
  <link rel="search" type="application/opensearchdescription+xml"
        href="/osd.xml" title="Example Search">
  <link rel="search" type="application/opensearchdescription+xml"
        href="images.xml" title="Image Search">
  <link rel="search" type="application/rss+xml" href="/feed.xml">
</head><body></body></html>`)

	got, err := DiscoverLinks(page, mustParseURL(t, "http://example.com/pages/index.html"))
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	want := []DiscoveredLink{
		{Title: "Example Search", URL: "http://example.com/osd.xml"},
		{Title: "Image Search", URL: "http://example.com/pages/images.xml"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoverLinks = %+v, want %+v", got, want)
	}
}

func TestDiscoverLinks_CaseAndTokenList(t *testing.T) {
	page := []byte(`<html><head>
  <link REL="Search alternate" TYPE="Application/OpenSearchDescription+XML"
        href="http://example.com/osd.xml" title="Mixed Case">
</head></html>`)

	got, err := DiscoverLinks(page, nil)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	if len(got) != 1 || got[0].URL != "http://example.com/osd.xml" {
		t.Errorf("DiscoverLinks = %+v, want one mixed-case match", got)
	}
}

func TestDiscoverLinks_SkipsIncomplete(t *testing.T) {
	page := []byte(`<html><head>
  <link rel="search" type="application/opensearchdescription+xml" title="No Href">
  <link rel="search" href="/osd.xml" title="No Type">
</head></html>`)

	got, err := DiscoverLinks(page, nil)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DiscoverLinks = %+v, want none", got)
	}
}

func TestDiscoverLinks_TagSoup(t *testing.T) {
	// The HTML parser is lenient; discovery should survive unquoted
	// attributes and unclosed elements.
	page := []byte(`<html><head>
<link rel="search" type="application/opensearchdescription+xml" href="/osd.xml" title=Soup>
<p>not closed`)

	got, err := DiscoverLinks(page, mustParseURL(t, "http://example.com/"))
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	if len(got) != 1 || got[0].URL != "http://example.com/osd.xml" {
		t.Errorf("DiscoverLinks = %+v, want the one link", got)
	}
}

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
  <link rel="search" type="application/opensearchdescription+xml"
        href="/osd.xml" title="Example Search">
</head></html>`)
	}))
	defer srv.Close()

	got, err := Discover(context.Background(), srv.URL+"/index.html", testConfig())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []DiscoveredLink{{Title: "Example Search", URL: srv.URL + "/osd.xml"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover = %+v, want %+v", got, want)
	}
}

func TestDiscover_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := Discover(context.Background(), srv.URL, testConfig()); !errors.Is(err, ErrRequest) {
		t.Fatalf("Discover error = %v, want ErrRequest", err)
	}
}

func TestDiscover_DefaultValidatorBlocksLoopback(t *testing.T) {
	if _, err := Discover(context.Background(), "http://127.0.0.1:9/", Config{}); !errors.Is(err, ErrPrivateAddress) {
		t.Fatalf("Discover error = %v, want ErrPrivateAddress", err)
	}
}
