package osdesc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// expandURL expands the base template with params, then appends each
// Param entry to the query string in declaration order.
//
// Param expansions are percent-decoded before the query serializer
// re-encodes them, so values the template engine already encoded are not
// double-encoded. The decode step leaves "+" alone; only percent
// sequences are rewritten.
func expandURL(u *URLTemplate, params Values) (string, error) {
	base, err := u.Template.Expand(params)
	if err != nil {
		return "", fmt.Errorf("expand template: %w", err)
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse expanded URL: %w", err)
	}

	query := parsed.RawQuery
	for _, p := range u.Params {
		pair, err := expandParamPair(p, params)
		if err != nil {
			return "", err
		}
		if query == "" {
			query = pair
		} else {
			query += "&" + pair
		}
	}
	parsed.RawQuery = query
	return parsed.String(), nil
}

// formBody renders the Param entries as an
// application/x-www-form-urlencoded body, in declaration order.
func formBody(u *URLTemplate, params Values) (string, error) {
	var b strings.Builder
	for _, p := range u.Params {
		pair, err := expandParamPair(p, params)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pair)
	}
	return b.String(), nil
}

func expandParamPair(p CompiledParam, params Values) (string, error) {
	expanded, err := p.Value.Expand(params)
	if err != nil {
		return "", fmt.Errorf("expand param %q: %w", p.Name, err)
	}
	decoded, err := url.PathUnescape(expanded)
	if err != nil {
		return "", fmt.Errorf("decode param %q: %w", p.Name, err)
	}
	return url.QueryEscape(p.Name) + "=" + url.QueryEscape(decoded), nil
}

// dispatch builds and issues the HTTP request for one URL entry.
//
// GET expands everything into the request URL. POST sends the Param
// entries as a form-encoded body against the expanded base template, the
// Param extension's reading of non-GET urls. Any other method is refused
// rather than silently ignored.
func (p *Provider) dispatch(ctx context.Context, u *URLTemplate, params Values) (*http.Response, error) {
	var req *http.Request
	switch u.Method {
	case "get", "":
		target, err := expandURL(u, params)
		if err != nil {
			return nil, err
		}
		if err := p.config.URLValidator(target); err != nil {
			return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}

	case "post":
		target, err := u.Template.Expand(params)
		if err != nil {
			return nil, fmt.Errorf("expand template: %w", err)
		}
		if err := p.config.URLValidator(target); err != nil {
			return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
		}
		body, err := formBody(u, params)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, u.Method)
	}

	req.Header.Set("User-Agent", p.config.UserAgent)
	p.logger.Debug("osdesc: dispatch", "method", req.Method, "url", req.URL.String())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", strings.ToLower(req.Method), err)
	}
	return resp, nil
}
