package osdesc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Suggestions is a Suggestions-extension response: on the wire, a
// positional JSON array [query, completions, descriptions?, queryUrls?].
// A nil tail field means the element was absent; the JSON codec preserves
// the positional form in both directions.
type Suggestions struct {
	Query        string
	Completions  []string
	Descriptions []string
	URLs         []string
}

// UnmarshalJSON decodes the positional array form. Absent or null tail
// elements leave their field nil; elements past the fourth are ignored.
func (s *Suggestions) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	*s = Suggestions{}
	targets := []any{&s.Query, &s.Completions, &s.Descriptions, &s.URLs}
	for i, target := range targets {
		if i >= len(elems) {
			break
		}
		if err := json.Unmarshal(elems[i], target); err != nil {
			return fmt.Errorf("suggestions element %d: %w", i, err)
		}
	}
	return nil
}

// MarshalJSON encodes the positional array form. Trailing nil elements
// are omitted so an unaugmented response round-trips with the same
// element count; a nil element before a present one is emitted as an
// empty array to keep positions stable.
func (s Suggestions) MarshalJSON() ([]byte, error) {
	n := 2
	if s.Descriptions != nil {
		n = 3
	}
	if s.URLs != nil {
		n = 4
	}
	elems := make([]any, 0, n)
	elems = append(elems, s.Query, emptyIfNil(s.Completions))
	if n >= 3 {
		elems = append(elems, emptyIfNil(s.Descriptions))
	}
	if n >= 4 {
		elems = append(elems, emptyIfNil(s.URLs))
	}
	return json.Marshal(elems)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Suggest queries the description's suggestion endpoint with params,
// which must carry at least "searchTerms". It fails with ErrNoSuggestions
// before any network traffic when the description declares no
// application/x-suggestions+json URL, and with ErrRequest on a non-2xx
// reply.
//
// When the endpoint omits the trailing query-URL element and the
// description declares a text/html results URL, the reply is backfilled:
// a descriptions placeholder is added if needed, and one results URL per
// completion is generated with searchTerms overridden to that completion,
// order preserved.
func (p *Provider) Suggest(ctx context.Context, params Values) (*Suggestions, error) {
	u := p.FindURL(TypeSuggestionsJSON)
	if u == nil {
		return nil, ErrNoSuggestions
	}

	resp, err := p.dispatch(ctx, u, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrRequest, resp.Status)
	}

	body, err := readBounded(resp.Body, p.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var s Suggestions
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	p.backfill(&s, params)
	return &s, nil
}

// backfill generates the query-URL element from the text/html template.
// Best effort: when that template cannot be expanded, the reply is left
// as the endpoint sent it.
func (p *Provider) backfill(s *Suggestions, params Values) {
	if s.URLs != nil {
		return
	}
	html := p.FindURL(TypeHTML)
	if html == nil {
		return
	}

	urls := make([]string, 0, len(s.Completions))
	for _, term := range s.Completions {
		expanded, err := expandURL(html, params.merged(Values{"searchTerms": term}))
		if err != nil {
			p.logger.Warn("osdesc: query url backfill failed", "term", term, "error", err)
			return
		}
		urls = append(urls, expanded)
	}
	if s.Descriptions == nil {
		s.Descriptions = []string{}
	}
	s.URLs = urls
}
