package osdesc

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts a raw description tree, as produced by xmltree.Parse
// with attributes merged onto elements, into a canonical Description.
//
// Missing or malformed fields never fail normalization: defaults are
// filled instead. The only error case is a nil tree, which is a caller
// bug rather than bad input. Fields outside the OpenSearch vocabulary are
// passed through on Extra.
func Normalize(raw map[string]any) (*Description, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil description tree", ErrInvalidInput)
	}

	d := defaultDescription()
	for key, val := range raw {
		switch key {
		case "ShortName":
			d.ShortName = asString(val)
		case "LongName":
			d.LongName = asString(val)
		case "Description":
			d.Description = asString(val)
		case "Contact":
			d.Contact = asString(val)
		case "Developer":
			d.Developer = asString(val)
		case "Attribution":
			d.Attribution = asString(val)
		case "SyndicationRight":
			d.SyndicationRight = normalizeSyndicationRight(asString(val))
		case "AdultContent":
			d.AdultContent = parseAdultContent(asString(val))
		case "Tags":
			d.Tags = normalizeTags(val)
		case "Language":
			d.Language = asStrings(val)
		case "InputEncoding":
			d.InputEncoding = asStrings(val)
		case "OutputEncoding":
			d.OutputEncoding = asStrings(val)
		case "Image":
			d.Images = normalizeImages(val)
		case "Url":
			d.URLs = normalizeURLs(val)
		case "Query":
			d.Queries = normalizeQueries(val)
		default:
			if d.Extra == nil {
				d.Extra = map[string]any{}
			}
			d.Extra[key] = val
		}
	}
	return d, nil
}

// defaultDescription builds a fresh default skeleton per call so that no
// slice or map is ever shared between normalized descriptions.
func defaultDescription() *Description {
	return &Description{
		SyndicationRight: SyndicationOpen,
		Tags:             []string{},
		Language:         []string{"*"},
		InputEncoding:    []string{"UTF-8"},
		OutputEncoding:   []string{"UTF-8"},
		Images:           []Image{},
		URLs:             []URL{},
	}
}

func normalizeSyndicationRight(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SyndicationLimited:
		return SyndicationLimited
	case SyndicationPrivate:
		return SyndicationPrivate
	case SyndicationClosed:
		return SyndicationClosed
	}
	return SyndicationOpen
}

// parseAdultContent applies the OpenSearch 1.1 boolean rule: the listed
// tokens (and absence) mean false, any other present value means true.
func parseAdultContent(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "false", "FALSE", "0", "no", "NO":
		return false
	}
	return true
}

// normalizeTags splits a single whitespace-delimited string into tokens.
// A source that already provided a sequence is kept element-for-element.
func normalizeTags(v any) []string {
	if list, ok := v.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, asString(item))
		}
		return out
	}
	return strings.Fields(asString(v))
}

func normalizeImages(v any) []Image {
	items := asSlice(v)
	out := make([]Image, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Image{
				Src:    asString(m["src"]),
				Height: asIntPtr(m["height"]),
				Width:  asIntPtr(m["width"]),
				Type:   asString(m["type"]),
			})
			continue
		}
		out = append(out, Image{Src: asString(item)})
	}
	return out
}

func normalizeURLs(v any) []URL {
	items := asSlice(v)
	out := make([]URL, 0, len(items))
	for _, item := range items {
		u := URL{
			Rel:         "results",
			IndexOffset: 1,
			PageOffset:  1,
			Method:      "get",
			Params:      []Param{},
		}
		if m, ok := item.(map[string]any); ok {
			u.Template = asString(m["template"])
			u.Type = asString(m["type"])
			if rel := asString(m["rel"]); rel != "" {
				u.Rel = rel
			}
			if n, ok := asInt(m["indexOffset"]); ok {
				u.IndexOffset = n
			}
			if n, ok := asInt(m["pageOffset"]); ok {
				u.PageOffset = n
			}
			if method := strings.ToLower(asString(m["method"])); method != "" {
				u.Method = method
			}
			u.Params = foldParams(m["Param"])
		}
		out = append(out, u)
	}
	return out
}

// foldParams flattens Param entries into an ordered name/value list.
// A repeated name keeps its first position and takes the last value, the
// way a JSON object fold would.
func foldParams(v any) []Param {
	items := asSlice(v)
	params := make([]Param, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := asString(m["name"])
		value := asString(m["value"])
		replaced := false
		for i := range params {
			if params[i].Name == name {
				params[i].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			params = append(params, Param{Name: name, Value: value})
		}
	}
	return params
}

func normalizeQueries(v any) []Query {
	items := asSlice(v)
	out := make([]Query, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := Query{
			Role:        asString(m["role"]),
			Title:       asString(m["title"]),
			SearchTerms: asString(m["searchTerms"]),
			Language:    asString(m["language"]),
		}
		if n, ok := asInt(m["totalResults"]); ok {
			q.TotalResults = n
		}
		if n, ok := asInt(m["count"]); ok {
			q.Count = n
		}
		if n, ok := asInt(m["startIndex"]); ok {
			q.StartIndex = n
		}
		if n, ok := asInt(m["startPage"]); ok {
			q.StartPage = n
		}
		out = append(out, q)
	}
	return out
}

// --- loose coercion helpers ---

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asIntPtr(v any) *int {
	if n, ok := asInt(v); ok {
		return &n
	}
	return nil
}

func asSlice(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func asStrings(v any) []string {
	items := asSlice(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, asString(item))
	}
	return out
}
