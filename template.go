package osdesc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// Values holds the caller-supplied parameters for one expansion, e.g.
// {"searchTerms": "cats"}. Namespaced parameters use their natural name
// ("moz:locale").
type Values map[string]string

func (v Values) uriValues() uritemplate.Values {
	out := make(uritemplate.Values, len(v))
	for k, val := range v {
		out[escapeVarname(k)] = uritemplate.String(val)
	}
	return out
}

// merged returns a copy of v with override applied on top.
func (v Values) merged(override Values) Values {
	out := make(Values, len(v)+len(override))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range override {
		out[k] = val
	}
	return out
}

// optionalMarker is the OpenSearch optional suffix, e.g. {startPage?}.
var optionalMarker = regexp.MustCompile(`\{([^{}?]+)\?\}`)

// namespacedVar is a template variable with an XML-namespace prefix, e.g.
// {moz:locale}. The second segment must start with a letter so that the
// RFC 6570 prefix modifier ({var:3}) is left alone.
var namespacedVar = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*):([A-Za-z_][A-Za-z0-9_.]*)\}`)

func escapeVarname(name string) string {
	return strings.ReplaceAll(name, ":", "%3A")
}

// Template is a compiled OpenSearch URL template. Construction never
// fails: a template the engine cannot parse carries a deferred error that
// surfaces on Expand.
type Template struct {
	raw      string
	compiled *uritemplate.Template
	err      error
}

// NewTemplate compiles an OpenSearch-dialect template string.
//
// Two dialect quirks are normalized away before RFC 6570 parsing: the
// optional marker ({startPage?}) is dropped, since an undefined RFC 6570
// variable already expands to nothing, and namespaced variables
// ({moz:locale}) have their colon percent-encoded, since a bare colon
// reads as a prefix modifier.
func NewTemplate(raw string) *Template {
	normalized := optionalMarker.ReplaceAllString(raw, "{$1}")
	normalized = namespacedVar.ReplaceAllString(normalized, "{$1%3A$2}")
	compiled, err := uritemplate.New(normalized)
	if err != nil {
		return &Template{raw: raw, err: fmt.Errorf("%w: %v", ErrTemplate, err)}
	}
	return &Template{raw: raw, compiled: compiled}
}

// Raw returns the template string as declared by the description.
func (t *Template) Raw() string { return t.raw }

// Expand resolves the template against params. Parameters the template
// does not reference are ignored; referenced variables the caller did not
// supply expand to nothing. Reserved characters in values are
// percent-encoded by the engine.
func (t *Template) Expand(params Values) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.compiled.Expand(params.uriValues())
}

// CompiledParam pairs a Param name with its compiled value template.
type CompiledParam struct {
	Name  string
	Value *Template
}

// URLTemplate is the compiled view of a URL: the same fields, with the
// base template and every Param value turned into expandable templates.
type URLTemplate struct {
	Template    *Template
	Type        string
	Rel         string
	IndexOffset int
	PageOffset  int
	Method      string
	Params      []CompiledParam
}

// Compile builds the expandable view of normalized URL entries. It never
// fails; template syntax problems surface when the template is expanded.
func Compile(urls []URL) []URLTemplate {
	out := make([]URLTemplate, 0, len(urls))
	for _, u := range urls {
		params := make([]CompiledParam, 0, len(u.Params))
		for _, p := range u.Params {
			params = append(params, CompiledParam{Name: p.Name, Value: NewTemplate(p.Value)})
		}
		out = append(out, URLTemplate{
			Template:    NewTemplate(u.Template),
			Type:        u.Type,
			Rel:         u.Rel,
			IndexOffset: u.IndexOffset,
			PageOffset:  u.PageOffset,
			Method:      u.Method,
			Params:      params,
		})
	}
	return out
}
