// Package xmltree decodes XML documents into generic map trees.
//
// Attributes are merged onto their element's map, child elements appear
// under their local name, and an element that repeats accumulates into a
// slice in document order. An element carrying only character data
// collapses to its trimmed text. Documents that declare a non-UTF-8
// charset are transcoded while decoding.
//
// The shape is deliberately permissive: callers normalize it into typed
// structs at their own boundary.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Options control how elements are mapped onto the tree.
type Options struct {
	// TextKey is the map key that holds character data on elements that
	// also carry attributes or children. Default: "#text".
	TextKey string
}

func (o *Options) defaults() {
	if o.TextKey == "" {
		o.TextKey = "#text"
	}
}

// Parse decodes an XML document and returns a one-entry map from the root
// element's local name to its node. A node is either a string (text-only
// element) or a map[string]any of attributes and children.
func Parse(data []byte, opts Options) (map[string]any, error) {
	opts.defaults()

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack    []*frame
		rootName string
		rootNode any
		hasRoot  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: t.Name.Local, fields: map[string]any{}}
			for _, a := range t.Attr {
				key := a.Name.Local
				if a.Name.Space == "xmlns" {
					key = "xmlns:" + a.Name.Local
				}
				addField(f.fields, key, a.Value)
				f.hasAttrs = true
			}
			stack = append(stack, f)

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := f.node(opts.TextKey)
			if len(stack) == 0 {
				rootName = f.name
				rootNode = node
				hasRoot = true
			} else {
				parent := stack[len(stack)-1]
				addField(parent.fields, f.name, node)
				parent.children++
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if !hasRoot {
		return nil, errors.New("xmltree: document has no root element")
	}
	return map[string]any{rootName: rootNode}, nil
}

// frame is an open element on the decode stack.
type frame struct {
	name     string
	fields   map[string]any
	text     strings.Builder
	hasAttrs bool
	children int
}

// node finalizes the frame into its tree value.
func (f *frame) node(textKey string) any {
	text := strings.TrimSpace(f.text.String())
	if !f.hasAttrs && f.children == 0 {
		return text
	}
	if text != "" {
		addField(f.fields, textKey, text)
	}
	return f.fields
}

// addField sets key to v, promoting to a []any when the key repeats.
func addField(m map[string]any, key string, v any) {
	prev, ok := m[key]
	if !ok {
		m[key] = v
		return
	}
	if list, ok := prev.([]any); ok {
		m[key] = append(list, v)
		return
	}
	m[key] = []any{prev, v}
}
