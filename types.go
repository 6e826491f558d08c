package osdesc

// URL types with defined roles in a description document.
const (
	// TypeHTML marks the human-facing results page template.
	TypeHTML = "text/html"
	// TypeSuggestionsJSON marks the Suggestions-extension endpoint.
	TypeSuggestionsJSON = "application/x-suggestions+json"
	// TypeOpenSearchXML is the MIME type of description documents
	// themselves, used in HTML autodiscovery links.
	TypeOpenSearchXML = "application/opensearchdescription+xml"
)

// Syndication rights defined by OpenSearch 1.1.
const (
	SyndicationOpen    = "open"
	SyndicationLimited = "limited"
	SyndicationPrivate = "private"
	SyndicationClosed  = "closed"
)

// Description is the canonical, normalized form of an OpenSearch
// description document (or Mozilla SearchPlugin). Every slice field is
// non-nil after normalization, and every URL carries its defaults.
// Descriptions are immutable once a Provider owns them.
type Description struct {
	ShortName        string   `json:"short_name"`
	LongName         string   `json:"long_name,omitempty"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	Contact          string   `json:"contact,omitempty"`
	Developer        string   `json:"developer,omitempty"`
	Attribution      string   `json:"attribution,omitempty"`
	SyndicationRight string   `json:"syndication_right"`
	AdultContent     bool     `json:"adult_content"`
	Language         []string `json:"language"`
	InputEncoding    []string `json:"input_encoding"`
	OutputEncoding   []string `json:"output_encoding"`
	Images           []Image  `json:"images"`
	URLs             []URL    `json:"urls"`
	Queries          []Query  `json:"queries,omitempty"`

	// Extra holds raw tree fields outside the OpenSearch vocabulary,
	// passed through untouched.
	Extra map[string]any `json:"extra,omitempty"`
}

// HasURLType reports whether the description declares a URL entry of the
// given MIME type.
func (d *Description) HasURLType(mimeType string) bool {
	for i := range d.URLs {
		if d.URLs[i].Type == mimeType {
			return true
		}
	}
	return false
}

// Image is an icon or logo advertised by the description. Height and
// Width are nil when the source attribute is absent or not an integer.
type Image struct {
	Src    string `json:"src"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
	Type   string `json:"type,omitempty"`
}

// URL is one search endpoint template. Params is the Mozilla Param
// extension: extra named query parameters whose values may themselves
// contain template variables. Param order is the document order of the
// first occurrence of each name.
type URL struct {
	Template    string  `json:"template"`
	Type        string  `json:"type,omitempty"`
	Rel         string  `json:"rel"`
	IndexOffset int     `json:"index_offset"`
	PageOffset  int     `json:"page_offset"`
	Method      string  `json:"method"`
	Params      []Param `json:"params"`
}

// Param is a named, template-valued query parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Query is an OpenSearch Query element: an example or related query the
// engine advertises.
type Query struct {
	Role         string `json:"role,omitempty"`
	Title        string `json:"title,omitempty"`
	SearchTerms  string `json:"search_terms,omitempty"`
	Language     string `json:"language,omitempty"`
	TotalResults int    `json:"total_results,omitempty"`
	Count        int    `json:"count,omitempty"`
	StartIndex   int    `json:"start_index,omitempty"`
	StartPage    int    `json:"start_page,omitempty"`
}
