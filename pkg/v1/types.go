package v1

// Page is a rendered wiki document.
type Page struct {
	Path      string            `json:"path"`
	Title     string            `json:"title,omitempty"`
	MediaType string            `json:"media_type"`
	HTML      string            `json:"html,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// SearchResult is one matching line at the head revision.
type SearchResult struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Commit describes a revision of the wiki.
type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
}
