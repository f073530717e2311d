package indexing

// Entry is a single searchable item: either a whole document or one of its headings
type Entry struct {
	Title   string `json:"title"`
	Href    string `json:"href"`    // Canonical document href, plus "#fragment" for headings
	Content string `json:"content"` // Excerpt for documents, breadcrumb for headings
	Section string `json:"section"` // Navigation section label
}

// Heading is a level 2-4 heading found in a document's raw text
type Heading struct {
	Level int
	Text  string
	Slug  string
}
