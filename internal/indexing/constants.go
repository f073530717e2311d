package indexing

// Index construction constants
const (
	// ExcerptLength is the maximum number of characters (runes) kept from a
	// document's plain text in its document-level entry
	ExcerptLength = 200

	// HierarchySeparator joins the levels of a heading breadcrumb
	HierarchySeparator = " > "

	// MinHeadingLevel and MaxHeadingLevel bound the headings that get their own entry
	MinHeadingLevel = 2
	MaxHeadingLevel = 4

	// IndexSchemaVersion increments when the entry format or extraction rules change
	// v1: document + heading entries with breadcrumb content
	IndexSchemaVersion = 1
)
