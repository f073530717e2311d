package indexing

import (
	"log"

	"github.com/zon-format/docsearch/internal/content"
	"github.com/zon-format/docsearch/internal/site"
)

// Builder produces the ordered entry list for every document of a site
type Builder struct {
	site   *site.Site
	source content.Source

	// Logf receives diagnostics about skipped documents; nil disables them
	Logf func(format string, args ...any)
}

// NewBuilder creates a builder over a site definition and the source its paths resolve against
func NewBuilder(s *site.Site, source content.Source) *Builder {
	return &Builder{
		site:   s,
		source: source,
		Logf:   log.Printf,
	}
}

// Site returns the site definition the builder indexes
func (b *Builder) Site() *site.Site {
	return b.site
}

// Build indexes all registry documents in registry order.
// It never fails: a document that cannot be loaded contributes no entries.
func (b *Builder) Build() []Entry {
	var entries []Entry
	for _, doc := range b.site.Documents() {
		raw, err := b.source.ReadFile(doc.Path)
		if err != nil {
			if b.Logf != nil {
				b.Logf("Skipping document %q (%s): %v", doc.Slug, doc.Path, err)
			}
			continue
		}
		entries = append(entries, b.DocumentEntries(doc.Slug, string(raw))...)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

// DocumentEntries returns the document-level entry for one document followed
// by one entry per level 2-4 heading
func (b *Builder) DocumentEntries(slug, raw string) []Entry {
	href := site.Href(slug)
	title := b.site.TitleFor(href, slug)
	section := b.site.SectionFor(href)

	headings := ExtractHeadings(raw)
	entries := make([]Entry, 0, len(headings)+1)
	entries = append(entries, Entry{
		Title:   title,
		Href:    href,
		Content: Truncate(PlainText(raw), ExcerptLength),
		Section: section,
	})

	var lastH2, lastH3 string
	for _, h := range headings {
		switch h.Level {
		case 2:
			lastH2 = h.Text
			lastH3 = ""
		case 3:
			lastH3 = h.Text
		}

		entries = append(entries, Entry{
			Title:   h.Text,
			Href:    href + "#" + h.Slug,
			Content: Breadcrumb(title, h.Level, lastH2, lastH3),
			Section: section,
		})
	}

	return entries
}

// Breadcrumb builds the hierarchy string of a heading from the document title
// and the enclosing level 2 and level 3 headings seen so far
func Breadcrumb(title string, level int, lastH2, lastH3 string) string {
	crumb := title
	if level >= 2 && lastH2 != "" {
		crumb += HierarchySeparator + lastH2
	}
	if level >= 3 && lastH3 != "" {
		crumb += HierarchySeparator + lastH3
	}
	return crumb
}
