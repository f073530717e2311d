// Package site holds the static Document Registry and Navigation structure of
// the documentation site, with the lookups derived from them.
package site

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// IndexSlug is the distinguished registry slug served at DocsRoot
	IndexSlug = "index"

	// DocsRoot is the canonical href of the documentation landing page
	DocsRoot = "/docs"

	// DefaultSection labels documents that no navigation section links to
	DefaultSection = "Documentation"
)

var (
	ErrInvalidSite   = errors.New("invalid site definition")
	ErrDuplicateSlug = errors.New("duplicate document slug")
)

// Document is a Document Registry entry
type Document struct {
	Slug string `json:"slug" yaml:"slug"`
	Path string `json:"path" yaml:"path"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"` // Remote source, used by doc sync only
}

// Item is a navigation link
type Item struct {
	Title string `json:"title" yaml:"title"`
	Href  string `json:"href" yaml:"href"`
}

// Section is a named group of navigation links
type Section struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Items []Item `json:"items" yaml:"items"`
}

// Definition is the serialized form of a site
type Definition struct {
	Documents  []Document `json:"documents" yaml:"documents"`
	Navigation []Section  `json:"navigation" yaml:"navigation"`
}

// Site is an immutable registry + navigation pair with precomputed lookups.
// It is safe for concurrent use.
type Site struct {
	documents  []Document
	navigation []Section

	sectionByHref map[string]string
	titleByHref   map[string]string
}

// Href returns the canonical href of a document slug.
// Every consumer (indexing, navigation, sitemap) goes through this mapping.
func Href(slug string) string {
	if slug == IndexSlug {
		return DocsRoot
	}
	return DocsRoot + "/" + slug
}

// New validates a definition and builds the lookup tables once
func New(def Definition) (*Site, error) {
	seen := make(map[string]struct{}, len(def.Documents))
	docs := make([]Document, 0, len(def.Documents))
	for i, doc := range def.Documents {
		doc.Slug = strings.TrimSpace(doc.Slug)
		doc.Path = strings.TrimSpace(doc.Path)
		if doc.Slug == "" {
			return nil, fmt.Errorf("%w: document %d has an empty slug", ErrInvalidSite, i)
		}
		if doc.Path == "" {
			return nil, fmt.Errorf("%w: document %q has an empty path", ErrInvalidSite, doc.Slug)
		}
		if _, dup := seen[doc.Slug]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSlug, doc.Slug)
		}
		seen[doc.Slug] = struct{}{}
		docs = append(docs, doc)
	}

	nav := make([]Section, len(def.Navigation))
	for i, section := range def.Navigation {
		nav[i] = Section{
			Title: section.Title,
			Items: append([]Item(nil), section.Items...),
		}
	}

	s := &Site{
		documents:     docs,
		navigation:    nav,
		sectionByHref: make(map[string]string),
		titleByHref:   make(map[string]string),
	}

	// First occurrence wins for both lookups
	for _, section := range nav {
		for _, item := range section.Items {
			if _, ok := s.titleByHref[item.Href]; !ok && item.Title != "" {
				s.titleByHref[item.Href] = item.Title
			}
			if _, ok := s.sectionByHref[item.Href]; !ok && section.Title != "" {
				s.sectionByHref[item.Href] = section.Title
			}
		}
	}

	return s, nil
}

// Documents returns the registry in iteration order
func (s *Site) Documents() []Document {
	return append([]Document(nil), s.documents...)
}

// Navigation returns the navigation sections in display order
func (s *Site) Navigation() []Section {
	out := make([]Section, len(s.navigation))
	for i, section := range s.navigation {
		out[i] = Section{Title: section.Title, Items: append([]Item(nil), section.Items...)}
	}
	return out
}

// TitleFor returns the navigation title linked to href, or fallback
func (s *Site) TitleFor(href, fallback string) string {
	if title, ok := s.titleByHref[href]; ok {
		return title
	}
	return fallback
}

// SectionFor returns the navigation section containing href, or DefaultSection
func (s *Site) SectionFor(href string) string {
	if section, ok := s.sectionByHref[href]; ok {
		return section
	}
	return DefaultSection
}

// Sitemap lists the canonical href of every registered document
func (s *Site) Sitemap() []string {
	hrefs := make([]string, 0, len(s.documents))
	for _, doc := range s.documents {
		hrefs = append(hrefs, Href(doc.Slug))
	}
	return hrefs
}
