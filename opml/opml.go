// Package opml reads and writes catalog feed lists as OPML documents.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/robertmeta/catalog-cli/model"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements (feeds).
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a feed or a folder of feeds.
type Outline struct {
	Text     string    `xml:"text,attr,omitempty"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLUrl   string    `xml:"xmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML document and returns its feeds in document order,
// tagged by position. Folders are flattened depth-first.
func Parse(r io.Reader) ([]model.Source, error) {
	var opml OPML
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&opml); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	return model.NewSources(extractLocations(opml.Body.Outlines)), nil
}

func extractLocations(outlines []Outline) []string {
	var locations []string
	for _, outline := range outlines {
		if loc := strings.TrimSpace(outline.XMLUrl); loc != "" {
			locations = append(locations, loc)
		}
		if len(outline.Outlines) > 0 {
			locations = append(locations, extractLocations(outline.Outlines)...)
		}
	}
	return locations
}

// Generate writes sources as a flat OPML document, preserving their order.
func Generate(w io.Writer, sources []model.Source) error {
	opml := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "catalog-cli feeds",
			DateCreated: time.Now().Format(time.RFC1123),
		},
		Body: Body{
			Outlines: []Outline{},
		},
	}

	for _, src := range sources {
		opml.Body.Outlines = append(opml.Body.Outlines, Outline{
			Type:   outlineType(src.Location),
			Text:   src.Tag,
			Title:  src.Tag,
			XMLUrl: src.Location,
		})
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	if err := encoder.Encode(opml); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}

func outlineType(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".csv":
		return "csv"
	case ".xml", ".rss":
		return "rss"
	case ".atom":
		return "atom"
	default:
		return ""
	}
}
