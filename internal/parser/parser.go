// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package parser segments document content into titled sections by
// detecting markdown-style headings. It is advisory: the section title it
// assigns propagates into chunk metadata for display, but sectioning never
// changes chunk identity.
package parser

import "strings"

// Section is one heading-delimited run of a document.
type Section struct {
	Title       string
	Content     string
	StartOffset int
}

// ParsedDocument is a document split into sections, ready for chunking.
type ParsedDocument struct {
	Title    string
	Sections []Section
	FullText string
}

// Parse splits content into sections on lines beginning with one or more
// '#' characters (after trimming). Consecutive non-heading lines accumulate
// into the current section's body. If no heading is found, the whole input
// becomes a single untitled section.
func Parse(title, content string) ParsedDocument {
	var sections []Section
	var currentTitle string
	var currentContent strings.Builder
	currentStart := 0
	haveTitle := false

	flush := func() {
		body := strings.TrimSpace(currentContent.String())
		if body == "" {
			return
		}
		t := ""
		if haveTitle {
			t = currentTitle
		}
		sections = append(sections, Section{
			Title:       t,
			Content:     body,
			StartOffset: currentStart,
		})
	}

	searchFrom := 0
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			flush()
			currentTitle = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			haveTitle = true
			currentContent.Reset()

			if idx := strings.Index(content[searchFrom:], line); idx >= 0 {
				currentStart = searchFrom + idx
			} else {
				currentStart = 0
			}
		} else {
			if currentContent.Len() > 0 {
				currentContent.WriteByte('\n')
			}
			currentContent.WriteString(line)
		}
		searchFrom += len(line) + 1
	}
	flush()

	if len(sections) == 0 {
		sections = append(sections, Section{Content: content})
	}

	return ParsedDocument{
		Title:    title,
		Sections: sections,
		FullText: content,
	}
}
