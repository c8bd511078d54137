// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package chunker splits document text into size-bounded, overlapping
// chunks using a hierarchical separator cascade.
package chunker

import (
	"strings"

	"github.com/northbound/cortex/internal/ids"
)

// separators is the cascade tried in priority order when a span of text
// still exceeds the token budget.
var separators = []string{"\n\n", "\n", ". ", " "}

// TextChunk is one piece of a chunked document.
type TextChunk struct {
	Text               string
	ChunkIndex         int
	SectionTitle       string
	StartChar          int
	EndChar            int
	TokenCountEstimate int
}

// EstimateTokens applies the character-count heuristic: one token per four
// characters, rounded up. No tokenizer dependency is involved.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Strategy bounds a chunker run: target token budget and overlap carried
// between adjacent chunks.
type Strategy struct {
	TargetTokens  int
	OverlapTokens int
}

// SelectStrategy picks a Strategy from the source type and the token count
// of the whole input. Long-form sources get bigger budgets; chat-style
// sources get smaller ones.
func SelectStrategy(source ids.SourceType, tokenCount int) Strategy {
	switch source {
	case ids.SourceNotion, ids.SourcePdfUpload:
		if tokenCount > 500 {
			return Strategy{TargetTokens: 400, OverlapTokens: 50}
		}
		return Strategy{TargetTokens: 300, OverlapTokens: 40}
	case ids.SourceSlack:
		return Strategy{TargetTokens: 200, OverlapTokens: 30}
	case ids.SourceGmail:
		return Strategy{TargetTokens: 350, OverlapTokens: 50}
	default:
		return Strategy{TargetTokens: 300, OverlapTokens: 40}
	}
}

// Chunk splits text into an ordered sequence of TextChunks using the given
// strategy. sectionTitle is propagated onto every emitted chunk for display
// purposes; it does not affect chunk identity. Chunking is total: any input,
// including the empty string, returns without error.
func Chunk(text string, sectionTitle string, strategy Strategy) []TextChunk {
	raw := splitRecursive(text, strategy, 0)

	chunks := make([]TextChunk, 0, len(raw))
	offset := 0
	index := 0
	for _, piece := range raw {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}

		start := offset
		if idx := strings.Index(text[offset:], trimmed); idx >= 0 {
			start = offset + idx
		}
		end := start + len(piece)
		offset = start

		chunks = append(chunks, TextChunk{
			Text:               piece,
			ChunkIndex:         index,
			SectionTitle:       sectionTitle,
			StartChar:          start,
			EndChar:            end,
			TokenCountEstimate: EstimateTokens(piece),
		})
		index++
	}
	return chunks
}

func splitRecursive(text string, strategy Strategy, depth int) []string {
	if EstimateTokens(text) <= strategy.TargetTokens {
		return []string{text}
	}

	separator := " "
	if depth < len(separators) {
		separator = separators[depth]
	}

	splits := strings.Split(text, separator)
	var chunks []string
	var current string

	for _, split := range splits {
		var candidate string
		if current == "" {
			candidate = split
		} else {
			candidate = current + separator + split
		}

		if EstimateTokens(candidate) > strategy.TargetTokens && current != "" {
			chunks = append(chunks, current)
			overlap := overlapTail(current, strategy.OverlapTokens)
			current = overlap + separator + split
		} else {
			current = candidate
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	result := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if EstimateTokens(c) > strategy.TargetTokens && depth+1 < len(separators) {
			result = append(result, splitRecursive(c, strategy, depth+1)...)
		} else {
			result = append(result, c)
		}
	}
	return result
}

// overlapTail returns the trailing overlap_tokens*4 characters of text, or
// the whole text if it is shorter than that.
func overlapTail(text string, overlapTokens int) string {
	targetChars := overlapTokens * 4
	if len(text) <= targetChars {
		return text
	}
	return text[len(text)-targetChars:]
}
