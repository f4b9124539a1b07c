// Package chunker splits finished replies into display-sized pieces.
package chunker

import "strings"

// DefaultMaxChars is the bucket size used when none is given.
const DefaultMaxChars = 1200

// separator joins paragraphs within a bucket.
const separator = "\n\n"

// Paragraphs splits text on blank-line boundaries and greedily packs
// whole paragraphs into buckets of at most maxChars. A paragraph is
// never split: one longer than maxChars is emitted whole once it is
// alone in its bucket. Text that already fits (including the empty
// string) comes back as a single element, unchanged.
type Paragraphs struct {
	maxChars int
}

// NewParagraphs creates a paragraph chunker. Non-positive maxChars
// falls back to DefaultMaxChars.
func NewParagraphs(maxChars int) *Paragraphs {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Paragraphs{maxChars: maxChars}
}

// Chunk splits text into display buckets.
func (p *Paragraphs) Chunk(text string) []string {
	if len(text) <= p.maxChars {
		return []string{text}
	}

	var chunks []string
	var bucket string
	for _, block := range splitParagraphs(text) {
		candidate := block
		if bucket != "" {
			candidate = bucket + separator + block
		}
		if len(candidate) > p.maxChars && bucket != "" {
			chunks = append(chunks, bucket)
			bucket = block
		} else {
			bucket = candidate
		}
	}
	if bucket != "" {
		chunks = append(chunks, bucket)
	}
	return chunks
}

// splitParagraphs splits on runs of blank lines, mirroring a split on
// the /\n\n+/ boundary: consecutive separators collapse and never
// yield empty paragraphs in the middle.
func splitParagraphs(text string) []string {
	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "\n")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// Chunk splits text with the default bucket size.
func Chunk(text string) []string {
	return NewParagraphs(DefaultMaxChars).Chunk(text)
}
