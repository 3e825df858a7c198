// Package tagger proposes tags for a bookmark.
//
// ChatClient asks an OpenAI-compatible chat-completions service (DeepSeek by
// default) for a comma-separated list and normalizes the answer with
// ParseTags. Placeholder stands in during dry runs.
package tagger

import (
	"context"
	"strings"
)

// Request describes the bookmark to tag
type Request struct {
	Title        string
	URL          string
	ExistingTags []string
}

// Tagger proposes tags for a bookmark
type Tagger interface {
	SuggestTags(ctx context.Context, req Request) ([]string, error)
}

// Func adapts a function to the Tagger interface
type Func func(ctx context.Context, req Request) ([]string, error)

// SuggestTags calls f
func (f Func) SuggestTags(ctx context.Context, req Request) ([]string, error) {
	return f(ctx, req)
}

// DefaultPlaceholderTags is returned by a zero Placeholder
var DefaultPlaceholderTags = []string{"tag1", "tag2", "tag3"}

// Placeholder returns a fixed tag list without contacting anything
type Placeholder struct {
	Tags []string
}

// SuggestTags returns a copy of the placeholder list
func (p Placeholder) SuggestTags(ctx context.Context, _ Request) ([]string, error) {
	tags := p.Tags
	if len(tags) == 0 {
		tags = DefaultPlaceholderTags
	}
	return append([]string(nil), tags...), ctx.Err()
}

// ParseTags splits a completion into tags. Fragments are trimmed of
// whitespace and quotes and lower-cased; empty fragments and repeats are
// dropped, keeping the first occurrence.
func ParseTags(text string) []string {
	parts := strings.Split(text, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, p := range parts {
		tag := strings.ToLower(strings.Trim(p, " \t\r\n\"'`"))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
