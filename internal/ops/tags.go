package ops

import (
	"context"
	"strings"
)

// TagStore reads the tag history.
type TagStore interface {
	AllTags(ctx context.Context) ([]string, error)
}

// TagsOutput lists every tag used so far.
type TagsOutput struct {
	Tags []string `json:"tags"`
}

// Tags returns the tag history used for suggestions.
func Tags(ctx context.Context, store TagStore) (*TagsOutput, error) {
	tags, err := store.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return &TagsOutput{Tags: tags}, nil
}

// SuggestTags returns history tags starting with prefix that are not already chosen.
func SuggestTags(history, chosen []string, prefix string) []string {
	taken := make(map[string]bool, len(chosen))
	for _, t := range chosen {
		taken[t] = true
	}

	out := make([]string, 0)
	for _, t := range history {
		if taken[t] {
			continue
		}
		if !strings.HasPrefix(t, prefix) {
			continue
		}
		out = append(out, t)
	}
	return out
}
