package classify

import (
	"strings"

	"MarketRadar/internal/domain"
)

// Group is one ordered set of category keywords: the first group whose terms
// match wins.
type Group struct {
	Category domain.Category
	Terms    []string
}

// Classifier filters spam and assigns categories to records that arrive
// without an adapter pre-tag.
type Classifier struct {
	exclude []string
	groups  []Group
}

// New builds a classifier from the configured spam blocklist and ordered
// keyword groups.
func New(exclude []string, groups []Group) *Classifier {
	lowered := make([]string, 0, len(exclude))
	for _, term := range exclude {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lowered = append(lowered, term)
		}
	}
	return &Classifier{exclude: lowered, groups: groups}
}

// IsSpam reports whether text contains any blocklisted term,
// case-insensitively.
func (c *Classifier) IsSpam(text string) bool {
	lowered := strings.ToLower(text)
	for _, term := range c.exclude {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// ClassifyText returns the category of the first keyword group matching text,
// or CategoryNews when nothing matches.
func (c *Classifier) ClassifyText(text string) domain.Category {
	lowered := strings.ToLower(text)
	for _, group := range c.groups {
		for _, term := range group.Terms {
			if term == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(term)) {
				return group.Category
			}
		}
	}
	return domain.CategoryNews
}

// Classify keeps an adapter's pre-assigned category and otherwise derives one
// from the record's title and body.
func (c *Classifier) Classify(record domain.Record) domain.Category {
	if record.Category != "" {
		return record.Category
	}
	return c.ClassifyText(record.Title + " " + record.Body)
}
