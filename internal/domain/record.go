package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Category is the market-signal bucket a record belongs to.
type Category string

const (
	CategoryFunding    Category = "Funding"
	CategoryStartup    Category = "Startup"
	CategoryTechnology Category = "Technology"
	CategoryNews       Category = "News"
	CategoryOpenSource Category = "OpenSource"
	CategoryPain       Category = "Pain"
	CategoryResearch   Category = "Research"
	CategoryProduct    Category = "Product"
	CategoryCommunity  Category = "Community"
)

const (
	// MaxBodyLen bounds stored body text.
	MaxBodyLen = 500

	// UnknownAuthor is used when a provider gives no author.
	UnknownAuthor = "unknown"
)

// Record is the unit flowing through the ingestion pipeline: one normalized
// item fetched from an external provider.
type Record struct {
	Source      string
	Title       string
	Body        string
	Link        string
	Author      string
	Category    Category
	PublishedAt time.Time
	Extra       map[string]any
}

// Normalized returns a copy with defaults applied: body clamped to
// MaxBodyLen, empty author replaced with UnknownAuthor, and a zero
// publication time replaced with the ingestion time.
func (r Record) Normalized(now time.Time) Record {
	r.Body = Truncate(strings.TrimSpace(r.Body), MaxBodyLen)
	r.Title = strings.TrimSpace(r.Title)
	if strings.TrimSpace(r.Author) == "" {
		r.Author = UnknownAuthor
	}
	if r.PublishedAt.IsZero() {
		r.PublishedAt = now
	}
	return r
}

// Truncate clamps s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
