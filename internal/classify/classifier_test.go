package classify

import (
	"testing"

	"MarketRadar/internal/domain"
)

func testGroups() []Group {
	return []Group{
		{Category: domain.CategoryFunding, Terms: []string{"raised", "funding", "series a"}},
		{Category: domain.CategoryStartup, Terms: []string{"startup", "launch", "yc"}},
		{Category: domain.CategoryTechnology, Terms: []string{"ai", "llm", "open source"}},
	}
}

func TestIsSpam(t *testing.T) {
	t.Parallel()

	c := New([]string{"casino", "SCAM", " "}, testGroups())

	cases := []struct {
		text string
		want bool
	}{
		{"Best Casino bonuses inside", true},
		{"scam alert: fake token sale", true},
		{"Acme raised $5M Series A", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := c.IsSpam(tc.text); got != tc.want {
			t.Fatalf("IsSpam(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestClassifyTextPriority(t *testing.T) {
	t.Parallel()

	c := New(nil, testGroups())

	// Text matching two groups takes the earlier category.
	if got := c.ClassifyText("AI startup raised a seed round"); got != domain.CategoryFunding {
		t.Fatalf("funding must win over startup, got %s", got)
	}
	if got := c.ClassifyText("new startup launch on YC"); got != domain.CategoryStartup {
		t.Fatalf("expected Startup, got %s", got)
	}
	if got := c.ClassifyText("weather report for tuesday"); got != domain.CategoryNews {
		t.Fatalf("unmatched text must fall back to News, got %s", got)
	}
}

func TestClassifyKeepsPreTag(t *testing.T) {
	t.Parallel()

	c := New(nil, testGroups())

	tagged := domain.Record{Title: "Acme raised $5M", Category: domain.CategoryOpenSource}
	if got := c.Classify(tagged); got != domain.CategoryOpenSource {
		t.Fatalf("adapter pre-tag must survive classification, got %s", got)
	}

	untagged := domain.Record{Title: "Acme raised $5M", Body: "Series A funding"}
	if got := c.Classify(untagged); got != domain.CategoryFunding {
		t.Fatalf("expected Funding, got %s", got)
	}
}
