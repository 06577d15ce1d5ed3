package clipclean

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gitlab.com/tozd/go/errors"
)

// Link is an anchor found in copied HTML.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// ExtractLinks returns every a[href] of an HTML fragment in document order.
// Link text has its whitespace normalized.
func ExtractLinks(input string) ([]Link, error) {
	links := []Link{}
	if input == "" {
		return links, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return nil, errors.Errorf("parsing HTML: %w", err)
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, Link{
			Text: normalizeWhitespace(s.Text(), ProcessingOptions{}),
			Href: strings.TrimSpace(href),
		})
	})
	return links, nil
}

// FormatLinks renders links one per line using format, where {text} and
// {href} are substituted. An empty format prints the href alone.
func FormatLinks(links []Link, format string) string {
	lines := make([]string, len(links))
	for i, link := range links {
		if format == "" {
			lines[i] = link.Href
			continue
		}
		line := strings.ReplaceAll(format, "{text}", link.Text)
		lines[i] = strings.ReplaceAll(line, "{href}", link.Href)
	}
	return strings.Join(lines, "\n")
}
