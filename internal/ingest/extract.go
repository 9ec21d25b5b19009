package ingest

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Article is the readable core of a filing page.
type Article struct {
	Title string
	Text  string
}

// ExtractArticle pulls the readable text out of a filing's HTML, dropping
// navigation, boilerplate and markup.
func ExtractArticle(html, pageURL string) (Article, error) {
	art, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err != nil {
		return Article{}, err
	}
	return Article{
		Title: strings.TrimSpace(art.Title),
		Text:  strings.TrimSpace(art.TextContent),
	}, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
