// Package extract pulls candidate links out of fetched HTML.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractor finds anchor targets in an HTML document. Relative references
// resolve against the final page URL; only http and https results survive.
// Deduplication is left to the crawl core.
type LinkExtractor struct{}

// New returns a goquery-backed extractor.
func New() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract implements crawl.LinkExtractor.
func (LinkExtractor) Extract(baseURL string, body []byte) ([]string, error) {
	if len(body) == 0 {
		return nil, nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		links = append(links, abs.String())
	})
	return links, nil
}
