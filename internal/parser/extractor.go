// Package parser provides content extraction from parsed HTML documents.
// It produces the outbound link set, the media-reference sets and the cleaned
// visible text of a page.
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/grabtools/webgrab/internal/urlutil"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Media holds the media URLs referenced by one page, deduplicated within the
// page.
type Media struct {
	Images []string
	Videos []string
}

// Extractor extracts links, media references and text from a document,
// resolving every reference against the page's base URL.
type Extractor struct {
	base *url.URL
}

// NewExtractor creates an extractor for a page at the given base URL.
func NewExtractor(baseURL string) (*Extractor, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Extractor{base: parsed}, nil
}

// Links returns the page's outbound hyperlinks, resolved and normalized.
// Links that fail URL validation or the likely-content heuristic are dropped.
func (e *Extractor) Links(doc *goquery.Document) []string {
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		resolved := urlutil.Resolve(e.base, href)
		if resolved == "" || !urlutil.IsValid(resolved) || !urlutil.LikelyContent(resolved) {
			return
		}
		seen[resolved] = struct{}{}
	})

	return sortedKeys(seen)
}

// MediaURLs returns the image and video references of the page. Extraction
// for a disabled category is skipped entirely, so no URLs are collected for
// it.
func (e *Extractor) MediaURLs(doc *goquery.Document, images, videos bool) Media {
	var media Media

	if images {
		seen := make(map[string]struct{})

		doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
			if src, ok := sel.Attr("src"); ok {
				e.collect(seen, src)
			}
		})

		// A srcset entry is "URL [descriptor]"; only the URL token matters.
		doc.Find("img[srcset]").Each(func(_ int, sel *goquery.Selection) {
			srcset, _ := sel.Attr("srcset")
			for _, entry := range strings.Split(srcset, ",") {
				fields := strings.Fields(entry)
				if len(fields) > 0 {
					e.collect(seen, fields[0])
				}
			}
		})

		media.Images = sortedKeys(seen)
	}

	if videos {
		seen := make(map[string]struct{})

		doc.Find("video").Each(func(_ int, sel *goquery.Selection) {
			if src, ok := sel.Attr("src"); ok {
				e.collect(seen, src)
			}
			sel.Find("source[src]").Each(func(_ int, source *goquery.Selection) {
				if src, ok := source.Attr("src"); ok {
					e.collect(seen, src)
				}
			})
		})

		media.Videos = sortedKeys(seen)
	}

	return media
}

// Text extracts the page's visible text. Script and style elements are
// removed from the document first, then runs of whitespace are collapsed to
// single spaces. The removal mutates the document, so Text must run before
// the document is reused for rendering (link and media extraction are
// unaffected).
func (e *Extractor) Text(doc *goquery.Document) string {
	doc.Find("script, style").Remove()

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		collectText(node, &b)
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// collect resolves, normalizes and validates one media reference.
func (e *Extractor) collect(seen map[string]struct{}, src string) {
	resolved := urlutil.Resolve(e.base, src)
	if resolved == "" || !urlutil.IsValid(resolved) {
		return
	}
	seen[resolved] = struct{}{}
}

// collectText walks the node tree appending text node content.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
