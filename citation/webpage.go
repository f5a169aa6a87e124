package citation

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// maxAbstractRunes caps the scraped abstract length.
const maxAbstractRunes = 500

// scrapeWebpage builds a webpage-typed CSL item for a url citekey by
// fetching the page and extracting title, site name, and a short
// abstract from the readable article content.
func (m *MetadataClient) scrapeWebpage(ctx context.Context, rawURL string) (CSLItem, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("webpage metadata: invalid URL %q: %w", rawURL, err)
	}

	body, err := m.get(ctx, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("webpage metadata for %s: %w", rawURL, err)
	}

	item := CSLItem{
		"type":     "webpage",
		"URL":      rawURL,
		"accessed": cslDate(time.Now()),
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		// Unreadable pages still cite: fall back to the <title> tag.
		m.logger.Debug("Readability extraction failed",
			"url", rawURL, "error", err.Error())
		if title := htmlTitle(body); title != "" {
			item["title"] = title
		}
		return item, nil
	}

	title := article.Title
	if title == "" {
		title = htmlTitle(body)
	}
	if title != "" {
		item["title"] = title
	}
	if article.SiteName != "" {
		item["container-title"] = article.SiteName
	}
	if article.Byline != "" {
		item["author"] = []map[string]any{{"literal": article.Byline}}
	}
	if abstract := articleAbstract(article); abstract != "" {
		item["abstract"] = abstract
	}
	return item, nil
}

// articleAbstract produces a short plain-text abstract: readability's
// excerpt when present, otherwise the extracted content converted to
// markdown and truncated.
func articleAbstract(article readability.Article) string {
	if excerpt := strings.TrimSpace(article.Excerpt); excerpt != "" {
		return truncateRunes(excerpt, maxAbstractRunes)
	}
	if article.Content == "" {
		return ""
	}
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(article.Content)
	if err != nil {
		return ""
	}
	markdown = strings.TrimSpace(markdown)
	markdown = strings.Join(strings.Fields(markdown), " ")
	return truncateRunes(markdown, maxAbstractRunes)
}

// htmlTitle extracts the <title> element from raw HTML.
func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			extract(c)
		}
	}
	extract(doc)

	return title
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
