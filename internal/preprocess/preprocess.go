// Package preprocess turns fetched pages into bounded prompt material: a
// cleaned content blob for extraction and a listing of interactive elements
// for pagination discovery.
package preprocess

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/company-finder/internal/model"
)

const (
	// MaxContentChars bounds the cleaned content blob.
	MaxContentChars = 15000
	// MaxElements bounds the interactive element listing.
	MaxElements = 500
	// MaxElementText bounds the visible text kept per element.
	MaxElementText = 50
)

// chrome lists markup that never carries company listings.
const chrome = "script, style, nav, header, footer, iframe, svg, noscript, meta"

// elementAttrs are copied onto each element descriptor, in this order, after href.
var elementAttrs = []string{"id", "class", "aria-label", "title", "name", "value", "type"}

// Prepared is the preprocessed form of one page.
type Prepared struct {
	Content  string
	Elements []Element
}

// Prepare selects the extraction content and pagination elements for page.
// Markdown wins for content when present; elements come from HTML, falling
// back to markdown links.
func Prepare(page model.Page) Prepared {
	var p Prepared
	if page.Markdown != "" {
		p.Content = Truncate(page.Markdown, MaxContentChars)
	} else {
		p.Content = Clean(page.HTML)
	}

	if page.HTML != "" {
		p.Elements = InteractiveElements(page.HTML)
	}
	if len(p.Elements) == 0 && page.Markdown != "" {
		p.Elements = MarkdownLinks(page.Markdown)
	}
	return p
}

// Clean strips non-content markup and returns the body's outer HTML bounded
// to MaxContentChars. Input that cannot be parsed is returned unmodified.
func Clean(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find(chrome).Remove()

	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	out, err := goquery.OuterHtml(root)
	if err != nil {
		return html
	}
	return Truncate(out, MaxContentChars)
}

// InteractiveElements lists a, button and input elements in document order,
// up to MaxElements.
func InteractiveElements(html string) []Element {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []Element
	doc.Find("a, button, input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = append(out, describe(s))
		return len(out) < MaxElements
	})
	return out
}

func describe(s *goquery.Selection) Element {
	el := Element{
		Tag:  goquery.NodeName(s),
		Text: Truncate(collapse(s.Text()), MaxElementText),
	}
	if el.Tag == "a" {
		if href, ok := s.Attr("href"); ok && href != "" {
			el.Attrs = append(el.Attrs, Attr{Name: "href", Value: href})
		}
	}
	for _, name := range elementAttrs {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
			el.Attrs = append(el.Attrs, Attr{Name: name, Value: collapse(v)})
		}
	}
	return el
}

var mdLink = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// MarkdownLinks renders [text](href) links as anchor descriptors, up to
// MaxElements. Image links are skipped.
func MarkdownLinks(md string) []Element {
	var out []Element
	for _, m := range mdLink.FindAllStringSubmatchIndex(md, -1) {
		if m[0] > 0 && md[m[0]-1] == '!' {
			continue
		}
		out = append(out, Element{
			Tag:   "a",
			Attrs: []Attr{{Name: "href", Value: md[m[4]:m[5]]}},
			Text:  Truncate(collapse(md[m[2]:m[3]]), MaxElementText),
		})
		if len(out) >= MaxElements {
			break
		}
	}
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
