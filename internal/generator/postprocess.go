package generator

import (
	"bytes"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// StripCodeFences drops fence lines such as ``` or ```html that models wrap
// around markup.
func StripCodeFences(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") && !strings.ContainsAny(strings.TrimPrefix(trimmed, "```"), " <>`") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// MarkdownToHTML renders CommonMark to HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeHTML removes scripts, event handlers, and other unsafe markup while
// keeping ordinary formatting tags.
func SanitizeHTML(body string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(body))
}

// ExtractTitle returns the text of the first <h2>, or "" when there is none.
func ExtractTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("h2").First().Text()), " ")
}

// PlainText strips all markup and collapses whitespace. Block boundaries
// become single spaces so sentences do not run together.
func PlainText(body string) string {
	spaced := strings.NewReplacer("</p>", "</p> ", "</h2>", "</h2> ", "</li>", "</li> ", "<br>", " ", "<br/>", " ", "<br />", " ").Replace(body)
	text := html.UnescapeString(plainPolicy.Sanitize(spaced))
	return strings.Join(strings.Fields(text), " ")
}
