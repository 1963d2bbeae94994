package normalize

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ResidualTokens are markup fragments that survive conversion of AsciiDoc
// READMEs and carry no meaning as text.
var ResidualTokens = []string{":note-caption:", ":informationsource:", "image:", "adoc[Learn More]"}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// Raw HTML passes through so the tree walk below can drop it.
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// PlainText renders markdown to HTML, removes every tag (images along with
// their content), strips ResidualTokens and collapses whitespace.
func PlainText(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return collapseWhitespace(StripResidual(content))
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		return collapseWhitespace(StripResidual(content))
	}
	return collapseWhitespace(StripResidual(strings.Join(strippedStrings(doc), " ")))
}

// StripResidual removes every ResidualTokens occurrence from text.
func StripResidual(text string) string {
	for _, tok := range ResidualTokens {
		text = strings.ReplaceAll(text, tok, "")
	}
	return text
}

// strippedStrings returns the trimmed, non-empty text nodes of the tree in
// document order, skipping image and script subtrees.
func strippedStrings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Img, atom.Picture, atom.Svg, atom.Script, atom.Style:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
