package normalize

import (
	"regexp"
	"strings"
)

type substitution struct {
	re   *regexp.Regexp
	repl string
}

// Block-level removals come first so their delimiters are still intact when
// matched; the inline marker pass would otherwise eat "____" and "* ".
var adocSubstitutions = []substitution{
	// [source,lang] followed by a ---- delimited listing.
	{regexp.MustCompile(`(?s)\[source,[^\]\n]*\]\n----.*?----`), ""},
	// ____ delimited quote blocks.
	{regexp.MustCompile(`(?ms)^____.*?____`), ""},
	{regexp.MustCompile(`(?m)^(NOTE|TIP|WARNING|IMPORTANT|CAUTION):.*$`), ""},
	{regexp.MustCompile(`(?m)^//.*$`), ""},
	{regexp.MustCompile(`(?m)^=+ .*$`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*(\*+|\.+|-)[ \t]+`), ""},

	{regexp.MustCompile(`image::?[^\s\[]*\[[^\]\n]*\]`), ""},
	{regexp.MustCompile(`link:[^\s\[]*\[[^\]\n]*\]`), ""},
	{regexp.MustCompile(`https?://[^\s\[]+\[[^\]\n]*\]`), ""},

	{regexp.MustCompile(`[*_+^~]`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// AsciiDocText strips common AsciiDoc markup.
func AsciiDocText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, s := range adocSubstitutions {
		content = s.re.ReplaceAllString(content, s.repl)
	}
	return strings.TrimSpace(content)
}
