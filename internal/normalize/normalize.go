// Package normalize converts README documents to plain text.
//
// Supported formats, selected by file extension:
//   - .md, .markdown kept as markdown; PlainText renders it later
//   - .adoc          AsciiDoc, markup stripped by pattern substitution
//   - .rst           reStructuredText, parsed to a node tree and flattened
//   - .txt           passthrough
//
// Every function here is pure and never fails; malformed input degrades to
// best-effort or empty output.
package normalize

import (
	"path/filepath"
	"strings"
)

// Format identifies a README dialect.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatAsciiDoc Format = "adoc"
	FormatRST      Format = "rst"
	FormatText     Format = "txt"
)

// Detect maps a filename or bare extension ("README.rst", ".rst", "rst") to
// a Format. Unknown extensions are treated as plain text.
func Detect(hint string) Format {
	hint = strings.ToLower(strings.TrimSpace(hint))
	ext := filepath.Ext(hint)
	if ext == "" {
		ext = "." + strings.TrimPrefix(hint, ".")
	}
	switch ext {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".adoc", ".asciidoc":
		return FormatAsciiDoc
	case ".rst":
		return FormatRST
	default:
		return FormatText
	}
}

// Normalize converts raw README content to text according to formatHint.
// Markdown is returned unchanged.
func Normalize(raw, formatHint string) string {
	switch Detect(formatHint) {
	case FormatAsciiDoc:
		return AsciiDocText(raw)
	case FormatRST:
		return RSTText(raw)
	default:
		return raw
	}
}
