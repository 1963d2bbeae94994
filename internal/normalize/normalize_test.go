package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		hint string
		want Format
	}{
		{"README.md", FormatMarkdown},
		{"readme.MARKDOWN", FormatMarkdown},
		{".adoc", FormatAsciiDoc},
		{"adoc", FormatAsciiDoc},
		{"README.asciidoc", FormatAsciiDoc},
		{"README.rst", FormatRST},
		{"README.txt", FormatText},
		{"README", FormatText},
		{"", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.hint))
		})
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	md := "# Title\n\nSome *markdown*."
	assert.Equal(t, md, Normalize(md, "README.md"))
	assert.Equal(t, "plain  text\n", Normalize("plain  text\n", "README.txt"))
	assert.Equal(t, "whatever", Normalize("whatever", "README.unknown"))
}

func TestAsciiDocText(t *testing.T) {
	in := strings.Join([]string{
		"= Project Title",
		"",
		"NOTE: This is a note.",
		"",
		"This is *bold* and _italic_ text.",
		"",
		"// a comment",
		"[source,go]",
		"----",
		"func main() {}",
		"----",
		"",
		"* first item",
		"* second item",
		"",
		"____",
		"quoted text",
		"____",
		"",
		"",
		"",
		"See link:docs/guide.adoc[the guide] and image::logo.png[Logo].",
	}, "\r\n")

	got := AsciiDocText(in)

	assert.Contains(t, got, "This is bold and italic text.")
	assert.Contains(t, got, "first item\nsecond item")
	assert.Contains(t, got, "See  and .")
	for _, gone := range []string{"Project Title", "NOTE", "a comment", "func main", "quoted text", "----", "guide", "logo.png", "\r"} {
		assert.NotContains(t, got, gone)
	}
	assert.NotContains(t, got, "\n\n\n")
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestAsciiDocText_Empty(t *testing.T) {
	assert.Equal(t, "", AsciiDocText(""))
	assert.Equal(t, "", AsciiDocText("// only a comment\n"))
}

const rstSample = `Project Title
=============

This is **bold** and *emphasis* with ` + "``code``" + ` and a ` + "`link <https://x>`_" + `.

.. image:: logo.png

.. note:: Remember this.

Usage::

    run --fast

- item one
- item two

.. This is a comment
   spanning lines.
`

func TestRSTText(t *testing.T) {
	want := strings.Join([]string{
		"Project Title",
		"This is bold and emphasis with code and a link.",
		"Remember this.",
		"Usage:",
		"run --fast",
		"item one",
		"item two",
	}, "\n")
	assert.Equal(t, want, RSTText(rstSample))
	assert.Equal(t, want, Normalize(rstSample, "README.rst"))
}

func TestRSTText_Structures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "overlined title and transition",
			in:   "=====\nTitle\n=====\n\nBefore.\n\n----------\n\nAfter.\n",
			want: "Title\nBefore.\nAfter.",
		},
		{
			name: "enumerated list with continuation",
			in:   "1. first\n   continued\n2. second\n",
			want: "first\ncontinued\nsecond",
		},
		{
			name: "bare double colon",
			in:   "::\n\n    literal only\n",
			want: "literal only",
		},
		{
			name: "space before double colon",
			in:   "Example ::\n\n    x = 1\n",
			want: "Example\nx = 1",
		},
		{
			name: "code block directive",
			in:   ".. code-block:: python\n   :linenos:\n\n   print('hi')\n",
			want: "print('hi')",
		},
		{
			name: "targets and substitutions",
			in:   ".. _docs: https://example.com\n.. |badge| image:: badge.svg\n\n|badge| See docs_ now.\n",
			want: "See docs now.",
		},
		{
			name: "block quote",
			in:   "Intro.\n\n    Quoted text.\n",
			want: "Intro.\nQuoted text.",
		},
		{
			name: "role",
			in:   "Call :func:`run` first.\n",
			want: "Call run first.",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RSTText(tt.in))
		})
	}
}

func TestPlainText(t *testing.T) {
	in := strings.Join([]string{
		"# Title",
		"",
		"![logo](logo.png) Some :note-caption: text with **bold**.",
		"",
		"<script>alert(1)</script>",
		"",
		"image:foo.png[] end",
	}, "\n")

	got := PlainText(in)

	assert.True(t, strings.HasPrefix(got, "Title Some text with bold"), got)
	for _, gone := range []string{"alert", ":note-caption:", "image:", "logo.png", "#", "**", "<"} {
		assert.NotContains(t, got, gone)
	}
	assert.NotContains(t, got, "  ")
	assert.True(t, strings.HasSuffix(got, "end"), got)
}

func TestPlainText_AsciiDocLeftovers(t *testing.T) {
	got := PlainText(":informationsource: Read the adoc[Learn More] docs.\n\n\n   Next   line.")
	assert.Equal(t, "Read the docs. Next line.", got)
}

func TestStripResidual(t *testing.T) {
	assert.Equal(t, " a  b", StripResidual(":note-caption: a image: b"))
	assert.Equal(t, "untouched", StripResidual("untouched"))
}
