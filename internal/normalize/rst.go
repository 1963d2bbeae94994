package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type rstKind int

const (
	rstDocument rstKind = iota
	rstSection
	rstParagraph
	rstLiteral
	rstList
	rstItem
	rstBlockQuote
	rstDirective
	rstText
)

// rstNode is one element of a parsed reStructuredText document. Only
// rstText nodes carry text; every other kind is structure.
type rstNode struct {
	kind     rstKind
	text     string
	children []*rstNode
}

func textNode(s string) *rstNode { return &rstNode{kind: rstText, text: s} }

// RSTText parses content and concatenates its text nodes in document order,
// one per line.
func RSTText(content string) string {
	doc := parseRST(content)
	var out []string
	doc.collect(&out)
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (n *rstNode) collect(out *[]string) {
	if n.kind == rstText {
		if t := strings.TrimSpace(n.text); t != "" {
			*out = append(*out, t)
		}
		return
	}
	for _, c := range n.children {
		c.collect(out)
	}
}

func parseRST(content string) *rstNode {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\t", "        ")
	return &rstNode{kind: rstDocument, children: parseBlocks(strings.Split(content, "\n"))}
}

var (
	bulletRe      = regexp.MustCompile(`^([-*+•])( +|$)`)
	enumeratedRe  = regexp.MustCompile(`^(\d+|#|[a-zA-Z])[.)]( +|$)|^\((\d+|#|[a-zA-Z])\)( +|$)`)
	targetRe      = regexp.MustCompile(`^_[^:]*:`)
	substitutionR = regexp.MustCompile(`^\|[^|]+\|\s+[\w-]+::`)
	directiveRe   = regexp.MustCompile(`^([\w-]+)::\s*(.*)$`)
	optionRe      = regexp.MustCompile(`^:[\w-]+:`)
)

func parseBlocks(lines []string) []*rstNode {
	var nodes []*rstNode
	appendItem := func(item *rstNode) {
		if n := len(nodes); n > 0 && nodes[n-1].kind == rstList {
			nodes[n-1].children = append(nodes[n-1].children, item)
			return
		}
		nodes = append(nodes, &rstNode{kind: rstList, children: []*rstNode{item}})
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case isAdornment(line) && i+2 < len(lines) && !isBlank(lines[i+1]) && isAdornment(lines[i+2]):
			// Overlined title.
			nodes = append(nodes, section(lines[i+1]))
			i += 3

		case !isIndented(line) && !isAdornment(line) && i+1 < len(lines) && isAdornment(lines[i+1]) &&
			utf8.RuneCountInString(strings.TrimSpace(lines[i+1])) >= utf8.RuneCountInString(trimmed):
			nodes = append(nodes, section(line))
			i += 2

		case isAdornment(line):
			// Transition.
			i++

		case strings.HasPrefix(line, "..") && (len(line) == 2 || line[2] == ' '):
			body, next := indentedBlock(lines, i+1)
			if n := explicitMarkup(strings.TrimSpace(line[2:]), body); n != nil {
				nodes = append(nodes, n)
			}
			i = next

		case isIndented(line):
			body, next := indentedBlock(lines, i)
			nodes = append(nodes, &rstNode{kind: rstBlockQuote, children: parseBlocks(body)})
			i = next

		case listMarkerLen(line) > 0:
			first := line[listMarkerLen(line):]
			body, next := indentedBlock(lines, i+1)
			appendItem(&rstNode{kind: rstItem, children: parseBlocks(append([]string{first}, body...))})
			i = next

		default:
			start := i
			for i < len(lines) && !isBlank(lines[i]) && !isIndented(lines[i]) {
				i++
			}
			text := strings.Join(lines[start:i], "\n")
			if !strings.HasSuffix(strings.TrimSpace(text), "::") {
				nodes = append(nodes, paragraph(text))
				continue
			}
			// "Paragraph::" keeps one colon, a bare "::" vanishes.
			text = strings.TrimSuffix(strings.TrimRight(text, " "), "::")
			if strings.TrimSpace(text) != "" {
				if !strings.HasSuffix(text, " ") {
					text += ":"
				}
				nodes = append(nodes, paragraph(strings.TrimSpace(text)))
			}
			for i < len(lines) && isBlank(lines[i]) {
				i++
			}
			body, next := indentedBlock(lines, i)
			if len(body) > 0 {
				nodes = append(nodes, &rstNode{kind: rstLiteral, children: []*rstNode{textNode(strings.Join(body, "\n"))}})
			}
			i = next
		}
	}
	return nodes
}

func section(title string) *rstNode {
	return &rstNode{kind: rstSection, children: []*rstNode{textNode(stripInline(strings.TrimSpace(title)))}}
}

func paragraph(text string) *rstNode {
	return &rstNode{kind: rstParagraph, children: []*rstNode{textNode(stripInline(text))}}
}

// explicitMarkup handles ".. " constructs: directives contribute their
// content, while comments, hyperlink targets and substitution definitions
// contribute nothing.
func explicitMarkup(head string, body []string) *rstNode {
	if targetRe.MatchString(head) || substitutionR.MatchString(head) {
		return nil
	}
	m := directiveRe.FindStringSubmatch(head)
	if m == nil {
		return nil
	}
	name, args := strings.ToLower(m[1]), strings.TrimSpace(m[2])
	body = dropOptions(body)

	switch name {
	case "image", "include", "raw", "contents", "toctree", "meta", "sectnum", "highlight", "role", "default-role":
		return nil
	case "code", "code-block", "sourcecode", "parsed-literal":
		if len(body) == 0 {
			return nil
		}
		return &rstNode{kind: rstLiteral, children: []*rstNode{textNode(strings.Join(body, "\n"))}}
	case "figure":
		return &rstNode{kind: rstDirective, children: parseBlocks(body)}
	}

	n := &rstNode{kind: rstDirective}
	if args != "" {
		n.children = append(n.children, paragraph(args))
	}
	n.children = append(n.children, parseBlocks(body)...)
	return n
}

func dropOptions(body []string) []string {
	for len(body) > 0 && optionRe.MatchString(strings.TrimSpace(body[0])) {
		body = body[1:]
	}
	for len(body) > 0 && isBlank(body[0]) {
		body = body[1:]
	}
	return body
}

// indentedBlock collects the indented (or blank) lines starting at start and
// returns them dedented, plus the index of the first line after the block.
func indentedBlock(lines []string, start int) ([]string, int) {
	end := start
	for end < len(lines) && (isBlank(lines[end]) || isIndented(lines[end])) {
		end++
	}
	block := lines[start:end]
	for len(block) > 0 && isBlank(block[len(block)-1]) {
		block = block[:len(block)-1]
	}
	for len(block) > 0 && isBlank(block[0]) {
		block = block[1:]
	}

	indent := -1
	for _, l := range block {
		if isBlank(l) {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	out := make([]string, len(block))
	for j, l := range block {
		if len(l) >= indent && indent > 0 {
			out[j] = l[indent:]
		} else {
			out[j] = strings.TrimLeft(l, " ")
		}
	}
	return out, end
}

func listMarkerLen(line string) int {
	if loc := bulletRe.FindStringIndex(line); loc != nil {
		return loc[1]
	}
	if loc := enumeratedRe.FindStringIndex(line); loc != nil {
		return loc[1]
	}
	return 0
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && !isBlank(line)
}

// isAdornment reports whether line is a run of one repeated punctuation
// character, as used for section underlines and transitions.
func isAdornment(line string) bool {
	line = strings.TrimRight(line, " ")
	if utf8.RuneCountInString(line) < 3 || line[0] == ' ' {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsPunct(first) && !unicode.IsSymbol(first) {
		return false
	}
	for _, r := range line {
		if r != first {
			return false
		}
	}
	return true
}

var rstInline = []substitution{
	{regexp.MustCompile("`([^`<]*?)\\s*<[^>]*>`__?"), "$1"},
	{regexp.MustCompile(":[\\w-]+:`([^`]*)`"), "$1"},
	{regexp.MustCompile("``([^`]*)``"), "$1"},
	{regexp.MustCompile("`([^`]*)`__?"), "$1"},
	{regexp.MustCompile("`([^`]*)`"), "$1"},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{regexp.MustCompile(`\*([^*\s][^*]*)\*`), "$1"},
	{regexp.MustCompile(`\|[^|\s][^|]*\|_{0,2}`), ""},
	{regexp.MustCompile(`\b([A-Za-z0-9]+)__?([\s.,;:!?)]|$)`), "$1$2"},
}

func stripInline(s string) string {
	for _, sub := range rstInline {
		s = sub.re.ReplaceAllString(s, sub.repl)
	}
	return s
}
