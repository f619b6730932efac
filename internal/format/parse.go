package format

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	headingRe      = regexp.MustCompile(`#{1,6}[ \t]+`)
	bareHeadingRe  = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*$`)
	ellipsisRe     = regexp.MustCompile(`\.{3,}|…`)
	noiseLineRe    = regexp.MustCompile(`^[\d\p{P}\s]+$`)
	bulletItemRe   = regexp.MustCompile(`^[-•*]\s+`)
	numberedItemRe = regexp.MustCompile(`^\d+\.\s+`)
	strongRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emRe           = regexp.MustCompile(`\*(.*?)\*`)
)

// boilerplatePhrases are courtesy lead-ins the assistant tends to prefix
// answers with. Longer phrases come first so that they win over their
// prefixes.
var boilerplatePhrases = []string{
	"Basándome en la información disponible",
	"Según los documentos",
	"Según la información",
	"De acuerdo a",
	"Basándome en",
	"De acuerdo con",
	"Con base en",
	"Based on the available information",
	"According to the available information",
	"According to the documents",
	"According to the information",
}

var boilerplateRes = compileBoilerplate(boilerplatePhrases)

func compileBoilerplate(phrases []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		res = append(res, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)+`[: \t]*`))
	}
	return res
}

// ToHTML formats assistant text into a styled HTML fragment.
func ToHTML(text string) string {
	return HTML(Parse(text))
}

// Parse converts loosely structured assistant text into a Document.
//
// The input is cleaned first (heading markers, ellipses, boilerplate
// lead-ins and noise lines are removed), then read line by line into
// paragraphs and lists. A blank line or a switch between list and plain
// lines closes the open block.
func Parse(text string) Document {
	p := &parser{}
	for _, line := range cleanLines(text) {
		p.line(line)
	}
	p.flushParagraph()
	p.flushList()
	return p.doc
}

// cleanLines applies the text-level cleanup and returns the surviving lines,
// trimmed. Blank lines are kept because they separate blocks.
func cleanLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = bareHeadingRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	text = ellipsisRe.ReplaceAllString(text, "")
	for _, re := range boilerplateRes {
		text = re.ReplaceAllString(text, "")
	}

	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if isNoiseLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// isNoiseLine reports whether a trimmed line carries no content: only digits,
// bullets or punctuation, or a plain line of three characters or fewer.
func isNoiseLine(line string) bool {
	if line == "" {
		return false
	}
	if noiseLineRe.MatchString(line) {
		return true
	}
	if isListItem(line) {
		return false
	}
	return utf8.RuneCountInString(line) <= 3
}

func isListItem(line string) bool {
	return bulletItemRe.MatchString(line) || numberedItemRe.MatchString(line)
}

func stripListMarker(line string) string {
	line = bulletItemRe.ReplaceAllString(line, "")
	return numberedItemRe.ReplaceAllString(line, "")
}

type parser struct {
	doc       Document
	paragraph []string
	items     []string
	ordered   bool
}

func (p *parser) line(line string) {
	if line == "" {
		p.flushList()
		p.flushParagraph()
		return
	}

	if isListItem(line) {
		p.flushParagraph()
		if len(p.items) == 0 {
			p.ordered = numberedItemRe.MatchString(line)
		}
		p.items = append(p.items, stripListMarker(line))
		return
	}

	p.flushList()
	p.paragraph = append(p.paragraph, line)
}

func (p *parser) flushParagraph() {
	if len(p.paragraph) == 0 {
		return
	}
	p.doc.Blocks = append(p.doc.Blocks, Block{
		Kind: BlockParagraph,
		Runs: parseInline(strings.Join(p.paragraph, " ")),
	})
	p.paragraph = nil
}

func (p *parser) flushList() {
	if len(p.items) == 0 {
		return
	}
	items := make([][]Run, 0, len(p.items))
	for _, item := range p.items {
		items = append(items, parseInline(item))
	}
	p.doc.Blocks = append(p.doc.Blocks, Block{
		Kind:    BlockList,
		Items:   items,
		Ordered: p.ordered,
	})
	p.items = nil
	p.ordered = false
}

// parseInline splits text into runs. **x** spans are matched first and
// their markers dropped; *x* spans are then matched over what is left, so
// emphasis may enclose strong text and the other way round.
func parseInline(text string) []Run {
	var sb strings.Builder
	var strong []bool
	last := 0
	for _, m := range strongRe.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(text[last:m[0]])
		strong = appendFlags(strong, m[0]-last, false)
		sb.WriteString(text[m[2]:m[3]])
		strong = appendFlags(strong, m[3]-m[2], true)
		last = m[1]
	}
	sb.WriteString(text[last:])
	strong = appendFlags(strong, len(text)-last, false)

	s := sb.String()
	em := make([]bool, len(s))
	marker := make([]bool, len(s))
	for _, m := range emRe.FindAllStringSubmatchIndex(s, -1) {
		marker[m[0]], marker[m[1]-1] = true, true
		for i := m[2]; i < m[3]; i++ {
			em[i] = true
		}
	}

	// Flags only change at ASCII markers, so runs never split a rune.
	var runs []Run
	start := -1
	var cur Run
	for i := 0; i <= len(s); i++ {
		if i < len(s) && !marker[i] && start >= 0 && strong[i] == cur.Strong && em[i] == cur.Em {
			continue
		}
		if start >= 0 {
			cur.Text = s[start:i]
			runs = appendRun(runs, cur)
			start = -1
		}
		if i < len(s) && !marker[i] {
			start = i
			cur = Run{Strong: strong[i], Em: em[i]}
		}
	}
	return runs
}

func appendFlags(flags []bool, n int, v bool) []bool {
	for ; n > 0; n-- {
		flags = append(flags, v)
	}
	return flags
}

func appendRun(runs []Run, r Run) []Run {
	if r.Text == "" {
		return runs
	}
	return append(runs, r)
}
