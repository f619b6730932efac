package format

import (
	"html"
	"strconv"
	"strings"
)

// Inline styles of the web fragment. They reference the page's CSS
// variables so the fragment follows the active theme.
const (
	paragraphOpen = `<p style="margin: 0.75rem 0; line-height: 1.7;">`
	listOpen      = `<ul style="margin: 0.75rem 0; padding-left: 1.5rem; list-style-type: disc;">`
	itemOpen      = `<li style="margin-bottom: 0.5rem; line-height: 1.6;">`
	strongOpen    = `<strong style="color: var(--text-primary); font-weight: 600;">`
)

// HTML serializes a document into a styled web fragment. Lists are always
// emitted as <ul>, numbered or not.
func HTML(doc Document) string {
	var sb strings.Builder
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockParagraph:
			sb.WriteString(paragraphOpen)
			writeRuns(&sb, b.Runs, htmlTags)
			sb.WriteString("</p>")
		case BlockList:
			sb.WriteString(listOpen)
			for _, item := range b.Items {
				sb.WriteString(itemOpen)
				writeRuns(&sb, item, htmlTags)
				sb.WriteString("</li>")
			}
			sb.WriteString("</ul>")
		}
	}
	return sb.String()
}

// TelegramHTML serializes a document using the HTML subset accepted by the
// Telegram Bot API (parse_mode=HTML). Blocks are separated by blank lines.
func TelegramHTML(doc Document) string {
	return strings.Join(TelegramBlocks(doc), "\n\n")
}

// TelegramBlocks serializes each block separately so that callers can split
// long replies on block boundaries without breaking tags.
func TelegramBlocks(doc Document) []string {
	blocks := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		var sb strings.Builder
		switch b.Kind {
		case BlockParagraph:
			writeRuns(&sb, b.Runs, telegramTags)
		case BlockList:
			for i, item := range b.Items {
				if i > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(listMarker(b.Ordered, i))
				writeRuns(&sb, item, telegramTags)
			}
		}
		blocks = append(blocks, sb.String())
	}
	return blocks
}

// Plain serializes a document as plain text without any markup.
func Plain(doc Document) string {
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockParagraph:
			parts = append(parts, PlainText(b.Runs))
		case BlockList:
			lines := make([]string, 0, len(b.Items))
			for i, item := range b.Items {
				lines = append(lines, listMarker(b.Ordered, i)+PlainText(item))
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

func listMarker(ordered bool, i int) string {
	if ordered {
		return strconv.Itoa(i+1) + ". "
	}
	return "• "
}

type tagSet struct {
	strongOpen, strongClose string
	emOpen, emClose         string
}

var (
	htmlTags     = tagSet{strongOpen, "</strong>", "<em>", "</em>"}
	telegramTags = tagSet{"<b>", "</b>", "<i>", "</i>"}
)

// writeRuns writes escaped run text. Elements stay open across runs that
// share the style and are closed innermost first, so the markup is always
// well nested.
func writeRuns(sb *strings.Builder, runs []Run, tags tagSet) {
	var open []bool // true for strong, false for em; outermost first
	closeTop := func() {
		if open[len(open)-1] {
			sb.WriteString(tags.strongClose)
		} else {
			sb.WriteString(tags.emClose)
		}
		open = open[:len(open)-1]
	}

	for _, r := range runs {
		wanted := func(strong bool) bool {
			if strong {
				return r.Strong
			}
			return r.Em
		}
		keep := 0
		for keep < len(open) && wanted(open[keep]) {
			keep++
		}
		for len(open) > keep {
			closeTop()
		}

		hasStrong, hasEm := false, false
		for _, strong := range open {
			if strong {
				hasStrong = true
			} else {
				hasEm = true
			}
		}
		if r.Strong && !hasStrong {
			sb.WriteString(tags.strongOpen)
			open = append(open, true)
		}
		if r.Em && !hasEm {
			sb.WriteString(tags.emOpen)
			open = append(open, false)
		}
		sb.WriteString(html.EscapeString(r.Text))
	}
	for len(open) > 0 {
		closeTop()
	}
}
