package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/dedent"
)

// maxMessageLength is Telegram's limit for a text message.
const maxMessageLength = 4096

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// escapeHTML escapes text for parse_mode=HTML.
func escapeHTML(text string) string {
	return html.EscapeString(text)
}

// parseCommand splits "/cmd@botname a b" into "/cmd" and its arguments.
func parseCommand(s string) (string, []string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", nil
	}
	command, _, _ := strings.Cut(parts[0], "@")
	return strings.ToLower(command), parts[1:]
}

// splitMessage joins blocks into messages no longer than limit, breaking
// only between blocks. A single oversized block is cut with splitHTML.
func splitMessage(blocks []string, limit int) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, b := range blocks {
		if b == "" {
			continue
		}
		sep := 0
		if cur.Len() > 0 {
			sep = 2
		}
		if cur.Len()+sep+len(b) <= limit {
			if sep > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(b)
			continue
		}
		flush()
		parts := splitHTML(b, limit)
		out = append(out, parts[:len(parts)-1]...)
		cur.WriteString(parts[len(parts)-1])
	}
	flush()
	return out
}

// splitHTML cuts a Telegram HTML block into chunks of at most limit bytes.
// Cuts never fall inside a tag, an entity or a rune. Elements open at a cut
// are closed at the end of the chunk and reopened at the start of the next.
func splitHTML(b string, limit int) []string {
	var out []string
	var cur strings.Builder
	var open []string
	prefix := 0

	for len(b) > 0 {
		tok := htmlToken(b)
		b = b[len(tok):]
		next := applyTag(open, tok)

		if cur.Len() > prefix && cur.Len()+len(tok)+len(closeTags(next)) > limit {
			cur.WriteString(closeTags(open))
			out = append(out, cur.String())
			cur.Reset()
			cur.WriteString(strings.Join(open, ""))
			prefix = cur.Len()
		}
		cur.WriteString(tok)
		open = next
	}
	if cur.Len() > prefix || len(out) == 0 {
		out = append(out, cur.String())
	}
	return out
}

// htmlToken returns the tag, entity or rune at the start of s.
func htmlToken(s string) string {
	switch s[0] {
	case '<':
		if end := strings.IndexByte(s, '>'); end > 0 {
			return s[:end+1]
		}
	case '&':
		if end := strings.IndexByte(s, ';'); end > 0 && end <= maxEntityLength && !strings.ContainsAny(s[:end], " <&") {
			return s[:end+1]
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

const maxEntityLength = 10

// applyTag returns the stack of open tags after tok.
func applyTag(open []string, tok string) []string {
	if len(tok) < 3 || tok[0] != '<' || tok[len(tok)-1] != '>' {
		return open
	}
	if tok[1] == '/' {
		if len(open) > 0 {
			return open[:len(open)-1]
		}
		return open
	}
	next := make([]string, len(open), len(open)+1)
	copy(next, open)
	return append(next, tok)
}

func closeTags(open []string) string {
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		name, _, _ := strings.Cut(strings.Trim(open[i], "<>"), " ")
		sb.WriteString("</" + name + ">")
	}
	return sb.String()
}
