package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
)

const (
	rowOpen     = `<p style="margin: 0.5rem 0;">`
	headingFmt  = `<h4 style="margin: 1rem 0 0.75rem 0; color: %s; font-size: %s;">%s</h4>`
	problemList = `<ul style="margin: 0.5rem 0; padding-left: 1.5rem; list-style-type: disc;">`
	problemItem = `<li style="margin: 0.5rem 0; line-height: 1.6;">`
	recList     = `<ol style="margin: 0.5rem 0; padding-left: 1.5rem; list-style-type: decimal;">`
	recItem     = `<li style="margin: 0.75rem 0; line-height: 1.7;">`
)

// Color returns the CSS color variable of a confidence band.
func (b ConfidenceBand) Color() string {
	switch b {
	case ConfidenceHigh:
		return "var(--success)"
	case ConfidenceMedium:
		return "var(--warning)"
	}
	return "var(--text-muted)"
}

// Color returns the CSS color variable of a health band.
func (b HealthBand) Color() string {
	switch b {
	case HealthSuccess:
		return "var(--success)"
	case HealthGood:
		return "var(--accent-green)"
	case HealthWarning:
		return "var(--warning)"
	}
	return "var(--danger)"
}

// HTML renders the analysis as a styled fragment for the web UI. All text
// coming from the backend is escaped.
func HTML(r *plantapi.AnalysisResult) string {
	v := Project(r)
	e := html.EscapeString

	var sb strings.Builder
	sb.WriteString(`<div style="line-height: 1.7;">`)
	fmt.Fprintf(&sb, headingFmt, "var(--primary-green)", "1.1rem", title)

	if v.Species != "" {
		fmt.Fprintf(&sb, `%s<strong>%s:</strong> <span style="color: var(--accent-green);">%s</span></p>`, rowOpen, labelSpecies, e(v.Species))
	}
	if len(v.CommonNames) > 0 {
		fmt.Fprintf(&sb, `%s<strong>%s:</strong> %s</p>`, rowOpen, labelCommonNames, e(strings.Join(v.CommonNames, ", ")))
	}
	if c := v.Confidence; c != nil {
		fmt.Fprintf(&sb, `%s<strong>%s:</strong> <span style="color: %s;">%d%%</span></p>`, rowOpen, labelConfidence, c.Band.Color(), c.Percent)
	}
	if h := v.Health; h != nil {
		fmt.Fprintf(&sb, `%s<strong>%s:</strong> <span style="color: %s;">%s %s/10`, rowOpen, labelHealth, h.Band.Color(), h.Emoji, h.ScoreText())
		if h.Status != "" {
			sb.WriteString(" - " + e(h.Status))
		}
		sb.WriteString("</span></p>")
	}
	if v.VisualHealth != "" {
		fmt.Fprintf(&sb, `%s<strong>%s:</strong> %s</p>`, rowOpen, labelVisualHealth, e(v.VisualHealth))
	}

	if v.Summary != "" {
		fmt.Fprintf(&sb, headingFmt, "var(--info)", "1rem", headingDiagnosis)
		fmt.Fprintf(&sb, `<p style="margin: 0.5rem 0; line-height: 1.6;">%s</p>`, e(v.Summary))
	}
	if len(v.Problems) > 0 {
		fmt.Fprintf(&sb, headingFmt, "var(--warning)", "1rem", headingProblems)
		writeList(&sb, problemList, problemItem, "</ul>", v.Problems)
	}
	if len(v.Issues) > 0 {
		fmt.Fprintf(&sb, headingFmt, "var(--warning)", "1rem", headingIssues)
		writeList(&sb, problemList, problemItem, "</ul>", v.Issues)
	}
	if len(v.Recommendations) > 0 {
		fmt.Fprintf(&sb, headingFmt, "var(--primary-green)", "1rem", headingRecommendations)
		writeList(&sb, recList, recItem, "</ol>", v.Recommendations)
	}

	sb.WriteString("</div>")
	return sb.String()
}

func writeList(sb *strings.Builder, open, item, close string, items []string) {
	sb.WriteString(open)
	for _, it := range items {
		sb.WriteString(item)
		sb.WriteString(html.EscapeString(it))
		sb.WriteString("</li>")
	}
	sb.WriteString(close)
}

// TelegramHTML renders the analysis using the Telegram HTML subset.
func TelegramHTML(r *plantapi.AnalysisResult) string {
	v := Project(r)
	e := html.EscapeString

	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("<b>%s</b>", title)
	add("")
	if v.Species != "" {
		add("<b>%s:</b> %s", labelSpecies, e(v.Species))
	}
	if len(v.CommonNames) > 0 {
		add("<b>%s:</b> %s", labelCommonNames, e(strings.Join(v.CommonNames, ", ")))
	}
	if c := v.Confidence; c != nil {
		add("<b>%s:</b> %d%%", labelConfidence, c.Percent)
	}
	if h := v.Health; h != nil {
		line := fmt.Sprintf("<b>%s:</b> %s %s/10", labelHealth, h.Emoji, h.ScoreText())
		if h.Status != "" {
			line += " - " + e(h.Status)
		}
		lines = append(lines, line)
	}
	if v.VisualHealth != "" {
		add("<b>%s:</b> %s", labelVisualHealth, e(v.VisualHealth))
	}

	section := func(heading string, items []string, ordered bool) {
		if len(items) == 0 {
			return
		}
		add("")
		add("<b>%s</b>", heading)
		for i, it := range items {
			if ordered {
				add("%d. %s", i+1, e(it))
			} else {
				add("• %s", e(it))
			}
		}
	}

	if v.Summary != "" {
		add("")
		add("<b>%s</b>", headingDiagnosis)
		add("%s", e(v.Summary))
	}
	section(headingProblems, v.Problems, false)
	section(headingIssues, v.Issues, false)
	section(headingRecommendations, v.Recommendations, true)

	return strings.Join(lines, "\n")
}
