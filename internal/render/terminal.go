package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/plantcare-ai/plantcare-bot/internal/format"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	OutputHuman = "human"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Write prints the analysis to w in the given output format.
func Write(w io.Writer, r *plantapi.AnalysisResult, output string) error {
	switch output {
	case OutputJSON:
		return writeJSON(w, r)
	case OutputYAML:
		return writeYAML(w, r)
	case OutputHuman, "":
		Terminal(w, r)
		return nil
	}
	return fmt.Errorf("unknown output format %q", output)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(out))
	return err
}

func (b ConfidenceBand) terminalColor() *color.Color {
	switch b {
	case ConfidenceHigh:
		return color.New(color.FgGreen)
	case ConfidenceMedium:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgHiBlack)
}

func (b HealthBand) terminalColor() *color.Color {
	switch b {
	case HealthSuccess:
		return color.New(color.FgGreen, color.Bold)
	case HealthGood:
		return color.New(color.FgGreen)
	case HealthWarning:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgRed, color.Bold)
}

// Terminal prints the analysis as colored text.
func Terminal(w io.Writer, r *plantapi.AnalysisResult) {
	v := Project(r)

	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	bold := color.New(color.Bold)

	fmt.Fprintln(w)
	green.Fprintln(w, title)
	fmt.Fprintln(w)

	if v.Species != "" {
		bold.Fprintf(w, "%s: ", labelSpecies)
		fmt.Fprintln(w, color.GreenString(v.Species))
	}
	if len(v.CommonNames) > 0 {
		bold.Fprintf(w, "%s: ", labelCommonNames)
		fmt.Fprintln(w, strings.Join(v.CommonNames, ", "))
	}
	if c := v.Confidence; c != nil {
		bold.Fprintf(w, "%s: ", labelConfidence)
		c.Band.terminalColor().Fprintf(w, "%d%%\n", c.Percent)
	}
	if h := v.Health; h != nil {
		bold.Fprintf(w, "%s: ", labelHealth)
		text := fmt.Sprintf("%s %s/10", h.Emoji, h.ScoreText())
		if h.Status != "" {
			text += " - " + h.Status
		}
		h.Band.terminalColor().Fprintln(w, text)
	}
	if v.VisualHealth != "" {
		bold.Fprintf(w, "%s: ", labelVisualHealth)
		fmt.Fprintln(w, v.VisualHealth)
	}

	if v.Summary != "" {
		fmt.Fprintln(w)
		cyan.Fprintln(w, headingDiagnosis)
		fmt.Fprintf(w, "   %s\n", v.Summary)
	}
	if len(v.Problems) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintln(w, headingProblems)
		for _, p := range v.Problems {
			fmt.Fprintf(w, "   • %s\n", p)
		}
	}
	if len(v.Issues) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintln(w, headingIssues)
		for _, p := range v.Issues {
			fmt.Fprintf(w, "   • %s\n", p)
		}
	}
	if len(v.Recommendations) > 0 {
		fmt.Fprintln(w)
		green.Fprintln(w, headingRecommendations)
		for i, rec := range v.Recommendations {
			fmt.Fprintf(w, "   %d. %s\n", i+1, rec)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Usa -o json o -o yaml para una salida legible por máquinas"))
}

// Reply prints an assistant chat reply as plain text with list markers.
func Reply(w io.Writer, text string) {
	doc := format.Parse(text)
	if doc.Empty() {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, format.Plain(doc))
}
