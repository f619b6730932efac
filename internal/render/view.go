// Package render turns an analysis result into something a front-end can
// show: styled HTML for the web UI, Telegram HTML for the bot and colored
// text for the terminal.
package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
)

// ConfidenceBand classifies identification confidence.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// HealthBand classifies the 0..10 health score.
type HealthBand string

const (
	HealthSuccess HealthBand = "success"
	HealthGood    HealthBand = "good"
	HealthWarning HealthBand = "warning"
	HealthDanger  HealthBand = "danger"
)

type Confidence struct {
	Percent int
	Band    ConfidenceBand
}

type Health struct {
	Score  float64
	Emoji  string
	Band   HealthBand
	Status string
}

// ScoreText formats the score without trailing zeros, e.g. "7" or "6.5".
func (h Health) ScoreText() string {
	return strconv.FormatFloat(h.Score, 'f', -1, 64)
}

// View is the read-only projection of an AnalysisResult. Optional parts are
// nil or empty when the backend did not provide them.
type View struct {
	Species         string
	CommonNames     []string
	Confidence      *Confidence
	Health          *Health
	VisualHealth    string
	Summary         string
	Problems        []string
	Issues          []string
	Recommendations []string
}

// Project builds the View of a result. A nil result yields an empty View.
func Project(r *plantapi.AnalysisResult) View {
	if r == nil {
		return View{}
	}
	v := View{
		Species:         strings.TrimSpace(r.PlantInfo.Species),
		VisualHealth:    strings.TrimSpace(r.HealthAssessment.VisualHealth),
		Summary:         strings.TrimSpace(r.Diagnosis.Summary),
		Problems:        nonEmpty(r.Diagnosis.VisualProblems),
		Recommendations: nonEmpty(r.Recommendations),
	}
	// Common names and confidence describe an identification, so they are
	// only shown next to a species. A zero confidence means the backend could
	// not identify the plant.
	if v.Species != "" {
		v.CommonNames = nonEmpty(r.PlantInfo.CommonNames)
		if c := r.PlantInfo.Confidence; c != nil && *c > 0 {
			v.Confidence = ConfidenceOf(*c)
		}
	}
	if s := r.HealthAssessment.Score; s != nil {
		v.Health = HealthOf(*s, r.HealthAssessment.Status)
	}
	for _, issue := range r.Diagnosis.IdentifiedIssues {
		if issue.Type == "" {
			continue
		}
		v.Issues = append(v.Issues, IssueText(issue))
	}
	return v
}

// ConfidenceOf converts a 0..1 confidence into a rounded percentage and band.
func ConfidenceOf(c float64) *Confidence {
	pct := int(math.Round(c * 100))
	band := ConfidenceLow
	switch {
	case pct >= 70:
		band = ConfidenceHigh
	case pct >= 40:
		band = ConfidenceMedium
	}
	return &Confidence{Percent: pct, Band: band}
}

// HealthOf bands a health score: >=8 success, >=6 good, >=4 warning, else
// danger.
func HealthOf(score float64, status string) *Health {
	h := &Health{Score: score, Status: strings.TrimSpace(status)}
	switch {
	case score >= 8:
		h.Band, h.Emoji = HealthSuccess, "😃"
	case score >= 6:
		h.Band, h.Emoji = HealthGood, "🙂"
	case score >= 4:
		h.Band, h.Emoji = HealthWarning, "😐"
	default:
		h.Band, h.Emoji = HealthDanger, "😞"
	}
	return h
}

// IssueText describes an identified issue, e.g. "exceso riego (severidad 6)".
func IssueText(issue plantapi.Issue) string {
	name := strings.ReplaceAll(issue.Type, "_", " ")
	if issue.Severity <= 0 {
		return name
	}
	return name + " (severidad " + strconv.FormatFloat(issue.Severity, 'f', -1, 64) + ")"
}

// Summary is a short plain-text description of the result. It stands in
// for the analysis in conversation history.
func Summary(r *plantapi.AnalysisResult) string {
	v := Project(r)
	var parts []string
	if v.Species != "" {
		parts = append(parts, labelSpecies+": "+v.Species)
	}
	if v.Health != nil {
		s := labelHealth + ": " + v.Health.ScoreText() + "/10"
		if v.Health.Status != "" {
			s += " - " + v.Health.Status
		}
		parts = append(parts, s)
	}
	if v.Summary != "" {
		parts = append(parts, v.Summary)
	}
	if len(v.Recommendations) > 0 {
		parts = append(parts, labelRecommendations+": "+strings.Join(v.Recommendations, "; "))
	}
	if len(parts) == 0 {
		return title
	}
	return strings.Join(parts, ". ")
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const (
	title                  = "🌿 Análisis de tu Planta"
	labelSpecies           = "Especie identificada"
	labelCommonNames       = "Nombres comunes"
	labelConfidence        = "Confianza"
	labelHealth            = "Estado de salud"
	labelVisualHealth      = "Aspecto visual"
	headingDiagnosis       = "🔍 Diagnóstico"
	headingProblems        = "⚠️ Problemas detectados"
	headingIssues          = "🩺 Problemas identificados"
	labelRecommendations   = "Recomendaciones"
	headingRecommendations = "💡 " + labelRecommendations
)
