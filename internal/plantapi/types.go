package plantapi

// PlantInfo identifies the photographed plant.
type PlantInfo struct {
	Species     string   `json:"species,omitempty" yaml:"species,omitempty"`
	CommonNames []string `json:"common_names,omitempty" yaml:"common_names,omitempty"`
	// Confidence is 0..1. Nil when the backend did not report one.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// HealthAssessment holds the 0..10 health score and its textual status.
type HealthAssessment struct {
	Score        *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Status       string   `json:"status,omitempty" yaml:"status,omitempty"`
	VisualHealth string   `json:"visual_health,omitempty" yaml:"visual_health,omitempty"`
}

// Issue is a problem the backend derived from the photo and the user's
// description, e.g. {"type": "exceso_riego", "severity": 6}.
type Issue struct {
	Type     string  `json:"type" yaml:"type"`
	Severity float64 `json:"severity" yaml:"severity"`
}

type Diagnosis struct {
	Summary          string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	VisualProblems   []string `json:"visual_problems,omitempty" yaml:"visual_problems,omitempty"`
	IdentifiedIssues []Issue  `json:"identified_issues,omitempty" yaml:"identified_issues,omitempty"`
}

// AnalysisResult is the body of a successful /api/analyze-plant call.
type AnalysisResult struct {
	PlantInfo        PlantInfo        `json:"plant_info" yaml:"plant_info"`
	HealthAssessment HealthAssessment `json:"health_assessment" yaml:"health_assessment"`
	Diagnosis        Diagnosis        `json:"diagnosis" yaml:"diagnosis"`
	Recommendations  []string         `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// Capabilities reports which backend features are currently usable.
type Capabilities struct {
	ImageAnalysisAvailable bool `json:"image_analysis_available" yaml:"image_analysis_available"`
	ChatAvailable          bool `json:"chat_available" yaml:"chat_available"`
	LLMAvailable           bool `json:"gemini_llm_available" yaml:"gemini_llm_available"`
}

// AllAvailable is assumed until the backend has been asked.
func AllAvailable() Capabilities {
	return Capabilities{ImageAnalysisAvailable: true, ChatAvailable: true, LLMAvailable: true}
}

// Role of a chat history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is one turn of conversation context sent with a chat request.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Health is the body of /api/health.
type Health struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// Image is a photo to be analyzed.
type Image struct {
	Data     []byte
	MIMEType string
	FileName string
}

type analyzeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	AnalysisResult
}

type chatRequest struct {
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
}
