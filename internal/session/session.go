// Package session holds the per-user conversation state shared by every
// front-end: pending image, chat history, care category and the view state
// machine that decides which responses may still update it.
package session

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/tips"
)

// State is the view state of a session.
type State int

const (
	StateIdle State = iota
	StatePreviewing
	StateSending
	StateShowingResults
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateSending:
		return "sending"
	case StateShowingResults:
		return "showing_results"
	}
	return "unknown"
}

// ErrImageAnalysisUnavailable is returned when an image is selected or sent
// while the backend cannot analyze images.
var ErrImageAnalysisUnavailable = errors.New("image analysis unavailable")

// SelectedImage is the single pending upload of a session.
type SelectedImage struct {
	Data     []byte
	MIMEType string
	FileName string
}

// DataURL encodes the image for inline previews.
func (i SelectedImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

func (i SelectedImage) apiImage() plantapi.Image {
	return plantapi.Image{Data: i.Data, MIMEType: i.MIMEType, FileName: i.FileName}
}

// ChatMessage is one entry of the conversation. Messages are never changed
// after they are appended.
type ChatMessage struct {
	Role    plantapi.Role
	Content string
	// Image is a data URL of the photo sent with a user message.
	Image string
	// Analysis is set on assistant messages that answer an image upload.
	// Content then holds a plain-text summary of it.
	Analysis *plantapi.AnalysisResult
}

// Capabilities is the process-wide capability registry as seen by a session.
type Capabilities interface {
	ImageAnalysisAvailable() bool
	MarkImageAnalysisUnavailable()
}

// pendingInput is what the user had on screen before a send, restored when
// the request fails.
type pendingInput struct {
	state State
	image *SelectedImage
}

// Session is the explicit state of one user's conversation. All methods are
// safe for concurrent use; none of them performs IO.
type Session struct {
	mu       sync.Mutex
	caps     Capabilities
	state    State
	history  []ChatMessage
	image    *SelectedImage
	category string
	token    uint64
	prev     pendingInput
	// imageDisabled is set when the backend refused an analysis and stays
	// set until Reset.
	imageDisabled bool
}

// New creates an idle session. caps may be nil, in which case image
// analysis is assumed available until the backend refuses it.
func New(caps Capabilities) *Session {
	return &Session{caps: caps, category: tips.DefaultCategory}
}

func (s *Session) imageAvailable() bool {
	if s.imageDisabled {
		return false
	}
	return s.caps == nil || s.caps.ImageAnalysisAvailable()
}

// ImageAnalysisAvailable reports whether the image path is enabled.
func (s *Session) ImageAnalysisAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageAvailable()
}

// SelectImage makes img the pending image. Non-image files are rejected
// with a validation error; when image analysis is unavailable the call is
// inert and returns ErrImageAnalysisUnavailable.
func (s *Session) SelectImage(img SelectedImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(img.Data) == 0 || !strings.HasPrefix(img.MIMEType, "image/") {
		return plantapi.NewValidationError(MsgInvalidImage)
	}
	if !s.imageAvailable() {
		return ErrImageAnalysisUnavailable
	}

	s.image = &img
	if s.state != StateSending {
		s.state = StatePreviewing
	}
	return nil
}

// RemoveImage drops the pending image. It reports whether there was one.
func (s *Session) RemoveImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.image != nil
	s.image = nil
	if s.state == StatePreviewing {
		s.state = StateIdle
	}
	return had
}

// Back returns to the input view. A request still in flight is abandoned.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSending {
		s.token++
	}
	s.image = nil
	s.state = StateIdle
}

// SelectCategory records the care category and notes the choice in the
// conversation.
func (s *Session) SelectCategory(name string) (tips.Category, error) {
	c, ok := tips.Lookup(name)
	if !ok {
		return tips.Category{}, plantapi.NewValidationError(MsgUnknownCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = c.Key
	s.history = append(s.history, ChatMessage{
		Role:    plantapi.RoleUser,
		Content: CategorySelectedPrefix + c.Key,
	})
	return c, nil
}

// SetCategory restores a stored category without touching the history.
// Unknown names are ignored.
func (s *Session) SetCategory(name string) {
	c, ok := tips.Lookup(name)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = c.Key
}

func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginSend validates the input and moves the session to Sending. With a
// pending image it yields an analyze request whose context is text (or a
// default prompt); otherwise a chat request carrying recent history. The
// user message is appended to the history either way.
func (s *Session) BeginSend(text string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" && s.image == nil {
		return Request{}, plantapi.NewValidationError(MsgEmptySend)
	}

	var req Request
	if s.image != nil {
		if !s.imageAvailable() {
			s.image = nil
			if s.state == StatePreviewing {
				s.state = StateIdle
			}
			return Request{}, ErrImageAnalysisUnavailable
		}
		if text == "" {
			text = plantapi.DefaultAnalyzeContext
		}
		img := *s.image
		s.history = append(s.history, ChatMessage{
			Role:    plantapi.RoleUser,
			Content: text,
			Image:   img.DataURL(),
		})
		req = Request{Kind: RequestAnalyze, Text: text, Image: &img}
	} else {
		s.history = append(s.history, ChatMessage{Role: plantapi.RoleUser, Content: text})
		req = Request{Kind: RequestChat, Text: text, History: s.recentHistory()}
	}

	s.prev = pendingInput{state: s.state, image: s.image}
	if s.prev.state == StateSending {
		s.prev.state = StateIdle
	}
	s.image = nil
	s.state = StateSending
	s.token++
	req.Token = s.token
	return req, nil
}

func (s *Session) recentHistory() []plantapi.HistoryEntry {
	h := s.history
	if len(h) > plantapi.MaxHistory {
		h = h[len(h)-plantapi.MaxHistory:]
	}
	out := make([]plantapi.HistoryEntry, 0, len(h))
	for _, m := range h {
		out = append(out, plantapi.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out
}

// Apply folds the outcome of a request into the session. It returns false
// when the outcome belongs to a superseded request and was discarded.
func (s *Session) Apply(out Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.Token != s.token || s.state != StateSending {
		return false
	}

	if out.Err == nil {
		msg := ChatMessage{Role: plantapi.RoleAssistant, Content: out.Reply}
		if out.Analysis != nil {
			msg.Content = render.Summary(out.Analysis)
			msg.Analysis = out.Analysis
		}
		s.history = append(s.history, msg)
		s.state = StateShowingResults
		if s.image != nil {
			s.state = StatePreviewing
		}
		return true
	}

	if out.Kind == RequestAnalyze && plantapi.KindOf(out.Err) == plantapi.KindCapabilityUnavailable {
		s.imageDisabled = true
		if s.caps != nil {
			s.caps.MarkImageAnalysisUnavailable()
		}
		s.image = nil
		s.state = StateIdle
		return true
	}

	// Restore what the user had before sending, unless a new image was
	// picked while the request was in flight.
	if s.image == nil {
		s.image = s.prev.image
	}
	s.state = s.prev.state
	if s.image != nil {
		s.state = StatePreviewing
	}
	return true
}

// Reset starts a new conversation. Responses still in flight are discarded.
// The care category is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token++
	s.state = StateIdle
	s.history = nil
	s.image = nil
	s.prev = pendingInput{}
	s.imageDisabled = false
}

// Snapshot is a copy of the session for rendering.
type Snapshot struct {
	State                  State
	History                []ChatMessage
	Image                  *SelectedImage
	Category               string
	ImageAnalysisAvailable bool
}

// LastReply returns the most recent assistant message.
func (s Snapshot) LastReply() (ChatMessage, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == plantapi.RoleAssistant {
			return s.History[i], true
		}
	}
	return ChatMessage{}, false
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:                  s.state,
		History:                make([]ChatMessage, len(s.history)),
		Category:               s.category,
		ImageAnalysisAvailable: s.imageAvailable(),
	}
	copy(snap.History, s.history)
	if s.image != nil {
		img := *s.image
		snap.Image = &img
	}
	return snap
}
