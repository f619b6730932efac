package session

import (
	"context"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
)

type RequestKind int

const (
	RequestChat RequestKind = iota
	RequestAnalyze
)

func (k RequestKind) String() string {
	if k == RequestAnalyze {
		return "analyze"
	}
	return "chat"
}

// Request is a send that left the session. Token identifies it; only the
// outcome of the latest token may update the session.
type Request struct {
	Token uint64
	Kind  RequestKind
	// Text is the chat message, or the context sent with an image.
	Text    string
	Image   *SelectedImage
	History []plantapi.HistoryEntry
}

// Outcome is the result of executing a Request.
type Outcome struct {
	Token    uint64
	Kind     RequestKind
	Reply    string
	Analysis *plantapi.AnalysisResult
	Err      error
}

// Backend is the part of the API client a session needs.
type Backend interface {
	AnalyzePlant(ctx context.Context, image plantapi.Image, contextText string) (*plantapi.AnalysisResult, error)
	Chat(ctx context.Context, message string, history []plantapi.HistoryEntry) (string, error)
}

// Execute performs the request. It must be called without holding any
// session state so that slow responses never block the user.
func Execute(ctx context.Context, b Backend, req Request) Outcome {
	out := Outcome{Token: req.Token, Kind: req.Kind}
	switch req.Kind {
	case RequestAnalyze:
		if req.Image == nil {
			out.Err = plantapi.NewValidationError(MsgInvalidImage)
			return out
		}
		out.Analysis, out.Err = b.AnalyzePlant(ctx, req.Image.apiImage(), req.Text)
	default:
		out.Reply, out.Err = b.Chat(ctx, req.Text, req.History)
	}
	return out
}
