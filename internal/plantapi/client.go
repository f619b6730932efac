package plantapi

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "http://localhost:8000"

	// DefaultAnalyzeContext is sent as user_actions when the user attached
	// a photo without any text.
	DefaultAnalyzeContext = "Analiza esta planta"

	// MaxHistory is the number of most recent conversation entries sent as
	// context with a chat request.
	MaxHistory = 10
)

type ClientOpts struct {
	BaseURL string
}

// Client talks to the plant-care backend. Every call is a single attempt
// whose lifetime is governed by the context.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{baseURL: DefaultBaseURL}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
			log.Debug().
				Str("method", res.Request.Method).
				Str("url", res.Request.URL).
				Int("status", res.StatusCode()).
				Dur("took", res.Time()).
				Msg("backend request")
			return nil
		})

	return &c
}

// BaseURL returns the backend URL the client is configured with. It is
// shown to users when the backend cannot be reached.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		ForceContentType("application/json")

	if result != nil {
		request.SetResult(result)
	}

	return request
}

// AnalyzePlant uploads a photo together with the user's description of the
// plant's care. An empty contextText is sent as is.
func (c *Client) AnalyzePlant(ctx context.Context, image Image, contextText string) (*AnalysisResult, error) {
	if len(image.Data) == 0 {
		return nil, NewValidationError("empty image")
	}
	fileName := image.FileName
	if fileName == "" {
		fileName = "plant" + extensionFor(image.MIMEType)
	}

	result := &analyzeResponse{}
	res, err := handleError(c.req(ctx, result).
		SetMultipartField("image", fileName, image.MIMEType, bytes.NewReader(image.Data)).
		SetFormData(map[string]string{
			"user_actions": contextText,
		}).
		Post("/api/analyze-plant"))
	if err != nil {
		if res != nil {
			return nil, analyzeUnavailable(res.Body(), err)
		}
		return nil, err
	}

	// The backend may report unavailability in a 2xx body as well.
	if code, msg := parseErrorBody(res.Body()); code == imageAnalysisUnavailable {
		return nil, &Error{Kind: KindCapabilityUnavailable, StatusCode: res.StatusCode(), Message: msg}
	}
	if !result.Success {
		return nil, classifyFailure(result.Error)
	}

	analysis := result.AnalysisResult
	return &analysis, nil
}

// Chat sends a text question with the recent conversation as context.
// History is trimmed to the last MaxHistory entries.
func (c *Client) Chat(ctx context.Context, message string, history []HistoryEntry) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", NewValidationError("empty message")
	}

	result := &chatResponse{}
	_, err := handleError(c.req(ctx, result).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Message: message,
			History: RecentHistory(history, MaxHistory),
		}).
		Post("/api/chat"))
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", classifyFailure(result.Error)
	}

	return result.Response, nil
}

// Health calls /api/health. A non-nil error means the backend is not usable.
func (c *Client) Health(ctx context.Context) (Health, error) {
	result := &Health{}
	_, err := handleError(c.req(ctx, result).Get("/api/health"))
	return *result, err
}

// Capabilities fetches which backend features are currently available.
// Fields absent from the response default to available.
func (c *Client) Capabilities(ctx context.Context) (Capabilities, error) {
	result := AllAvailable()
	_, err := handleError(c.req(ctx, &result).Get("/api/capabilities"))
	if err != nil {
		return AllAvailable(), err
	}
	return result, nil
}

// RecentHistory returns at most n of the last entries of history. The
// result is never nil so that it encodes as an empty JSON array.
func RecentHistory(history []HistoryEntry, n int) []HistoryEntry {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]HistoryEntry, len(history))
	copy(out, history)
	return out
}

// handleError turns network failures and >399 responses into *Error.
// Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		if res != nil && res.IsError() {
			return res, classifyStatus(res.StatusCode(), res.Body())
		}
		return res, &Error{Kind: KindTransport, Err: err}
	}
	if res.IsError() {
		return res, classifyStatus(res.StatusCode(), res.Body())
	}

	return res, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
