package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/format"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
	"github.com/plantcare-ai/plantcare-bot/internal/storage"
)

const (
	adminID = int64(1)
	apiURL  = "http://localhost:8000"
)

type botApiMock struct {
	mock.Mock

	mu      sync.Mutex
	sent    []string
	deleted []int
	nextID  int
}

func newBotApiMock() *botApiMock {
	m := new(botApiMock)
	m.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
	return m
}

func (m *botApiMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg.Text)
	}
	m.mu.Unlock()
	return tgbotapi.Message{MessageID: id}, nil
}

func (m *botApiMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		m.mu.Lock()
		m.deleted = append(m.deleted, d.MessageID)
		m.mu.Unlock()
	}
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *botApiMock) GetFileDirectURL(fileID string) (string, error) {
	args := m.Called(fileID)
	return args.Get(0).(string), args.Error(1)
}

func (m *botApiMock) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func (m *botApiMock) lastSent() string {
	sent := m.sentTexts()
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1]
}

type fakeBackend struct {
	mu         sync.Mutex
	analysis   *plantapi.AnalysisResult
	reply      string
	err        error
	gotImage   plantapi.Image
	gotContext string
	gotMessage string
}

func (f *fakeBackend) AnalyzePlant(ctx context.Context, image plantapi.Image, contextText string) (*plantapi.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotImage, f.gotContext = image, contextText
	return f.analysis, f.err
}

func (f *fakeBackend) Chat(ctx context.Context, message string, history []plantapi.HistoryEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMessage = message
	return f.reply, f.err
}

type testBot struct {
	*Bot
	tg      *botApiMock
	api     *fakeBackend
	store   *storage.SQLiteStore
	caps    *capability.Registry
	fileURL string
}

func setup(t *testing.T) *testBot {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(jpegData)
	}))

	tg := newBotApiMock()
	api := &fakeBackend{}
	caps := capability.NewRegistry()
	b := NewBot(tg, store, api, caps, adminID, apiURL)

	t.Cleanup(func() {
		b.Shutdown()
		files.Close()
		store.Close()
	})

	return &testBot{Bot: b, tg: tg, api: api, store: store, caps: caps, fileURL: files.URL + "/photo.jpg"}
}

// send delivers an update and waits until every request it started has
// been answered.
func (tb *testBot) send(update tgbotapi.Update) {
	tb.handleUpdateSync(context.Background(), update)
	tb.requests.Wait()
}

func textUpdate(userId int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userId},
		Chat: &tgbotapi.Chat{ID: userId},
		Text: text,
	}}
}

func photoUpdate(userId int64, caption string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: userId},
		Chat:    &tgbotapi.Chat{ID: userId},
		Caption: caption,
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "large", Width: 800, Height: 800},
		},
	}}
}

func TestHandleUpdate_DropsUnknownUser(t *testing.T) {
	tb := setup(t)
	tb.send(textUpdate(99, "/start"))
	assert.Empty(t, tb.tg.sentTexts())
}

func TestHandleUpdate_AllowedUser(t *testing.T) {
	tb := setup(t)
	require.NoError(t, tb.store.AddAllowedUser(99, adminID))
	tb.send(textUpdate(99, "/start"))
	assert.Equal(t, []string{formatReplyText(MsgWelcome)}, tb.tg.sentTexts())
}

func TestStart_TextOnlyWhenImageAnalysisUnavailable(t *testing.T) {
	tb := setup(t)
	tb.caps.MarkImageAnalysisUnavailable()
	tb.send(textUpdate(adminID, "/start"))
	assert.Equal(t, formatReplyText(MsgWelcomeTextOnly), tb.tg.lastSent())
}

func TestChat_FormatsReply(t *testing.T) {
	tb := setup(t)
	tb.api.reply = "**Riega** poco\n\n- una vez por semana\n- con agua a temperatura ambiente"

	tb.send(textUpdate(adminID, "¿Cada cuánto riego mi cactus?"))

	sent := tb.tg.sentTexts()
	require.Len(t, sent, 2)
	assert.Equal(t, formatReplyText(MsgThinking), sent[0])
	assert.Equal(t, format.TelegramHTML(format.Parse(tb.api.reply)), sent[1])
	assert.Contains(t, sent[1], "<b>Riega</b>")
	assert.Equal(t, "¿Cada cuánto riego mi cactus?", tb.api.gotMessage)

	assert.Equal(t, []int{1}, tb.tg.deleted, "loading message is deleted")
	assert.Equal(t, session.StateShowingResults, tb.state.getUserSession(adminID).conv.State())
}

func TestChat_ErrorNamesBackendURL(t *testing.T) {
	tb := setup(t)
	tb.api.err = &plantapi.Error{Kind: plantapi.KindTransport, StatusCode: 500}

	tb.send(textUpdate(adminID, "hola"))

	assert.Equal(t, session.ErrorMessage(tb.api.err, session.RequestChat, apiURL), tb.tg.lastSent())
	assert.True(t, strings.HasSuffix(tb.tg.lastSent(), apiURL))
}

func TestPhoto_ThenAnalyze(t *testing.T) {
	tb := setup(t)
	tb.tg.On("GetFileDirectURL", "large").Return(tb.fileURL, nil)
	tb.api.analysis = &plantapi.AnalysisResult{
		PlantInfo:       plantapi.PlantInfo{Species: "Aloe vera"},
		Recommendations: []string{"Riega cada 2 semanas"},
	}

	tb.send(photoUpdate(adminID, ""))
	assert.Equal(t, formatReplyText(MsgImageReceived), tb.tg.lastSent())
	assert.Equal(t, session.StatePreviewing, tb.state.getUserSession(adminID).conv.State())

	tb.send(textUpdate(adminID, "/analizar"))

	assert.Equal(t, jpegData, tb.api.gotImage.Data)
	assert.Equal(t, "image/jpeg", tb.api.gotImage.MIMEType)
	assert.Equal(t, plantapi.DefaultAnalyzeContext, tb.api.gotContext)

	sent := tb.tg.sentTexts()
	assert.Contains(t, sent, formatReplyText(MsgAnalyzingImage))
	all := strings.Join(sent, "\n\n")
	assert.Contains(t, all, "Aloe vera")
	assert.Contains(t, all, "1. Riega cada 2 semanas")
	assert.Contains(t, render.TelegramHTML(tb.api.analysis), "Aloe vera")
}

func TestPhoto_CaptionSendsImmediately(t *testing.T) {
	tb := setup(t)
	tb.tg.On("GetFileDirectURL", "large").Return(tb.fileURL, nil)
	tb.api.analysis = &plantapi.AnalysisResult{PlantInfo: plantapi.PlantInfo{Species: "Ficus"}}

	tb.send(photoUpdate(adminID, "Tiene hojas amarillas"))

	assert.Equal(t, "Tiene hojas amarillas", tb.api.gotContext)
	assert.Contains(t, tb.tg.lastSent(), "Ficus")
}

func TestAnalyze_WithoutPendingImage(t *testing.T) {
	tb := setup(t)
	tb.send(textUpdate(adminID, "/analizar"))
	assert.Equal(t, formatReplyText(MsgNoPendingImage), tb.tg.lastSent())
}

func TestAnalyze_CapabilityUnavailableDowngrades(t *testing.T) {
	tb := setup(t)
	tb.tg.On("GetFileDirectURL", "large").Return(tb.fileURL, nil)
	tb.api.err = &plantapi.Error{Kind: plantapi.KindCapabilityUnavailable, StatusCode: 503}

	tb.send(photoUpdate(adminID, "mira"))

	assert.Equal(t, session.MsgImageUnavailable, tb.tg.lastSent())
	assert.False(t, tb.caps.ImageAnalysisAvailable())

	// Later photos are not downloaded.
	tb.send(photoUpdate(adminID, ""))
	assert.Equal(t, session.MsgImageUnavailable, tb.tg.lastSent())
	tb.tg.AssertNumberOfCalls(t, "GetFileDirectURL", 1)
}

func TestRemovePhoto(t *testing.T) {
	tb := setup(t)
	tb.tg.On("GetFileDirectURL", "large").Return(tb.fileURL, nil)

	tb.send(photoUpdate(adminID, ""))
	tb.send(textUpdate(adminID, "/quitarfoto"))
	assert.Equal(t, formatReplyText(MsgImageRemoved), tb.tg.lastSent())

	tb.send(textUpdate(adminID, "/quitarfoto"))
	assert.Equal(t, formatReplyText(MsgNoPendingImage), tb.tg.lastSent())
}

func TestSupersededResponseOnlyCleansUp(t *testing.T) {
	tb := setup(t)
	s := tb.state.getUserSession(adminID)

	first, err := s.conv.BeginSend("uno")
	require.NoError(t, err)
	s.trackRequest(first.Token, inFlight{loadingMsgID: 41})
	s.conv.Reset()

	out := session.Outcome{Token: first.Token, Kind: first.Kind, Reply: "tarde"}
	s.SendSync(SessionMessage{Type: "request_done", Outcome: &out})

	assert.Empty(t, tb.tg.sentTexts())
	assert.Equal(t, []int{41}, tb.tg.deleted)
	assert.Equal(t, 0, s.PendingRequests())
}

func TestCategoryCommandAndCallback(t *testing.T) {
	tb := setup(t)

	tb.send(textUpdate(adminID, "/categoria suculentas"))
	assert.Contains(t, tb.tg.lastSent(), "Suculentas")
	stored, err := tb.store.GetCategory(adminID)
	require.NoError(t, err)
	assert.Equal(t, "Succulents", stored)

	tb.send(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: adminID},
		Data: "cat:Bonsai",
	}})
	stored, err = tb.store.GetCategory(adminID)
	require.NoError(t, err)
	assert.Equal(t, "Bonsai", stored)

	tb.send(textUpdate(adminID, "/consejos"))
	assert.Contains(t, tb.tg.lastSent(), "Bonsái")

	tb.send(textUpdate(adminID, "/categoria helechos"))
	assert.Equal(t, session.MsgUnknownCategory, tb.tg.lastSent())
}

func TestCategoryRestoredFromStore(t *testing.T) {
	tb := setup(t)
	require.NoError(t, tb.store.SetCategory(adminID, "Pests"))
	assert.Equal(t, "Pests", tb.state.getUserSession(adminID).conv.Category())
}

func TestAdminUsers(t *testing.T) {
	tb := setup(t)

	tb.send(textUpdate(adminID, "/admin users add 5"))
	assert.Equal(t, formatReplyText(MsgAdminUserAdded, 5), tb.tg.lastSent())
	allowed, err := tb.store.IsUserAllowed(5)
	require.NoError(t, err)
	assert.True(t, allowed)

	tb.send(textUpdate(adminID, "/admin users list"))
	assert.Contains(t, tb.tg.lastSent(), "<code>5</code>")

	tb.send(textUpdate(adminID, "/admin users add cinco"))
	assert.Equal(t, formatReplyText(MsgAdminUserInvalidID), tb.tg.lastSent())

	// Allowed users cannot manage the allow-list.
	before := len(tb.tg.sentTexts())
	tb.send(textUpdate(5, "/admin users remove 5"))
	assert.Len(t, tb.tg.sentTexts(), before)
	allowed, err = tb.store.IsUserAllowed(5)
	require.NoError(t, err)
	assert.True(t, allowed)

	tb.send(textUpdate(adminID, "/admin users remove 5"))
	allowed, err = tb.store.IsUserAllowed(5)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestStatus(t *testing.T) {
	tb := setup(t)
	tb.send(textUpdate(adminID, "/estado"))
	status := tb.tg.lastSent()
	assert.Contains(t, status, apiURL)
	assert.Contains(t, status, MsgStatusNeverPolled)
}
