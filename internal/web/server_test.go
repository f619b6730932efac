package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

const apiURL = "http://plantcare.test:8000"

var jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00 fake jpeg body")

type fakeBackend struct {
	mu         sync.Mutex
	analysis   *plantapi.AnalysisResult
	reply      string
	err        error
	gotContext string
	gotMessage string
}

func (f *fakeBackend) AnalyzePlant(ctx context.Context, image plantapi.Image, contextText string) (*plantapi.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotContext = contextText
	return f.analysis, f.err
}

func (f *fakeBackend) Chat(ctx context.Context, message string, history []plantapi.HistoryEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMessage = message
	return f.reply, f.err
}

type testServer struct {
	t      *testing.T
	url    string
	client *http.Client
	api    *fakeBackend
	caps   *capability.Registry
	srv    *Server
}

func setup(t *testing.T) *testServer {
	t.Helper()

	api := &fakeBackend{}
	caps := capability.NewRegistry()
	srv := NewServer(api, caps, apiURL, time.Hour)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{t: t, url: ts.URL, client: &http.Client{Jar: jar}, api: api, caps: caps, srv: srv}
}

func (ts *testServer) readBody(res *http.Response) string {
	ts.t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(ts.t, err)
	require.Equal(ts.t, http.StatusOK, res.StatusCode)
	return string(body)
}

func (ts *testServer) get(path string) string {
	ts.t.Helper()
	res, err := ts.client.Get(ts.url + path)
	require.NoError(ts.t, err)
	return ts.readBody(res)
}

// post submits a form and returns the page it redirects to.
func (ts *testServer) post(path string, form url.Values) string {
	ts.t.Helper()
	res, err := ts.client.PostForm(ts.url+path, form)
	require.NoError(ts.t, err)
	return ts.readBody(res)
}

func (ts *testServer) upload(fileName string, data []byte) string {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", fileName)
	require.NoError(ts.t, err)
	_, err = part.Write(data)
	require.NoError(ts.t, err)
	require.NoError(ts.t, mw.Close())

	res, err := ts.client.Post(ts.url+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(ts.t, err)
	return ts.readBody(res)
}

func TestIndex_NewVisitor(t *testing.T) {
	ts := setup(t)

	body := ts.get("/")
	assert.Contains(t, body, `data-state="idle"`)
	assert.Contains(t, body, `action="/upload"`)
	assert.Contains(t, body, "Consejos: General")

	u, _ := url.Parse(ts.url)
	cookies := ts.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Equal(t, 1, ts.srv.sessions.len())

	ts.get("/")
	assert.Equal(t, 1, ts.srv.sessions.len(), "cookie is reused")
}

func TestUploadAndAnalyze(t *testing.T) {
	ts := setup(t)
	confidence := 0.91
	ts.api.analysis = &plantapi.AnalysisResult{
		PlantInfo:       plantapi.PlantInfo{Species: "Monstera deliciosa", Confidence: &confidence},
		Recommendations: []string{"Riega cada 10 días"},
	}

	body := ts.upload("monstera.jpg", jpegData)
	assert.Contains(t, body, `data-state="previewing"`)
	assert.Contains(t, body, "data:image/jpeg;base64,")
	assert.Contains(t, body, `action="/remove"`)

	body = ts.post("/send", url.Values{"message": {"hojas amarillas"}})
	assert.Contains(t, body, `data-state="showing_results"`)
	assert.Contains(t, body, "Monstera deliciosa")
	assert.Contains(t, body, "91%")
	assert.Contains(t, body, "Riega cada 10 días")
	assert.Equal(t, "hojas amarillas", ts.api.gotContext)

	body = ts.post("/back", nil)
	assert.Contains(t, body, `data-state="idle"`)
}

func TestUpload_DefaultContext(t *testing.T) {
	ts := setup(t)
	ts.api.analysis = &plantapi.AnalysisResult{}

	ts.upload("planta.jpg", jpegData)
	ts.post("/send", nil)
	assert.Equal(t, plantapi.DefaultAnalyzeContext, ts.api.gotContext)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	ts := setup(t)

	body := ts.upload("notas.txt", []byte("esto no es una foto"))
	assert.Contains(t, body, session.MsgInvalidImage)
	assert.Contains(t, body, `data-state="idle"`)

	// The error is shown once.
	body = ts.get("/")
	assert.NotContains(t, body, session.MsgInvalidImage)
}

func TestRemoveImage(t *testing.T) {
	ts := setup(t)

	ts.upload("planta.jpg", jpegData)
	body := ts.post("/remove", nil)
	assert.Contains(t, body, `data-state="idle"`)
	assert.NotContains(t, body, "data:image/jpeg")
}

func TestSend_EmptyIsRejected(t *testing.T) {
	ts := setup(t)

	body := ts.post("/send", url.Values{"message": {"   "}})
	assert.Contains(t, body, session.MsgEmptySend)
	assert.Empty(t, ts.api.gotMessage)
}

func TestChat_FormatsAndEscapes(t *testing.T) {
	ts := setup(t)
	ts.api.reply = "**Riega** poco <b>siempre</b>"

	body := ts.post("/send", url.Values{"message": {"¿Cada cuánto riego? <script>"}})
	assert.Equal(t, "¿Cada cuánto riego? <script>", ts.api.gotMessage)
	assert.Contains(t, body, "Riega</strong>")
	assert.Contains(t, body, "&lt;b&gt;siempre&lt;/b&gt;")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `data-state="showing_results"`)
}

func TestSend_TransportErrorNamesBackend(t *testing.T) {
	ts := setup(t)
	ts.api.err = errors.New("connection refused")

	body := ts.post("/send", url.Values{"message": {"hola"}})
	assert.Contains(t, body, apiURL)
	assert.Contains(t, body, `data-state="idle"`)
}

func TestAnalyze_CapabilityUnavailableDisablesUpload(t *testing.T) {
	ts := setup(t)
	ts.api.err = &plantapi.Error{Kind: plantapi.KindCapabilityUnavailable, StatusCode: http.StatusServiceUnavailable}

	ts.upload("planta.jpg", jpegData)
	body := ts.post("/send", nil)

	assert.Contains(t, body, session.MsgImageUnavailable)
	assert.NotContains(t, body, `action="/upload"`)
	assert.False(t, ts.caps.ImageAnalysisAvailable())

	// Later uploads are inert.
	body = ts.upload("otra.jpg", jpegData)
	assert.Contains(t, body, session.MsgImageUnavailable)
	assert.Contains(t, body, `data-state="idle"`)
	assert.NotContains(t, body, `action="/remove"`)
}

func TestCategory(t *testing.T) {
	ts := setup(t)

	body := ts.post("/category", url.Values{"category": {"Succulents"}})
	assert.Contains(t, body, "Consejos: Suculentas")
	assert.Contains(t, body, `<option value="Succulents" selected>`)

	body = ts.post("/category", url.Values{"category": {"Cactus gigantes"}})
	assert.Contains(t, body, session.MsgUnknownCategory)
	assert.Contains(t, body, "Consejos: Suculentas")
}

func TestReset_KeepsCategory(t *testing.T) {
	ts := setup(t)
	ts.api.reply = "Respuesta"

	ts.post("/category", url.Values{"category": {"Bonsai"}})
	ts.post("/send", url.Values{"message": {"hola"}})
	body := ts.post("/reset", nil)

	assert.NotContains(t, body, "Respuesta")
	assert.Contains(t, body, `data-state="idle"`)
	assert.Contains(t, body, "Consejos: Bonsái")
}

func TestHealthz(t *testing.T) {
	ts := setup(t)
	ts.caps.MarkImageAnalysisUnavailable()

	res, err := http.Get(ts.url + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, false, got["image_analysis_available"])
	assert.Equal(t, true, got["chat_available"])
}

func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := newSessionStore(nil, 30*time.Minute)
	st.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	first := st.get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]

	withCookie := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(cookie)
		return r
	}

	now = now.Add(20 * time.Minute)
	assert.Same(t, first, st.get(httptest.NewRecorder(), withCookie()))

	now = now.Add(40 * time.Minute)
	assert.Equal(t, 1, st.prune())
	assert.Equal(t, 0, st.len())

	assert.NotSame(t, first, st.get(httptest.NewRecorder(), withCookie()))
}

func TestSessionStore_IgnoresForgedCookie(t *testing.T) {
	st := newSessionStore(nil, time.Minute)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	st.get(rec, r)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "not-a-uuid", cookies[0].Value)
}

func TestNewServer_DefaultsSessionTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		srv := NewServer(&fakeBackend{}, nil, "", ttl)
		assert.Equal(t, DefaultSessionTTL, srv.sessions.ttl)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			srv.sessions.runJanitor(ctx)
			close(done)
		}()
		cancel()
		<-done
	}
}
