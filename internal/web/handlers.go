package web

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/format"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
	"github.com/plantcare-ai/plantcare-bot/internal/tips"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// redirectHome ends every form post so that reloading the page never
// resubmits it.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	st := s.caps.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                   "ok",
		"backend_reachable":        st.Reachable,
		"image_analysis_available": st.ImageAnalysisAvailable,
		"chat_available":           st.ChatAvailable,
		"sessions":                 s.sessions.len(),
	})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	data := s.buildPage(v.conv.Snapshot(), s.sessions.takeFlash(v))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("failed to render page")
	}
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	defer redirectHome(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		s.sessions.setFlash(v, session.MsgInvalidImage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.sessions.setFlash(v, session.MsgInvalidImage)
		return
	}

	img := session.SelectedImage{
		Data:     data,
		MIMEType: http.DetectContentType(data),
		FileName: header.Filename,
	}
	if err := v.conv.SelectImage(img); err != nil {
		s.sessions.setFlash(v, session.ErrorMessage(err, session.RequestAnalyze, s.baseURL))
		return
	}
	log.Debug().Str("file", header.Filename).Str("mimeType", img.MIMEType).Int("size", len(data)).Msg("web image selected")
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	v.conv.RemoveImage()
	redirectHome(w, r)
}

// send runs the request synchronously. A second tab of the same session
// that sends meanwhile supersedes it and this outcome is discarded.
func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	defer redirectHome(w, r)

	req, err := v.conv.BeginSend(r.FormValue("message"))
	if err != nil {
		s.sessions.setFlash(v, session.ErrorMessage(err, session.RequestChat, s.baseURL))
		return
	}

	out := session.Execute(r.Context(), s.api, req)
	if !v.conv.Apply(out) {
		log.Debug().Uint64("token", out.Token).Msg("discarded superseded web response")
		return
	}
	if out.Err != nil {
		log.Warn().Err(out.Err).Stringer("kind", out.Kind).Msg("web request failed")
		s.sessions.setFlash(v, session.ErrorMessage(out.Err, out.Kind, s.baseURL))
	}
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	v.conv.Back()
	redirectHome(w, r)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	v.conv.Reset()
	redirectHome(w, r)
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	v := s.sessions.get(w, r)
	if _, err := v.conv.SelectCategory(r.FormValue("category")); err != nil {
		s.sessions.setFlash(v, session.ErrorMessage(err, session.RequestChat, s.baseURL))
	}
	redirectHome(w, r)
}

type historyEntry struct {
	User  bool
	Image template.URL
	Body  template.HTML
}

type categoryOption struct {
	Key      string
	Label    string
	Emoji    string
	Selected bool
}

type page struct {
	State          string
	Error          string
	ImageAvailable bool
	Preview        template.URL
	PreviewName    string
	Result         template.HTML
	History        []historyEntry
	Categories     []categoryOption
	Category       tips.Category
	Status         statusView
}

type statusView struct {
	Reachable bool
	BaseURL   string
	Chat      bool
}

// buildPage prepares the template data. Backend text reaches the template
// only through render and format, which escape it.
func (s *Server) buildPage(snap session.Snapshot, flash string) page {
	st := s.caps.Status()
	p := page{
		State:          snap.State.String(),
		Error:          flash,
		ImageAvailable: snap.ImageAnalysisAvailable,
		Status:         statusView{Reachable: st.Reachable, BaseURL: s.baseURL, Chat: st.ChatAvailable},
	}

	if snap.Image != nil {
		p.Preview = template.URL(snap.Image.DataURL())
		p.PreviewName = snap.Image.FileName
	}

	if snap.State == session.StateShowingResults {
		if last, ok := snap.LastReply(); ok && last.Analysis != nil {
			p.Result = template.HTML(render.HTML(last.Analysis))
		}
	}

	for _, m := range snap.History {
		e := historyEntry{User: m.Role == plantapi.RoleUser, Image: template.URL(m.Image)}
		switch {
		case m.Analysis != nil:
			e.Body = template.HTML(render.HTML(m.Analysis))
		case m.Role == plantapi.RoleAssistant:
			e.Body = template.HTML(format.ToHTML(m.Content))
		default:
			e.Body = template.HTML(template.HTMLEscapeString(m.Content))
		}
		p.History = append(p.History, e)
	}

	c, ok := tips.Lookup(snap.Category)
	if !ok {
		c, _ = tips.Lookup(tips.DefaultCategory)
	}
	p.Category = c
	for _, o := range tips.Categories() {
		p.Categories = append(p.Categories, categoryOption{Key: o.Key, Label: o.Label, Emoji: o.Emoji, Selected: o.Key == c.Key})
	}
	return p
}
