package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/format"
	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
	"github.com/plantcare-ai/plantcare-bot/internal/storage"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Store is the persistence the bot needs: the allow-list and per-user
// settings.
type Store interface {
	IsUserAllowed(telegramID int64) (bool, error)
	AddAllowedUser(telegramID, addedBy int64) error
	RemoveAllowedUser(telegramID int64) error
	GetAllowedUsers() ([]storage.AllowedUser, error)
	SetCategory(telegramID int64, category string) error
	GetCategory(telegramID int64) (string, error)
}

// CapabilityRegistry is the shared view of what the backend can do.
type CapabilityRegistry interface {
	session.Capabilities
	Status() capability.Status
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg         BotAPI
	state      *BotState
	store      Store
	api        session.Backend
	caps       CapabilityRegistry
	adminID    int64
	baseURL    string
	downloader *ImageDownloader

	// requests counts backend calls whose outcome has not been processed.
	requests sync.WaitGroup
}

// NewBot creates a new Bot instance. baseURL is only used in error
// messages. A nil caps gets a registry that is never polled.
func NewBot(tg BotAPI, store Store, api session.Backend, caps CapabilityRegistry, adminID int64, baseURL string) *Bot {
	if caps == nil {
		caps = capability.NewRegistry()
	}
	b := &Bot{
		tg:         tg,
		store:      store,
		api:        api,
		caps:       caps,
		adminID:    adminID,
		baseURL:    baseURL,
		downloader: NewImageDownloader(),
	}
	b.state = b.NewBotState()
	return b
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// Shutdown waits for in-flight backend calls and stops all session workers.
func (b *Bot) Shutdown() {
	b.requests.Wait()
	b.state.Shutdown()
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	// Check if user is allowed (admin always allowed)
	// MUST be before getUserSession to prevent memory exhaustion from random user IDs
	if userId != b.adminID {
		if b.store == nil {
			return
		}
		allowed, err := b.store.IsUserAllowed(userId)
		if err != nil {
			log.Error().Err(err).Int64("userId", userId).Msg("whitelist check failed")
			return // Fail closed
		}
		if !allowed {
			return // Silent drop
		}
	}

	s := b.state.getUserSession(userId)

	send := func(msg SessionMessage) {
		if sync {
			s.SendSync(msg)
		} else {
			s.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{Type: "callback", Ctx: ctx, CallbackQuery: update.CallbackQuery})
		return
	}

	m := update.Message
	log.Info().Int64("userId", userId).Str("text", m.Text).Str("caption", m.Caption).Msg("got message")

	switch {
	case len(m.Photo) > 0:
		send(SessionMessage{Type: "photo", Ctx: ctx, Message: m})
	case m.Document != nil:
		send(SessionMessage{Type: "document", Ctx: ctx, Message: m})
	default:
		send(SessionMessage{Type: "text", Ctx: ctx, Message: m})
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
func (b *Bot) HandleSessionMessage(ctx context.Context, s *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, s, msg.CallbackQuery)
	case "photo":
		photo := msg.Message.Photo[len(msg.Message.Photo)-1] // largest size
		b.handleImage(ctx, s, photo.FileID, "foto.jpg", msg.Message.Caption)
	case "document":
		b.handleDocument(ctx, s, msg.Message)
	case "text":
		b.handleTextMessage(ctx, s, msg.Message)
	case "request_done":
		b.handleRequestDone(s, msg.Outcome)
	}
}

func (b *Bot) handleDocument(ctx context.Context, s *UserSession, message *tgbotapi.Message) {
	doc := message.Document
	if !strings.HasPrefix(doc.MimeType, "image/") {
		s.replyText(session.MsgInvalidImage + "\n\n" + MsgUnsupportedFile)
		return
	}
	b.handleImage(ctx, s, doc.FileID, doc.FileName, message.Caption)
}

// handleImage downloads a photo and makes it the pending image. A caption
// sends it right away with the caption as context.
func (b *Bot) handleImage(ctx context.Context, s *UserSession, fileID, fileName, caption string) {
	caption = strings.TrimSpace(caption)

	if !s.conv.ImageAnalysisAvailable() {
		s.replyText(session.MsgImageUnavailable)
		if caption != "" {
			b.startSend(ctx, s, caption)
		}
		return
	}

	data, mimeType, err := b.downloader.DownloadFromTelegramFileID(ctx, b.tg.GetFileDirectURL, fileID)
	if err != nil {
		log.Error().Err(err).Int64("userId", s.userId).Msg("failed to download photo")
		s.reply(MsgImageDownload)
		return
	}

	hadImage := s.conv.Snapshot().Image != nil
	err = s.conv.SelectImage(session.SelectedImage{Data: data, MIMEType: mimeType, FileName: fileName})
	if err != nil {
		s.replyText(session.ErrorMessage(err, session.RequestAnalyze, b.baseURL))
		return
	}
	log.Info().Int64("userId", s.userId).Int("bytes", len(data)).Str("mimeType", mimeType).Msg("image selected")

	if caption != "" {
		b.startSend(ctx, s, caption)
		return
	}
	if hadImage {
		s.reply(MsgImageReplaced)
	} else {
		s.reply(MsgImageReceived)
	}
}

func (b *Bot) handleTextMessage(ctx context.Context, s *UserSession, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, s, text)
		return
	}
	if text == "" {
		return
	}
	b.startSend(ctx, s, text)
}

// startSend hands the user's input to the conversation and runs the
// resulting backend call in the background. The outcome comes back to the
// worker as a request_done message.
func (b *Bot) startSend(ctx context.Context, s *UserSession, text string) {
	req, err := s.conv.BeginSend(text)
	if err != nil {
		// Only validation and capability errors happen here; their
		// messages do not depend on the request kind.
		s.replyText(session.ErrorMessage(err, session.RequestChat, b.baseURL))
		return
	}

	loading := MsgThinking
	if req.Kind == session.RequestAnalyze {
		loading = MsgAnalyzingImage
	}
	loadingMsg := s.reply(loading)

	typingCtx, stopTyping := context.WithCancel(ctx)
	go s.startTypingLoop(typingCtx)
	s.trackRequest(req.Token, inFlight{loadingMsgID: loadingMsg.MessageID, stopTyping: stopTyping})

	log.Info().
		Int64("userId", s.userId).
		Uint64("token", req.Token).
		Stringer("kind", req.Kind).
		Int("history", len(req.History)).
		Msg("sending request")

	b.requests.Add(1)
	go func() {
		defer b.requests.Done()
		out := session.Execute(ctx, b.api, req)
		s.SendSync(SessionMessage{Type: "request_done", Ctx: ctx, Outcome: &out})
	}()
}

// handleRequestDone applies a finished request. Outcomes of superseded
// requests only clean up their loading message.
func (b *Bot) handleRequestDone(s *UserSession, out *session.Outcome) {
	s.finishRequest(out.Token)

	if !s.conv.Apply(*out) {
		log.Info().Int64("userId", s.userId).Uint64("token", out.Token).Msg("discarded superseded response")
		return
	}

	if out.Err != nil {
		log.Warn().
			Err(out.Err).
			Int64("userId", s.userId).
			Uint64("token", out.Token).
			Stringer("kind", out.Kind).
			Msg("request failed")
		s.replyText(session.ErrorMessage(out.Err, out.Kind, b.baseURL))
		return
	}

	if out.Analysis != nil {
		s.replyHTML(strings.Split(render.TelegramHTML(out.Analysis), "\n\n")...)
		return
	}

	doc := format.Parse(out.Reply)
	if doc.Empty() {
		s.replyText(out.Reply)
		return
	}
	s.replyHTML(format.TelegramBlocks(doc)...)
}
