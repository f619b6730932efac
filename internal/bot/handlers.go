package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/session"
	"github.com/plantcare-ai/plantcare-bot/internal/tips"
	"github.com/plantcare-ai/plantcare-bot/internal/version"
)

const categoryCallbackPrefix = "cat:"

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, s *UserSession, text string) {
	command, args := parseCommand(text)
	argsStr := strings.Join(args, " ")

	switch command {
	case "/start", "/ayuda", "/help":
		if s.conv.ImageAnalysisAvailable() {
			s.reply(MsgWelcome)
		} else {
			s.reply(MsgWelcomeTextOnly)
		}
	case "/nueva":
		s.conv.Reset()
		log.Info().Int64("userId", s.userId).Msg("conversation reset")
		s.reply(MsgNewConversation)
	case "/analizar":
		if s.conv.Snapshot().Image == nil {
			s.reply(MsgNoPendingImage)
			return
		}
		b.startSend(ctx, s, argsStr)
	case "/quitarfoto":
		if s.conv.RemoveImage() {
			s.reply(MsgImageRemoved)
		} else {
			s.reply(MsgNoPendingImage)
		}
	case "/atras":
		s.conv.Back()
		s.reply(MsgBack)
	case "/categoria":
		if argsStr != "" {
			b.selectCategory(s, argsStr)
			return
		}
		b.showCategoryKeyboard(s)
	case "/consejos":
		b.showTips(s)
	case "/estado":
		b.showStatus(s)
	case "/admin":
		b.handleAdminCommand(s, argsStr)
	case "/version":
		s.reply(MsgVersionInfo, version.Version, version.BuildTime)
	default:
		s.reply(MsgWelcome)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, s *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	b.tg.Request(tgbotapi.NewCallback(query.ID, ""))

	if key, ok := strings.CutPrefix(query.Data, categoryCallbackPrefix); ok {
		// Remove the inline keyboard
		if query.Message != nil {
			edit := tgbotapi.NewEditMessageReplyMarkup(
				query.Message.Chat.ID,
				query.Message.MessageID,
				tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
			)
			b.tg.Request(edit)
		}
		b.selectCategory(s, key)
	}
}

func (b *Bot) showCategoryKeyboard(s *UserSession) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range tips.Categories() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Emoji+" "+c.Label, categoryCallbackPrefix+c.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	msg := tgbotapi.NewMessage(s.userId, MsgSelectCategory)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	s.replyWithMessage(msg)
}

func (b *Bot) selectCategory(s *UserSession, name string) {
	c, err := s.conv.SelectCategory(name)
	if err != nil {
		s.replyText(session.ErrorMessage(err, session.RequestChat, b.baseURL))
		return
	}

	if b.store != nil {
		if err := b.store.SetCategory(s.userId, c.Key); err != nil {
			log.Warn().Err(err).Int64("userId", s.userId).Msg("failed to store category")
		}
	}
	log.Info().Int64("userId", s.userId).Str("category", c.Key).Msg("category selected")
	s.reply(MsgCategorySelected, c.Emoji, escapeHTML(c.Label))
}

func (b *Bot) showTips(s *UserSession) {
	c, ok := tips.Lookup(s.conv.Category())
	if !ok {
		c, _ = tips.Lookup(tips.DefaultCategory)
	}

	blocks := []string{formatReplyText(MsgTipsHeader, c.Emoji, escapeHTML(c.Label))}
	for _, t := range c.Tips {
		blocks = append(blocks, fmt.Sprintf("%s <b>%s</b>\n%s", t.Emoji, escapeHTML(t.Title), escapeHTML(t.Description)))
	}
	s.replyHTML(strings.Join(blocks, "\n\n"))
}

func (b *Bot) showStatus(s *UserSession) {
	st := b.caps.Status()
	available := func(ok bool) string {
		if ok {
			return MsgAvailable
		}
		return MsgUnavailable
	}

	lines := []string{MsgStatusHeader, ""}
	if st.Reachable {
		lines = append(lines, fmt.Sprintf(MsgStatusReachable, escapeHTML(b.baseURL)))
	} else {
		lines = append(lines, fmt.Sprintf(MsgStatusUnreachable, escapeHTML(b.baseURL)))
	}
	lines = append(lines,
		fmt.Sprintf(MsgStatusImage, available(s.conv.ImageAnalysisAvailable())),
		fmt.Sprintf(MsgStatusChat, available(st.ChatAvailable)),
		fmt.Sprintf(MsgStatusLLM, available(st.LLMAvailable)),
	)
	if st.CheckedAt.IsZero() {
		lines = append(lines, MsgStatusNeverPolled)
	} else {
		lines = append(lines, fmt.Sprintf(MsgStatusCheckedAt, st.CheckedAt.Format(time.DateTime)))
	}
	s.replyHTML(strings.Join(lines, "\n"))
}

// handleAdminCommand handles /admin command with subcommands.
// Only the admin user can use this command (defense in depth check).
func (b *Bot) handleAdminCommand(s *UserSession, args string) {
	// Verify caller is admin even though whitelist check passed
	if s.userId != b.adminID || b.store == nil {
		return // Silent drop for non-admin users
	}

	parts := strings.Fields(args)
	if len(parts) < 2 || parts[0] != "users" {
		s.reply(MsgAdminUsage)
		return
	}
	b.handleAdminUsersCommand(s, parts[1], parts[2:])
}

// handleAdminUsersCommand handles /admin users subcommands.
func (b *Bot) handleAdminUsersCommand(s *UserSession, action string, args []string) {
	switch action {
	case "add":
		if len(args) < 1 {
			s.reply(MsgAdminUserAddUsage)
			return
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			s.reply(MsgAdminUserInvalidID)
			return
		}
		if err := b.store.AddAllowedUser(userID, s.userId); err != nil {
			s.replyWithError(err)
			return
		}
		s.reply(MsgAdminUserAdded, userID)

	case "remove":
		if len(args) < 1 {
			s.reply(MsgAdminUserRemoveUsage)
			return
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			s.reply(MsgAdminUserInvalidID)
			return
		}
		if err := b.store.RemoveAllowedUser(userID); err != nil {
			s.replyWithError(err)
			return
		}
		s.reply(MsgAdminUserRemoved, userID)

	case "list":
		users, err := b.store.GetAllowedUsers()
		if err != nil {
			s.replyWithError(err)
			return
		}
		if len(users) == 0 {
			s.reply(MsgAdminNoUsers)
			return
		}
		var sb strings.Builder
		sb.WriteString(MsgAdminAllowedUsers)
		for _, u := range users {
			sb.WriteString(fmt.Sprintf(MsgAdminAllowedUserFmt, u.TelegramID, u.AddedAt.Format("2006-01-02")))
		}
		s.replyHTML(strings.TrimSpace(sb.String()))

	default:
		s.reply(MsgAdminUsage)
	}
}
