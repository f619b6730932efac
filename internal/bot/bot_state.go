package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

type BotState struct {
	bot      *Bot
	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func (bs *BotState) newUserSession(userId int64) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &UserSession{
		userId:  userId,
		sender:  bs.bot.tg,
		inbox:   make(chan SessionMessage, 10), // Buffered to avoid blocking
		ctx:     ctx,
		cancel:  cancel,
		conv:    session.New(bs.bot.caps),
		pending: make(map[uint64]inFlight),
	}

	// Restore the care category chosen in an earlier run
	if bs.bot.store != nil {
		category, err := bs.bot.store.GetCategory(userId)
		if err != nil {
			log.Warn().Err(err).Int64("userId", userId).Msg("failed to load stored category")
		} else if category != "" {
			s.conv.SetCategory(category)
		}
	}

	log.Info().Int64("userId", userId).Str("category", s.conv.Category()).Msg("new user session created")
	return s
}

func (bs *BotState) getUserSession(userId int64) *UserSession {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if s, ok := bs.sessions[userId]; ok {
		return s
	}

	s := bs.newUserSession(userId)
	// Set the bot as the message handler and start the worker
	s.SetHandler(bs.bot)
	s.StartWorker()
	bs.sessions[userId] = s
	return s
}

func (b *Bot) NewBotState() *BotState {
	return &BotState{
		bot:      b,
		sessions: make(map[int64]*UserSession),
	}
}

// Shutdown stops all session workers gracefully.
func (bs *BotState) Shutdown() {
	bs.mu.Lock()
	sessions := make([]*UserSession, 0, len(bs.sessions))
	for _, s := range bs.sessions {
		sessions = append(sessions, s)
	}
	bs.mu.Unlock()

	// Stop all workers (outside the lock to avoid blocking)
	for _, s := range sessions {
		s.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}
