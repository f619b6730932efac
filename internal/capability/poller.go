package capability

import (
	"context"
	"time"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPollInterval is the time between capability checks.
	DefaultPollInterval = 5 * time.Minute
)

// Source is the part of the backend client the poller needs.
type Source interface {
	Health(ctx context.Context) (plantapi.Health, error)
	Capabilities(ctx context.Context) (plantapi.Capabilities, error)
}

// Poller refreshes a Registry from the backend on a fixed interval.
type Poller struct {
	source   Source
	registry *Registry
	interval time.Duration
	now      func() time.Time
}

func NewPoller(source Source, registry *Registry, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		source:   source,
		registry: registry,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls once immediately and then on every tick. It blocks until the
// context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("starting capability poller")

	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("capability poller stopped")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll executes one check. When the health check fails the last known
// capabilities are kept and the backend is marked unreachable. When only
// the capabilities call fails the previous values are kept as well.
func (p *Poller) Poll(ctx context.Context) {
	if _, err := p.source.Health(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("backend health check failed")
		p.registry.SetReachable(false, p.now())
		return
	}

	caps, err := p.source.Capabilities(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("failed to fetch backend capabilities")
		p.registry.SetReachable(true, p.now())
		return
	}

	if p.registry.Update(caps, true, p.now()) {
		log.Info().
			Bool("imageAnalysis", caps.ImageAnalysisAvailable).
			Msg("image analysis availability changed")
	}
	log.Debug().
		Bool("imageAnalysis", caps.ImageAnalysisAvailable).
		Bool("chat", caps.ChatAvailable).
		Bool("llm", caps.LLMAvailable).
		Msg("capabilities refreshed")
}
