package main

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/broadcast"
	"github.com/mcdev12/triviacast/go/internal/buzzer"
	"github.com/mcdev12/triviacast/go/internal/gateway"
	"github.com/mcdev12/triviacast/go/internal/phase"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/ratelimit"
	"github.com/mcdev12/triviacast/go/internal/reveal"
	"github.com/mcdev12/triviacast/go/internal/scoring"
	"github.com/mcdev12/triviacast/go/internal/session"
	"github.com/mcdev12/triviacast/go/internal/timer"
)

// Services bundles every wired component of the show core.
type Services struct {
	Hub         *gateway.Hub
	Broadcaster *broadcast.Broadcaster
	Manager     *phase.Manager
	Limits      *ratelimit.Gateway
	Relay       *broadcast.NATSRelay
}

// setupServices wires the full show pipeline: session store, transports,
// broadcaster, drivers, rate limiter and the phase manager. The hub's ack and
// input sinks are attached after the broadcaster and manager exist, so the
// hub is created first and wired last.
func setupServices(cfg *Config, clock clockwork.Clock) (*Services, error) {
	store := setupStore(cfg)

	sess, err := session.LoadFile(cfg.SessionFile)
	if err != nil {
		return nil, err
	}
	store.SetSession(sess)

	svc := &Services{}
	svc.Hub = gateway.NewHub(gateway.DefaultConnectionConfig(), svc, svc)

	transport := broadcast.Transport(svc.Hub)
	if cfg.NATS.Enabled {
		relayCfg := broadcast.DefaultNATSRelayConfig()
		relayCfg.URL = cfg.NATS.URL
		if cfg.NATS.SubjectPrefix != "" {
			relayCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		}
		relay, err := broadcast.NewNATSRelay(relayCfg)
		if err != nil {
			return nil, err
		}
		svc.Relay = relay
		transport = broadcast.NewFanout(svc.Hub, relay)
	}

	bcastCfg := broadcast.DefaultConfig()
	bcastCfg.AckTimeout = msOrDefault(cfg.Show.AckTimeoutMs, bcastCfg.AckTimeout)
	svc.Broadcaster = broadcast.New(transport, clock, bcastCfg)

	countdown := timer.NewCountdown(clock)

	zoomCfg := reveal.DefaultZoomConfig()
	if cfg.Show.ZoomSeconds > 0 {
		zoomCfg.Seconds = cfg.Show.ZoomSeconds
	}
	if cfg.Show.ZoomFPS > 0 {
		zoomCfg.FPS = cfg.Show.ZoomFPS
	}
	if cfg.Show.ZoomMaxLevel > 0 {
		zoomCfg.MaxLevel = cfg.Show.ZoomMaxLevel
	}
	zoom := reveal.NewZoom(clock, svc.Broadcaster, zoomCfg)

	mysteryCfg := reveal.DefaultMysteryConfig()
	mysteryCfg.Interval = msOrDefault(cfg.Show.MysteryIntervalMs, mysteryCfg.Interval)
	if cfg.Show.MysteryGridRows > 0 {
		mysteryCfg.GridRows = cfg.Show.MysteryGridRows
	}
	if cfg.Show.MysteryGridCols > 0 {
		mysteryCfg.GridCols = cfg.Show.MysteryGridCols
	}
	mystery := reveal.NewMystery(clock, svc.Broadcaster, mysteryCfg)

	buzzCfg := buzzer.DefaultConfig()
	buzzCfg.LockDelay = msOrDefault(cfg.Show.LockDelayMs, buzzCfg.LockDelay)
	buzzCfg.StealWindow = msOrDefault(cfg.Show.StealWindowMs, buzzCfg.StealWindow)
	arbiter := buzzer.NewArbiter(clock, buzzCfg)

	limitCfg := ratelimit.DefaultConfig()
	limitCfg.PerUserCooldown = msOrDefault(cfg.Show.CooldownMs, limitCfg.PerUserCooldown)
	if cfg.Show.MaxAttempts > 0 {
		limitCfg.PerUserMaxAttempts = cfg.Show.MaxAttempts
	}
	if cfg.Show.GlobalRPS > 0 {
		limitCfg.GlobalRPS = cfg.Show.GlobalRPS
	}
	svc.Limits = ratelimit.NewGateway(clock, limitCfg)

	scorer := scoring.NewEngine(store, svc.Broadcaster)

	mgrCfg := phase.DefaultConfig()
	if cfg.Show.DefaultQuestionSeconds > 0 {
		mgrCfg.DefaultQuestionSeconds = cfg.Show.DefaultQuestionSeconds
	}
	mgrCfg.AutoLockOnExpiry = cfg.Show.AutoLockOnExpiry
	svc.Manager = phase.NewManager(store, svc.Broadcaster, countdown, zoom, mystery, arbiter, scorer, svc.Limits, mgrCfg)

	log.Info().
		Str("session_id", sess.ID).
		Int("rounds", len(sess.Rounds)).
		Bool("nats", cfg.NATS.Enabled).
		Bool("redis", cfg.Redis.Enabled).
		Msg("show services wired")

	return svc, nil
}

func setupStore(cfg *Config) session.Store {
	if !cfg.Redis.Enabled {
		return session.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ttl := 24 * time.Hour
	if cfg.Redis.TTLSeconds > 0 {
		ttl = time.Duration(cfg.Redis.TTLSeconds) * time.Second
	}
	return session.NewRedisStore(client, ttl)
}

// HandleAck implements gateway.AckSink by forwarding to the broadcaster.
func (s *Services) HandleAck(eventID string, success bool, errMsg string) {
	s.Broadcaster.HandleAck(eventID, success, errMsg)
}

// HandleViewerInput implements gateway.InputSink by forwarding to the manager.
func (s *Services) HandleViewerInput(entityID string, answer quiz.Answer) (ratelimit.Decision, error) {
	return s.Manager.HandleViewerInput(entityID, answer)
}
