// Package api provides the HTTP surface for Voxa: the streaming chat
// endpoint, the isolated snippet agent, session history, and health.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxa-labs/voxa/internal/contextres"
	"github.com/voxa-labs/voxa/internal/convstate"
	"github.com/voxa-labs/voxa/internal/genai"
	"github.com/voxa-labs/voxa/internal/intent"
	"github.com/voxa-labs/voxa/internal/models"
	"github.com/voxa-labs/voxa/internal/notify"
	"github.com/voxa-labs/voxa/internal/orch"
	"github.com/voxa-labs/voxa/internal/router"
	"github.com/voxa-labs/voxa/internal/scheduler"
	"github.com/voxa-labs/voxa/internal/search"
	"github.com/voxa-labs/voxa/internal/session"
	"github.com/voxa-labs/voxa/internal/taskparse"
)

// turnService is the slice of the orchestrator the handlers need.
type turnService interface {
	HandleTurn(ctx context.Context, req models.TurnRequest) <-chan models.StreamEvent
	HandleSnippet(ctx context.Context, req models.SnippetRequest) <-chan models.StreamEvent
}

// Server holds handler dependencies.
type Server struct {
	turns    turnService
	sessions session.Store
	addr     string
}

// Opts holds server configuration.
type Opts struct {
	Addr string
}

// Option configures the server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// NewServer creates an API server over the turn service and session store.
func NewServer(turns turnService, sessions session.Store, opts ...Option) *Server {
	cfg := Opts{Addr: ":8080"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{turns: turns, sessions: sessions, addr: cfg.Addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/stream", s.chatStreamHandler)
	mux.HandleFunc("/agent/snippet", s.snippetHandler)
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/{id}", s.sessionHandler)
	mux.HandleFunc("/sessions/{id}/messages", s.sessionMessagesHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Start runs the HTTP server until it fails or the listener closes.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Start: Voxa API listening", "addr", s.addr)
	return srv.ListenAndServe()
}

// RunOpts carries the environment-derived configuration for a full service
// bootstrap.
type RunOpts struct {
	Addr          string
	SessionDSN    string
	RedisAddr     string
	RedisPassword string
	OpenAIKey     string
	OpenAIBaseURL string
	Search        search.Opts
	SMTP          notify.SMTPOpts
	Profile       models.UserProfile
	ReminderEmail string
	BriefingCron  string
}

// Run wires every service and starts the API. It blocks until the HTTP
// server exits.
func Run(cfg RunOpts) error {
	genOpts := []genai.Option{}
	if cfg.OpenAIKey != "" {
		genOpts = append(genOpts, genai.WithAPIKey(cfg.OpenAIKey))
	}
	if cfg.OpenAIBaseURL != "" {
		genOpts = append(genOpts, genai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	gen, err := genai.NewClient(genOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	// Conversation state lives in Redis when available; a process-local map
	// otherwise.
	var kv convstate.KV
	if cfg.RedisAddr != "" {
		redisKV, err := convstate.NewRedisKV(convstate.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			slog.Warn("Run: Redis unavailable, using in-memory conversation state", "error", err)
			kv = convstate.NewMemoryKV()
		} else {
			kv = redisKV
		}
	} else {
		kv = convstate.NewMemoryKV()
	}
	states := convstate.NewStore(kv)

	sessions, err := session.NewStore(session.WithDSN(cfg.SessionDSN))
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer sessions.Close()

	classifier := intent.NewClassifier(kv,
		intent.NewOpenAIBackend("fast", gen.ModelForTier(models.TierFast), gen),
		intent.NewOpenAIBackend("balanced", gen.ModelForTier(models.TierBalanced), gen),
	)

	rtr := router.NewRouter(
		router.NewGenAIProvider(models.TierFast, "You are a helpful, friendly assistant. Answer concisely.", gen),
		router.NewGenAIProvider(models.TierBalanced, "You are a helpful, thoughtful assistant.", gen),
		router.NewGenAIProvider(models.TierPowerful, "You are an expert assistant. Reason carefully and be thorough.", gen),
		router.NewGenAIProvider(models.TierPremium, "You are an expert assistant handling the hardest questions. Reason step by step.", gen),
	)

	searcher := search.NewService(cfg.Search)

	var mailer notify.Sender
	if cfg.SMTP.Host != "" {
		smtpSender, err := notify.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		mailer = smtpSender
	} else {
		slog.Warn("Run: no SMTP configured, notifications will only be logged")
		mailer = notify.NewLogSender()
	}

	reminders := scheduler.NewReminderScheduler(func(rem scheduler.Reminder) {
		if cfg.ReminderEmail == "" {
			slog.Info("Run: reminder fired", "description", rem.Description, "conversationID", rem.ConversationID)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		body := fmt.Sprintf("⏰ Reminder: %s", rem.Description)
		if err := mailer.Send(ctx, cfg.ReminderEmail, "⏰ Voxa Reminder", body); err != nil {
			slog.Error("Run: reminder delivery failed", "error", err, "reminderID", rem.ID)
		}
	})
	defer reminders.Stop()

	if cfg.BriefingCron != "" && cfg.ReminderEmail != "" {
		cron := scheduler.NewCronScheduler()
		err := cron.AddJob(cfg.BriefingCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			digest, err := searcher.Digest(ctx, cfg.Profile.Location)
			if err != nil {
				slog.Warn("Run: daily briefing skipped", "error", err)
				return
			}
			if err := mailer.Send(ctx, cfg.ReminderEmail, "🌅 Your Daily Briefing", digest); err != nil {
				slog.Error("Run: briefing delivery failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule daily briefing: %w", err)
		}
		defer cron.Stop()
	}

	orchestrator := orch.New(orch.Deps{
		Parser:     taskparse.NewParser(),
		States:     states,
		Resolver:   contextres.NewResolver(),
		Classifier: classifier,
		Router:     rtr,
		Searcher:   searcher,
		Sessions:   sessions,
		Reminders:  reminders,
		Generator:  gen,
		Mailer:     mailer,
		Profile:    cfg.Profile,
	})

	opts := []Option{}
	if cfg.Addr != "" {
		opts = append(opts, WithAddr(cfg.Addr))
	}
	return NewServer(orchestrator, sessions, opts...).Start()
}
