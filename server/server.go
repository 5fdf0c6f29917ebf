// Package server assembles the interpreter, executor and HTTP API into a
// runnable process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hrygo/armi/internal/observability"
	"github.com/hrygo/armi/internal/profile"
	"github.com/hrygo/armi/plugin/ai"
	"github.com/hrygo/armi/plugin/ai/aitime"
	"github.com/hrygo/armi/plugin/ai/conversation"
	"github.com/hrygo/armi/plugin/ai/executor"
	"github.com/hrygo/armi/plugin/ai/interpreter"
	"github.com/hrygo/armi/plugin/ai/reminder"
	"github.com/hrygo/armi/plugin/ai/session"
	armimw "github.com/hrygo/armi/server/middleware"
	apiv1 "github.com/hrygo/armi/server/router/api/v1"
	"github.com/hrygo/armi/store"
)

// Options tunes the background jobs and outer surface.
type Options struct {
	WebhookURL        string
	WebhookSecret     string
	SchedulerInterval time.Duration
	SessionIdle       time.Duration
	RateLimit         rate.Limit
	RateBurst         int
	// LLM overrides the backend built from the profile; tests use it.
	LLM ai.LLMService
}

// Server owns every long-lived component.
type Server struct {
	Profile       *profile.Profile
	Store         *store.Store
	Clock         aitime.TimeResolver
	Interpreter   *interpreter.Interpreter
	Executor      *executor.Executor
	Sessions      *session.Registry
	Notifications *reminder.Service
	Scheduler     *reminder.Scheduler
	Cleanup       *session.CleanupJob

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
	logger     *slog.Logger
}

// NewLLM builds the backend described by the profile. An enabled but
// incomplete AI configuration is logged and falls back to mock mode.
func NewLLM(p *profile.Profile) (ai.LLMService, error) {
	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		slog.Warn("AI configuration is incomplete, interpreting in mock mode",
			slog.String("provider", p.AIProvider),
			slog.String("error", err.Error()))
		return ai.NewUnavailableLLMService(), nil
	}
	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM service: %w", err)
	}
	return llm, nil
}

// NewServer builds the components over an already migrated store.
func NewServer(_ context.Context, p *profile.Profile, st *store.Store, opts Options) (*Server, error) {
	llm := opts.LLM
	if llm == nil {
		var err error
		if llm, err = NewLLM(p); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Profile: p,
		Store:   st,
		Clock:   aitime.NewResolver(p.DefaultTimezone),
		logger:  slog.Default(),
	}
	s.Interpreter = interpreter.New(llm, s.Clock)
	if !llm.IsAvailable() {
		s.logger.Warn("No usable AI credential, interpreting in mock mode",
			slog.String("provider", p.AIProvider))
	}

	dispatcher := reminder.NewNotificationDispatcher()
	dispatcher.Register(reminder.ChannelLog, reminder.NewLogSender(s.logger))
	channels := []reminder.Channel{reminder.ChannelLog}
	if opts.WebhookURL != "" {
		dispatcher.Register(reminder.ChannelWebhook, reminder.NewWebhookSender(reminder.WebhookConfig{
			URL:    opts.WebhookURL,
			Secret: opts.WebhookSecret,
		}))
		channels = append(channels, reminder.ChannelWebhook)
	}
	s.Notifications = reminder.NewService(reminder.NewMemoryStore(), dispatcher)
	s.Notifications.SetDefaultChannels(channels)
	s.Scheduler = reminder.NewScheduler(s.Notifications, reminder.SchedulerConfig{Interval: opts.SchedulerInterval})

	s.Executor = executor.New(st, st, st, s.Notifications)
	s.Sessions = session.NewRegistry(s.NewMachine)
	s.Cleanup = session.NewCleanupJob(s.Sessions, session.CleanupConfig{IdleTimeout: opts.SessionIdle})

	s.apiV1 = apiv1.NewAPIV1Service(p, st, s.Interpreter, s.Executor, s.Sessions, s.Notifications)
	s.apiV1.SetRateLimiter(armimw.NewRateLimiter(opts.RateLimit, opts.RateBurst))

	s.echoServer = echo.New()
	s.echoServer.HideBanner = true
	s.echoServer.HidePort = true
	s.echoServer.Use(middleware.Recover())
	s.apiV1.RegisterRoutes(s.echoServer)

	return s, nil
}

// NewMachine creates a confirmation machine for one conversation.
func (s *Server) NewMachine(id, timezone string) *conversation.Machine {
	return conversation.NewMachine(conversation.Config{
		ID:        id,
		Timezone:  timezone,
		Threshold: s.Profile.ConfidenceThreshold,
	}, s.Interpreter, s.Clock, s.Executor)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Run serves HTTP and runs the notification scheduler and session cleanup
// until ctx is done or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	addr := net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
	g.Go(func() error {
		s.logger.Info("armi API listening", slog.String("addr", addr), slog.String("mode", s.Profile.Mode))
		if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.Scheduler.Run(ctx)
	})
	g.Go(func() error {
		return s.Cleanup.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.apiV1.RateLimiter().Prune()
			}
		}
	})

	err := g.Wait()
	snapshot := observability.GlobalMetrics().Snapshot()
	s.logger.Info("armi stopped",
		slog.Int64("interpretations", snapshot.InterpretTotal),
		slog.Int64("executions", snapshot.ExecuteTotal))
	return err
}
