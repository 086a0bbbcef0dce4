// Package api exposes the board over HTTP.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	progressx "github.com/tanpawarit/yearboard/board/progress"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
	logx "github.com/tanpawarit/yearboard/pkg/logger"
)

type ProgressStore interface {
	GetAll(ctx context.Context) (progressx.Map, error)
	GetCurrent(ctx context.Context, title string) (float64, bool, error)
	SetCurrent(ctx context.Context, title string, value float64) error
}

type MemoryStore interface {
	Load(ctx context.Context, orgID string) (*memoryx.Memory, error)
	Fire(ctx context.Context, orgID string, ev memoryx.Event) (*memoryx.Memory, error)
}

type VisibleStore interface {
	Expose(session string, data visiblex.Data)
	Clear(session string)
	Read(session string) visiblex.Data
}

// Deps are the services the handlers call. Coach may be nil.
type Deps struct {
	Progress ProgressStore
	Memory   MemoryStore
	Visible  VisibleStore
	Coach    contractx.Coach
}

type Config struct {
	ReadTimeout  time.Duration `split_words:"true" default:"15s"`
	WriteTimeout time.Duration `split_words:"true" default:"90s"`
	BodyLimit    int           `split_words:"true" default:"1048576"`
}

type Server struct {
	app    *fiber.App
	deps   Deps
	logger zerolog.Logger
}

func New(deps Deps, conf Config) (*Server, error) {
	if deps.Progress == nil {
		return nil, errors.New("progress store is required")
	}
	if deps.Memory == nil {
		return nil, errors.New("memory store is required")
	}
	if deps.Visible == nil {
		return nil, errors.New("visible registry is required")
	}

	s := &Server{
		deps:   deps,
		logger: logx.Component("api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "yearboard",
		ReadTimeout:           conf.ReadTimeout,
		WriteTimeout:          conf.WriteTimeout,
		BodyLimit:             conf.BodyLimit,
		UnescapePath:          true,
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)

	v1 := s.app.Group("/api/v1")

	v1.Post("/plan/weekly", s.generatePlan)

	progress := v1.Group("/progress")
	progress.Get("/", s.listProgress)
	progress.Get("/:title", s.getProgress)
	progress.Put("/:title", s.setProgress)

	orgs := v1.Group("/orgs/:org")
	orgs.Get("/memory", s.getMemory)
	orgs.Post("/memory/events", s.fireEvent)
	orgs.Post("/coach", s.askCoach)

	sessions := v1.Group("/sessions/:session")
	sessions.Get("/visible", s.readVisible)
	sessions.Put("/visible", s.exposeVisible)
	sessions.Delete("/visible", s.clearVisible)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = statusFor(err)
		}
	}

	event := s.logger.Debug()
	if status >= fiber.StatusInternalServerError {
		event = s.logger.Warn().Err(err)
	}
	event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("http request")
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"coach":     s.deps.Coach != nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
