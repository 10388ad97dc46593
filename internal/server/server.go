// Package server exposes an Atlas instance over HTTP so a host application
// in another process can publish events and read the scene.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/edit"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/scene"
	"github.com/beetlebugorg/atlas/pkg/atlas"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

// Options configures the server.
type Options struct {
	AppName     string
	ReadTimeout time.Duration

	// Logger receives request errors and persistence failures.
	// Default: discard
	Logger *log.Logger

	// AccessLog enables the request log middleware, written to AccessLogOut.
	AccessLog    bool
	AccessLogOut io.Writer

	// Repository persists the scene after every change. Nil disables
	// persistence.
	Repository *scene.Repository
}

// Server bridges HTTP requests to an Atlas instance. Every request runs
// under Atlas.Serialize.
type Server struct {
	app    *fiber.App
	atlas  *atlas.Atlas
	repo   *scene.Repository
	logger *log.Logger
	subs   []*event.Handle
}

// New builds the fiber app and its routes.
func New(a *atlas.Atlas, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.AppName == "" {
		opts.AppName = "Atlas"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}

	s := &Server{
		atlas:  a,
		repo:   opts.Repository,
		logger: opts.Logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:      opts.AppName,
		ReadTimeout:  opts.ReadTimeout,
		ErrorHandler: s.errorHandler,
	})

	s.app.Use(recover.New())
	if opts.AccessLog {
		cfg := logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}
		if opts.AccessLogOut != nil {
			cfg.Stream = opts.AccessLogOut
		}
		s.app.Use(logger.New(cfg))
	}

	s.app.Get("/health/live", s.live)
	s.app.Get("/health/ready", s.ready)

	api := s.app.Group("/api")
	api.Get("/entities", s.listEntities)
	api.Get("/entities/:id", s.getEntity)
	api.Get("/scene", s.getScene)
	api.Post("/events/*", s.publish)

	if s.repo != nil {
		// Edits made outside the API, e.g. in a terminal view sharing the
		// instance. Handlers already run under Serialize.
		persist := func(*event.Event) error {
			s.store(context.Background(), s.describe())
			return nil
		}
		s.subs = append(s.subs,
			a.Subscribe(edit.EventTranslateComplete, persist),
			a.Subscribe(edit.EventDrawComplete, persist),
		)
	}
	return s
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App { return s.app }

// Restore creates the entities stored in the repository and returns how
// many there were.
func (s *Server) Restore(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	ds, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	s.atlas.Serialize(func() {
		_, err = s.atlas.Entities().BulkCreate(ds)
	})
	return len(ds), err
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server and cancels its subscriptions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.atlas.Serialize(func() {
		for _, h := range s.subs {
			h.Cancel()
		}
	})
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (s *Server) ready(c fiber.Ctx) error {
	if s.repo != nil {
		if _, err := s.repo.Count(c.Context()); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// describe describes every entity in creation order. The caller holds the
// Atlas lock.
func (s *Server) describe() []c3ml.Descriptor {
	var ds []c3ml.Descriptor
	for _, e := range s.atlas.Entities().Entities() {
		ds = append(ds, entity.Describe(e))
	}
	return ds
}

func (s *Server) snapshot() []c3ml.Descriptor {
	var ds []c3ml.Descriptor
	s.atlas.Serialize(func() { ds = s.describe() })
	return ds
}

func (s *Server) listEntities(c fiber.Ctx) error {
	ds := s.snapshot()
	if ds == nil {
		ds = []c3ml.Descriptor{}
	}
	return c.JSON(ds)
}

func (s *Server) getEntity(c fiber.Ctx) error {
	var (
		d   c3ml.Descriptor
		err error
	)
	s.atlas.Serialize(func() {
		var e entity.GeoEntity
		if e, err = s.atlas.Entities().GetByID(c.Params("id")); err == nil {
			d = entity.Describe(e)
		}
	})
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (s *Server) getScene(c fiber.Ctx) error {
	doc := c3ml.Document{Entities: s.snapshot()}
	if doc.Entities == nil {
		doc.Entities = []c3ml.Descriptor{}
	}
	return c.JSON(doc)
}

// publish dispatches POST /api/events/<name> with the JSON body as args.
func (s *Server) publish(c fiber.Ctx) error {
	name := c.Params("*")
	if name == "" {
		return fiber.NewError(http.StatusBadRequest, "missing event name")
	}

	var args any
	if body := c.Body(); len(body) > 0 {
		if !json.Valid(body) {
			return fiber.NewError(http.StatusBadRequest, "invalid json")
		}
		args = json.RawMessage(append([]byte(nil), body...))
	}

	var err error
	s.atlas.Serialize(func() {
		err = s.atlas.Publish(name, args)
	})
	if err != nil {
		return err
	}
	if s.repo != nil {
		s.store(c.Context(), s.snapshot())
	}
	return c.JSON(fiber.Map{"status": "ok", "event": name})
}

// store replaces the persisted scene with ds. Failures are logged, the
// change itself already happened.
func (s *Server) store(ctx context.Context, ds []c3ml.Descriptor) {
	if err := s.repo.Replace(ctx, ds); err != nil {
		s.logger.Printf("persist scene: %v", err)
	}
}

func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, apperror.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperror.ErrDuplicateID):
		code = http.StatusConflict
	case errors.Is(err, apperror.ErrDeveloper):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
