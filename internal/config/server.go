package config

import (
	"context"
	"fmt"
	"time"

	registrationHandler "FaceRegistry/internal/api/registration/handler"
	registrationRepository "FaceRegistry/internal/api/registration/repository"
	registrationService "FaceRegistry/internal/api/registration/service"
	"FaceRegistry/internal/middleware"
	"FaceRegistry/pkg/matcher"
	"FaceRegistry/pkg/redis"
	"FaceRegistry/pkg/storage"
	"FaceRegistry/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	settings    Settings
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	storage     storage.ItfStorage
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, server.settings.RateLimitRPS, server.settings.RateLimitBurst)
	}
	if server.utils == nil {
		server.utils = utils.New(server.settings.UploadMaxBytes)
	}
	if server.redisServer == nil {
		server.redisServer = redis.New(server.log)
	}
	if server.storage == nil {
		if err := WithStorage()(server); err != nil {
			return nil, err
		}
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithSettings(settings Settings) ServerOption {
	return func(s *Server) error {
		s.settings = settings
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDB uses an existing pool instead of opening one from the environment.
func WithDB(db *sqlx.DB) ServerOption {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithStorage selects the upload backend from the settings, which must be
// applied first.
func WithStorage() ServerOption {
	return func(s *Server) error {
		store, err := storage.New(s.settings.UploadDriver, s.settings.UploadDir)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize upload storage: %v", err)
			}
			return fmt.Errorf("failed to create upload storage: %w", err)
		}
		s.storage = store
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.settings.RateLimitRPS, s.settings.RateLimitBurst)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New(s.settings.UploadMaxBytes)
		return nil
	}
}

func (s *Server) newRanker() matcher.Ranker {
	if s.settings.MatchIndex == MatchIndexHNSW {
		return matcher.NewIndexedRanker(s.log, s.settings.MatchTopK)
	}
	return matcher.NewLinearRanker(s.log)
}

func (s *Server) RegisterHandler() {
	policy := s.settings.Policy
	if policy == (matcher.Policy{}) {
		policy = matcher.DefaultPolicy()
	}

	// Registration Domain
	registrationRepo := registrationRepository.New(s.db, s.log)
	registrationServices := registrationService.New(s.log, registrationRepo, s.newRanker(), policy,
		s.storage, s.redisServer, s.settings.CacheTTL, s.utils)
	registrationHandlers := registrationHandler.New(s.log, s.validator, s.middleware, registrationServices)

	s.handlers = append(s.handlers, registrationHandlers)
}

// Mount installs the global middleware, static directories and every
// registered handler on the app without listening.
func (s *Server) Mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:     s.settings.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, " + middleware.RequestIDKey,
		AllowCredentials: true,
	}))

	s.setupHealthCheck()

	if s.settings.UploadDriver == "" || s.settings.UploadDriver == storage.DriverDisk {
		s.engine.Static("/uploads", s.settings.UploadDir)
	}
	if s.settings.ModelsDir != "" {
		s.engine.Static("/models", s.settings.ModelsDir)
	}

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	s.Mount()

	port := s.settings.Port
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, waits for in-flight ones up to timeout,
// then closes the pool.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.engine.ShutdownWithContext(ctx)
	if closeErr := s.db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
