package registrationHandler

import (
	registrationService "FaceRegistry/internal/api/registration/service"
	"FaceRegistry/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type RegistrationHandler struct {
	log                 *logrus.Logger
	validator           *validator.Validate
	middleware          middleware.Middleware
	registrationService registrationService.RegistrationService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	rs registrationService.RegistrationService,
) *RegistrationHandler {
	return &RegistrationHandler{
		log:                 log,
		validator:           validator,
		middleware:          middleware,
		registrationService: rs,
	}
}

func (h *RegistrationHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/enroll", h.middleware.NewRateLimiter, h.HandleEnroll)
	srv.Post("/register", h.middleware.NewRateLimiter, h.HandleEnroll)

	srv.Post("/recognize", h.middleware.NewRateLimiter, h.HandleRecognize)
	srv.Use("/recognize/ws", wsMiddleware)
	srv.Get("/recognize/ws", websocket.New(h.handleRecognizeWebSocket))

	user := srv.Group("/user")
	user.Get("/:id", h.HandleGetUser)
	user.Put("/:id", h.middleware.NewRateLimiter, h.HandleUpdateUser)
}
