package config

import (
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// NewFiber builds the app. Multipart bodies larger than bodyLimit are refused
// by fiber itself with 413.
func NewFiber(logger *logrus.Logger, bodyLimit int) *fiber.App {
	errHandler := handlerUtil.New(logger)

	app := fiber.New(
		fiber.Config{
			AppName:           "Face Registry",
			BodyLimit:         bodyLimit,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: false,
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			ErrorHandler: func(ctx *fiber.Ctx, err error) error {
				requestID := contextPkg.GetRequestID(contextPkg.FromFiberCtx(ctx))
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "fiber")
			},
		})

	return app
}
