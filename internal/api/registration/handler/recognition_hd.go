package registrationHandler

import (
	"time"

	"FaceRegistry/internal/api/registration"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/handlerUtil"
	"FaceRegistry/pkg/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *RegistrationHandler) HandleRecognize(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req registration.RecognizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, response.WithDetails(registration.ErrMalformedRequest, err.Error()), ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.registrationService.Recognition().Recognize(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "recognize")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}
