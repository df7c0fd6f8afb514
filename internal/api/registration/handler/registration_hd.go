package registrationHandler

import (
	"mime/multipart"
	"time"

	"FaceRegistry/internal/api/registration"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/handlerUtil"
	"FaceRegistry/pkg/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const (
	enrollSuccessMessage = "Registration completed successfully"
	enrollFailureMessage = "Registration failed"
	updateSuccessMessage = "Profile updated successfully"
	updateFailureMessage = "Failed to update profile"
)

func (h *RegistrationHandler) HandleEnroll(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req registration.EnrollRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleFailure(ctx, requestID, response.WithDetails(registration.ErrMalformedRequest, err.Error()),
			enrollFailureMessage, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleFailure(ctx, requestID, response.WithDetails(registration.ErrValidationFailed, handlerUtil.ValidationDetails(err)),
			enrollFailureMessage, ctx.Path(), "validate_request")
	}

	image := profileImage(ctx)

	id, err := h.registrationService.Registration().Enroll(c, req, image)
	if err != nil {
		return errHandler.HandleFailure(ctx, requestID, err, enrollFailureMessage, ctx.Path(), "enroll")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, registration.EnrollResponse{
			Success:        true,
			Message:        enrollSuccessMessage,
			RegistrationID: id,
		})
	}
}

func (h *RegistrationHandler) HandleGetUser(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	detail, err := h.registrationService.Registration().GetByID(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_user")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, registration.NewUserResponse(detail))
	}
}

func (h *RegistrationHandler) HandleUpdateUser(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req registration.UpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleFailure(ctx, requestID, response.WithDetails(registration.ErrMalformedRequest, err.Error()),
			updateFailureMessage, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleFailure(ctx, requestID, response.WithDetails(registration.ErrValidationFailed, handlerUtil.ValidationDetails(err)),
			updateFailureMessage, ctx.Path(), "validate_request")
	}

	image := profileImage(ctx)

	detail, err := h.registrationService.Registration().Update(c, ctx.Params("id"), req, image)
	if err != nil {
		return errHandler.HandleFailure(ctx, requestID, err, updateFailureMessage, ctx.Path(), "update_user")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, registration.UpdateResponse{
			Success: true,
			Message: updateSuccessMessage,
			User:    registration.NewUserResponse(detail),
		})
	}
}

// profileImage returns the uploaded profile image, or nil when the request
// carries none.
func profileImage(ctx *fiber.Ctx) *multipart.FileHeader {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil
	}

	files := form.File[registration.ProfileImageField]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
