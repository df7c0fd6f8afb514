package registrationHandler

import (
	"context"
	"time"

	"FaceRegistry/internal/api/registration"
	"FaceRegistry/internal/middleware"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/handlerUtil"
	"FaceRegistry/pkg/response"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamFrameTimeout = 10 * time.Second
)

// handleRecognizeWebSocket answers every text frame holding a recognize
// request with a recognize response, for clients that stream captures from a
// camera loop.
func (h *RegistrationHandler) handleRecognizeWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	log := h.log.WithField("request_id", requestID)
	errHandler := handlerUtil.New(h.log)

	log.Info("Recognition WebSocket client connected")
	defer log.Info("Recognition WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			log.WithField("error", err.Error()).Error("Error sending pong")
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			log.WithField("error", err.Error()).Error("Error setting read deadline")
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("error", err.Error()).Error("Recognition WebSocket error")
			} else {
				log.Info("Recognition WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.TextMessage {
			log.WithField("message_type", messageType).Warn("Received unexpected message type")
			continue
		}

		reply := h.recognizeFrame(requestID, message, errHandler)

		if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			log.WithField("error", err.Error()).Error("Error setting write deadline")
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			log.WithFields(logrus.Fields{"error": err.Error()}).Error("Error writing JSON response")
			break
		}
	}
}

func (h *RegistrationHandler) recognizeFrame(requestID string, message []byte, errHandler *handlerUtil.ErrorHandler) interface{} {
	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), streamFrameTimeout)
	defer cancel()

	var req registration.RecognizeRequest
	if err := jsoniter.Unmarshal(message, &req); err != nil {
		return problemResponse(errHandler.Resolve(requestID,
			response.WithDetails(registration.ErrMalformedRequest, err.Error()), "/recognize/ws", "parse_frame"))
	}

	if err := h.validator.Struct(req); err != nil {
		return problemResponse(errHandler.Resolve(requestID,
			response.WithDetails(registration.ErrValidationFailed, handlerUtil.ValidationDetails(err)), "/recognize/ws", "validate_frame"))
	}

	result, err := h.registrationService.Recognition().Recognize(ctx, req)
	if err != nil {
		return problemResponse(errHandler.Resolve(requestID, err, "/recognize/ws", "recognize"))
	}

	return result
}

func problemResponse(p handlerUtil.Problem) handlerUtil.ErrorResponse {
	return handlerUtil.ErrorResponse{
		Error:   p.Message,
		Details: p.Details,
		TraceID: p.TraceID,
	}
}
