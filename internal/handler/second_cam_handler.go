package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
	ws "github.com/omarrislam/Quiz-App/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SecondCamHandler serves the companion-device endpoints.
type SecondCamHandler struct {
	secondCamService *service.SecondCamService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
	maxMessage       int64
}

// NewSecondCamHandler creates a new SecondCamHandler. maxMessage caps one
// request body or socket message.
func NewSecondCamHandler(secondCamService *service.SecondCamService, log zerolog.Logger, allowedOrigins []string, maxMessage int64) *SecondCamHandler {
	return &SecondCamHandler{
		secondCamService: secondCamService,
		log:              log.With().Str("component", "second_cam_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
		maxMessage:       maxMessage,
	}
}

// Connect godoc
// POST /api/v1/public/attempts/:attempt_id/second-cam/connect
// Registers the companion device with its attempt-scoped token.
func (h *SecondCamHandler) Connect(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.SecondCamConnectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.secondCamService.Connect(c.Request.Context(), attemptID, req.Token)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// Heartbeat godoc
// POST /api/v1/public/attempts/:attempt_id/second-cam/heartbeat
// Stores a capture and refreshes liveness.
func (h *SecondCamHandler) Heartbeat(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	if h.maxMessage > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxMessage)
	}
	var req model.SecondCamHeartbeatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.secondCamService.Heartbeat(c.Request.Context(), attemptID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// GetStatus godoc
// GET /api/v1/public/attempts/:attempt_id/second-cam
// Connected means a heartbeat within the last 20 seconds.
func (h *SecondCamHandler) GetStatus(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	st, err := h.secondCamService.Status(c.Request.Context(), attemptID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Stream godoc
// WS /ws/v1/attempts/:attempt_id/second-cam?token=...
// Heartbeats over a socket. The token is checked before the upgrade; each
// message is re-authorized so the stream ends with the attempt.
func (h *SecondCamHandler) Stream(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	ctx := c.Request.Context()

	sess, err := h.secondCamService.Connect(ctx, attemptID, token)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	if h.maxMessage > 0 {
		conn.SetReadLimit(h.maxMessage)
	}

	wsLog := h.log.With().Str("attempt_id", attemptID.String()).Logger()
	wsLog.Info().Msg("Second camera stream connected")

	_ = ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventConnected, AttemptID: attemptID.String(), LastSeenAt: sess.LastSeenAt})

	for {
		env, err := ws.ReadEnvelope(conn)
		if err != nil {
			if errors.Is(err, ws.ErrMalformed) {
				_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch env.Action {
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionHeartbeat:
			if done := h.handleHeartbeat(ctx, conn, wsLog, attemptID, token, env.Raw); done {
				return
			}
		default:
			_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(env.Action))
		}
	}
}

// handleHeartbeat reports true when the stream should end.
func (h *SecondCamHandler) handleHeartbeat(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, token string, raw []byte) bool {
	var msg ws.HeartbeatRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed heartbeat")
		return false
	}

	sess, err := h.secondCamService.Heartbeat(ctx, attemptID, model.SecondCamHeartbeatRequest{
		Token:  token,
		Mime:   msg.Mime,
		Data:   msg.Data,
		Width:  msg.Width,
		Height: msg.Height,
	})
	if err == nil {
		_ = ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventAck, AttemptID: attemptID.String(), LastSeenAt: sess.LastSeenAt})
		return false
	}

	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindInternal {
		wsLog.Error().Err(err).Msg("Heartbeat failed")
		_ = ws.WriteError(conn, string(response.ErrInternal), response.GetMessage(response.ErrInternal))
		return false
	}
	if se.Kind == service.KindInvalidInput {
		_ = ws.WriteError(conn, string(se.Code), se.Error())
		return false
	}

	// Attempt ended, feature switched off or token no longer valid.
	_ = ws.WriteTyped(conn, ws.EndedResponse{Event: ws.EventEnded, Reason: string(se.Code)})
	ws.Close(conn, websocket.ClosePolicyViolation, string(se.Code))
	wsLog.Info().Str("reason", string(se.Code)).Msg("Second camera stream ended")
	return true
}
