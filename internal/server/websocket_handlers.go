package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"codecrew/internal/middleware"
	"codecrew/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	wsTicketPrefix = "ws_ticket:"
	wsTicketTTL    = 30 * time.Second
)

// IssueWSTicket handles POST /api/ws/ticket
// Browsers cannot set headers on a WebSocket handshake, so they trade their
// bearer token for a short-lived single-use ticket first.
// @Summary Issue a WebSocket ticket
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithAppError(c, models.NewUnavailableError("Realtime is unavailable"))
	}
	ticket := uuid.NewString()
	userID := strconv.FormatUint(uint64(viewerID(c)), 10)
	if err := s.redis.Set(c.UserContext(), wsTicketPrefix+ticket, userID, wsTicketTTL).Err(); err != nil {
		return models.RespondWithAppError(c, models.NewUnavailableError("Realtime is unavailable"))
	}
	return c.JSON(fiber.Map{"ticket": ticket, "expiresIn": int(wsTicketTTL.Seconds())})
}

// wsAuth accepts ?ticket= on the handshake and otherwise defers to the
// bearer-token middleware.
func (s *Server) wsAuth(bearer fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ticket := c.Query("ticket")
		if ticket == "" || s.redis == nil {
			return bearer(c)
		}

		invalid := models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
		raw, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				middleware.Logger.WarnContext(c.UserContext(), "ws ticket lookup failed", slog.String("error", err.Error()))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
		}
		user, err := s.userRepo.GetByID(c.UserContext(), uint(id))
		if err != nil || user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, invalid)
		}
		c.Locals(middleware.LocalUserID, user.ID)
		c.Locals(middleware.LocalUser, user)
		return c.Next()
	}
}

// WebsocketUpgrade rejects plain HTTP requests to the realtime endpoint.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler streams realtime events to an authenticated client.
// @Summary Realtime event stream
// @Description Events: problem_created, problem_deleted, answer_created, answer_accepted, vote_changed
// @Tags realtime
// @Param ticket query string false "Ticket from /ws/ticket"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(middleware.LocalUserID).(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("websocket register failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		slog.Debug("websocket connected", slog.Uint64("user_id", uint64(userID)))
		go client.WritePump()
		client.ReadPump()
	})
}
