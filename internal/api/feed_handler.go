package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"healthhive/internal/auth"
)

// FeedHandler upgrades connections to a live community feed: every post
// published on the redis feed channel is forwarded to each subscriber.
type FeedHandler struct {
	redisClient    *redis.Client
	authService    *auth.AuthService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewFeedHandler constructs the websocket handler.
func NewFeedHandler(redisClient *redis.Client, authService *auth.AuthService, logger *slog.Logger, allowedOrigins []string) *FeedHandler {
	h := &FeedHandler{
		redisClient:    redisClient,
		authService:    authService,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type feedAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection upgrades the connection, waits for the auth message, then
// streams the feed until either side goes away.
func (h *FeedHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	userID, err := h.awaitAuth(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))
	log.Info("feed subscriber authenticated")

	// Drain incoming frames so client disconnects are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := h.forwardFeed(ctx, conn); err != nil {
		log.Info("feed connection closed", slog.Any("error", err))
		return
	}
	log.Info("feed connection closed")
}

// awaitAuth reads the first frame and validates the carried access token.
func (h *FeedHandler) awaitAuth(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	_, message, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth frame: %w", err)
	}

	var msg feedAuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
		return 0, fmt.Errorf("decode auth payload: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return 0, fmt.Errorf("invalid auth message")
	}

	claims, err := h.authService.ValidateToken(msg.Token)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return 0, fmt.Errorf("validate token: %w", err)
	}
	if claims.TokenType != "access" {
		writeClose(conn, websocket.ClosePolicyViolation, "access token required")
		return 0, fmt.Errorf("invalid token type: %s", claims.TokenType)
	}

	return claims.UserID, nil
}

func (h *FeedHandler) forwardFeed(ctx context.Context, conn *websocket.Conn) error {
	pubsub := h.redisClient.Subscribe(ctx, communityFeedChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("pubsub channel closed")
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}
