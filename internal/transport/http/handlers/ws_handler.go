package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/bondly-app/backend/internal/services/auth"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (authsvc.AccessClaims, error)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, userID string) (realtimesvc.Subscription, error)
}

// WSHandler streams realtime events to one authenticated user. Clients only receive;
// inbound frames other than control frames are ignored.
type WSHandler struct {
	auth     TokenValidator
	events   EventSubscriber
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(auth TokenValidator, events EventSubscriber, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		auth:   auth,
		events: events,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.events == nil {
		writeInternal(w, "REALTIME_UNAVAILABLE", "realtime is unavailable")
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeUnauthorized(w, "UNAUTHORIZED", "token is required")
		return
	}
	claims, err := h.auth.ValidateAccessToken(r.Context(), token)
	if err != nil {
		writeUnauthorized(w, "UNAUTHORIZED", "invalid token")
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sub, err := h.events.Subscribe(ctx, claims.UserID)
	if err != nil {
		h.logger.Error("subscribe realtime events failed", zap.String("user_id", claims.UserID), zap.Error(err))
		writeInternal(w, "REALTIME_UNAVAILABLE", "realtime is unavailable")
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("websocket connected", zap.String("user_id", claims.UserID))

	go h.readLoop(conn, cancel)
	h.writeLoop(ctx, conn, sub)
}

// readLoop drains inbound frames so pongs and close frames are processed.
func (h *WSHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub realtimesvc.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case payload, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			set[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
