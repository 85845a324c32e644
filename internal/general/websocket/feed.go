package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"campuspool/internal/domain/user"
	"campuspool/internal/general/contracts"
	"campuspool/internal/general/jwt"
	"campuspool/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	ctrlTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Feed pushes notification events to connected users over WebSocket.
// Clients authenticate with a first-frame auth message after the upgrade.
type Feed struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	writeLocks sync.Map // key: *websocket.Conn -> *sync.Mutex
	conns      sync.Map // key: userID(string) -> *websocket.Conn
}

// NewFeed creates a notification feed with JWT auth.
func NewFeed(logger *logger.Logger, jwtMgr *jwt.Manager) *Feed {
	return &Feed{
		logger: logger,
		jwtMgr: jwtMgr,
	}
}

// Connect handles WebSocket connections from passengers and drivers.
func (f *Feed) Connect(w http.ResponseWriter, r *http.Request) {
	// 1) Upgrade HTTP -> WS
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	// Teardown order (LIFO on return):
	defer conn.Close()              // 3) close the socket last
	defer f.writeLocks.Delete(conn) // 2) forget per-connection mutex (idempotent)

	// 2) Set auth deadline
	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		f.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		f.sendAuthError(conn, "internal server error")
		return
	}

	// 3) Auth frame
	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			f.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			f.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		f.sendAuthError(conn, "authentication timeout: please send auth message within 10 seconds")
		return
	}

	if msgType != websocket.TextMessage {
		f.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		f.sendAuthError(conn, "auth message must be in text format")
		return
	}

	res, err := jwt.ValidateWSAuth(firstFrame, f.jwtMgr, user.RolePassenger, user.RoleDriver)
	if err != nil {
		f.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		f.sendAuthError(conn, "authentication failed: invalid token")
		return
	}
	userID := res.Claims.Subject

	// 4) Send authentication success message
	if err := f.sendAuthSuccess(conn, userID); err != nil {
		f.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	f.logger.Info(r.Context(), "ws_connected", "Notification feed connected",
		map[string]any{"user_id": userID, "role": string(res.Claims.Role)})

	// 5) Reset read deadline after auth
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	// 6) Start ping loop (every 30s) using the per-connection writer lock
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			mu := f.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// Close socket to unblock reader; goroutine exits.
				_ = conn.Close()
				return
			}
		}
	}()

	// 7) Register for outbound notifications; unregister on exit
	f.register(userID, conn)
	defer f.remove(userID, conn)

	// 8) Read loop: the feed is push-only, so we just drain control traffic
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.logger.Error(r.Context(), "ws_unexpected_close", "Feed connection closed unexpectedly", err, map[string]any{
					"user_id": userID,
				})
				f.wsWriteClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				f.logger.Info(r.Context(), "ws_connection_closed", "Feed connection closed normally", map[string]any{
					"user_id": userID,
				})
				f.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			return
		}
	}
}

// Push delivers a notification event to the user's live connection, if any.
// Returns false when the user is not connected.
func (f *Feed) Push(userID string, event contracts.NotificationEvent) bool {
	v, ok := f.conns.Load(userID)
	if !ok {
		return false
	}
	conn, ok := v.(*websocket.Conn)
	if !ok || conn == nil {
		return false
	}

	payload, err := json.Marshal(map[string]any{
		"type": "notification",
		"data": event,
	})
	if err != nil {
		return false
	}

	if err := f.wsWriteMessage(conn, websocket.TextMessage, payload); err != nil {
		// broken pipe; the read loop will clean up the registration
		_ = conn.Close()
		return false
	}
	return true
}

// IsConnected checks if a user currently has a live feed connection.
func (f *Feed) IsConnected(userID string) bool {
	_, ok := f.conns.Load(userID)
	return ok
}

// --- internals ---

func (f *Feed) register(userID string, conn *websocket.Conn) {
	if old, ok := f.conns.Load(userID); ok {
		if oldConn, ok := old.(*websocket.Conn); ok && oldConn != conn {
			_ = oldConn.Close()
		}
	}
	f.conns.Store(userID, conn)
}

// remove drops the registration only if it still points at this connection,
// so a reconnect racing with the old read loop is not torn down.
func (f *Feed) remove(userID string, conn *websocket.Conn) {
	if cur, ok := f.conns.Load(userID); ok {
		if curConn, ok := cur.(*websocket.Conn); ok && curConn == conn {
			f.conns.Delete(userID)
		}
	}
}

// sendAuthError sends authentication error message to client
func (f *Feed) sendAuthError(conn *websocket.Conn, message string) error {
	errorMsg := map[string]interface{}{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	}
	msgBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return err
	}
	return f.wsWriteMessage(conn, websocket.TextMessage, msgBytes)
}

// sendAuthSuccess sends authentication success message to client
func (f *Feed) sendAuthSuccess(conn *websocket.Conn, userID string) error {
	successMsg := map[string]interface{}{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"success":   true,
		"user_id":   userID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	msgBytes, err := json.Marshal(successMsg)
	if err != nil {
		return err
	}
	return f.wsWriteMessage(conn, websocket.TextMessage, msgBytes)
}

// wsWriteClose sends a close control frame with the given code and reason.
func (f *Feed) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := f.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(2*time.Second),
	)
	f.writeLocks.Delete(conn)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (f *Feed) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := f.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (f *Feed) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := f.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := f.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}
