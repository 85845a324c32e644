package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/user"
	"campuspool/internal/general/jwt"
	"campuspool/internal/general/logger"
	"campuspool/internal/general/websocket"
	"campuspool/internal/observability"
	"campuspool/internal/ports"
)

// RideHTTPHandler adapts HTTP requests to the RideService.
type RideHTTPHandler struct {
	svc    ports.RideService
	logger *logger.Logger
	auth   *jwt.Manager
	feed   *websocket.Feed
}

// NewRideHTTPHandler wires an HTTP handler around the RideService.
func NewRideHTTPHandler(
	svc ports.RideService,
	logger *logger.Logger,
	auth *jwt.Manager,
	feed *websocket.Feed,
) *RideHTTPHandler {
	return &RideHTTPHandler{svc: svc, logger: logger, auth: auth, feed: feed}
}

// RegisterRoutes mounts ride endpoints on the provided mux.
func (handler *RideHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides", observability.InstrumentHandler("/rides",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleCreateRide),
	))
	mux.HandleFunc("GET /rides/{ride_id}", observability.InstrumentHandler("/rides/{ride_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver, user.RolePassenger)(handler.handleGetRide),
	))
	mux.HandleFunc("PATCH /rides/{ride_id}", observability.InstrumentHandler("/rides/{ride_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleUpdateRideStatus),
	))

	// WebSocket feed authenticates itself with a first-frame auth message
	mux.HandleFunc("GET /ws/notifications", handler.feed.Connect)

	mux.HandleFunc("GET /rides/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *RideHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----- token issuance (development convenience) -----

type TokenRequest struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
}

// TokenResponse represents the response for token generation
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *RideHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	response := TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, response)
}

// ----- general helpers -----

func (handler *RideHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *RideHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// faultError maps a service error onto its HTTP status and error kind.
func (handler *RideHTTPHandler) faultError(ctx context.Context, w http.ResponseWriter, err error) {
	status := fault.HTTPStatus(err)
	msg := err.Error()
	if status >= 500 {
		msg = "internal error" // never leak store internals
	}
	handler.logger.Error(ctx, "request_failed", msg, err, map[string]any{
		"kind": string(fault.KindOf(err)),
	})

	type errBody struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg, Kind: string(fault.KindOf(err))})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *RideHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
