package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/user"
	"campuspool/internal/general/jwt"
	"campuspool/internal/general/logger"
	"campuspool/internal/observability"
	"campuspool/internal/ports"
)

// BookingHTTPHandler adapts HTTP requests to the booking and review services.
type BookingHTTPHandler struct {
	svc       ports.BookingService
	reviewSvc ports.ReviewService
	logger    *logger.Logger
	auth      *jwt.Manager
}

// NewBookingHTTPHandler wires an HTTP handler around the BookingService.
func NewBookingHTTPHandler(
	svc ports.BookingService,
	reviewSvc ports.ReviewService,
	logger *logger.Logger,
	auth *jwt.Manager,
) *BookingHTTPHandler {
	return &BookingHTTPHandler{svc: svc, reviewSvc: reviewSvc, logger: logger, auth: auth}
}

// RegisterRoutes mounts booking endpoints on the provided mux.
func (handler *BookingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides/{ride_id}/book", observability.InstrumentHandler("/rides/{ride_id}/book",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleRequestBooking),
	))
	mux.HandleFunc("GET /bookings/{booking_id}", observability.InstrumentHandler("/bookings/{booking_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver)(handler.handleGetBooking),
	))
	mux.HandleFunc("PATCH /bookings/{booking_id}", observability.InstrumentHandler("/bookings/{booking_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver)(handler.handleUpdateBookingStatus),
	))
	mux.HandleFunc("POST /bookings/{booking_id}/confirm", observability.InstrumentHandler("/bookings/{booking_id}/confirm",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleConfirmBooking),
	))
	mux.HandleFunc("POST /bookings/{booking_id}/rate-passenger", observability.InstrumentHandler("/bookings/{booking_id}/rate-passenger",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleRatePassenger),
	))
}

// ----- general helpers -----

func (handler *BookingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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
func (handler *BookingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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
func (handler *BookingHTTPHandler) faultError(ctx context.Context, w http.ResponseWriter, err error) {
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
func (handler *BookingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
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

// decodeStrict decodes a JSON body with unknown fields disallowed and a size cap.
func (handler *BookingHTTPHandler) decodeStrict(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 256<<10) // 256 KiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}
