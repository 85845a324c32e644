package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/user"
	"campuspool/internal/general/jwt"
	"campuspool/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type updateBookingRequest struct {
	Status string `json:"status"` // driver: accepted | declined; passenger: cancelled
}

// ----- Handler: PATCH /bookings/{booking_id} -----

// handleUpdateBookingStatus disambiguates by the caller's role: drivers
// accept or decline a pending booking, passengers cancel their own.
func (handler *BookingHTTPHandler) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	bookingID := strings.TrimSpace(r.PathValue("booking_id"))
	if bookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", errors.New("missing booking_id"))
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)

	var req updateBookingRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
		return
	}

	target, err := booking.ParseStatus(req.Status)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid booking status", err)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var res ports.BookingView
	switch {
	case claims.Role == user.RoleDriver && (target == booking.StatusAccepted || target == booking.StatusDeclined):
		res, err = handler.svc.Decide(ctxWithTimeout, bookingID, claims.Subject, target == booking.StatusAccepted)
	case claims.Role == user.RolePassenger && target == booking.StatusCancelled:
		res, err = handler.svc.Cancel(ctxWithTimeout, bookingID, claims.Subject)
	default:
		handler.httpError(ctx, w, http.StatusBadRequest,
			"drivers may set accepted/declined, passengers may set cancelled", errors.New("role/status mismatch"))
		return
	}
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
