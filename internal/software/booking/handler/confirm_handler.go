package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"campuspool/internal/general/jwt"
	"campuspool/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type confirmBookingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ----- Handler: POST /bookings/{booking_id}/confirm -----

func (handler *BookingHTTPHandler) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	bookingID := strings.TrimSpace(r.PathValue("booking_id"))
	if bookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", errors.New("missing booking_id"))
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)

	var req confirmBookingRequest
	if !handler.decodeStrict(ctx, w, r, &req) {
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

	res, err := handler.svc.Confirm(ctxWithTimeout, ports.ConfirmBookingInput{
		BookingID: bookingID,
		ActorID:   claims.Subject,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
