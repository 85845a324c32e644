package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /bookings/{booking_id} -----

func (handler *BookingHTTPHandler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	bookingID := strings.TrimSpace(r.PathValue("booking_id"))
	if bookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", errors.New("missing booking_id"))
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.Get(ctxWithTimeout, bookingID)
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
