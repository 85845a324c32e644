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

// ----- Handler: POST /rides/{ride_id}/book -----

func (handler *BookingHTTPHandler) handleRequestBooking(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", errors.New("missing ride_id"))
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.Request(ctxWithTimeout, ports.RequestBookingInput{
		RideID:      rideID,
		PassengerID: claims.Subject,
	})
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithBookingID(ctxWithTimeout, res.BookingID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
