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

type ratePassengerRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ----- Handler: POST /bookings/{booking_id}/rate-passenger -----

// handleRatePassenger submits the driver's directional review of the
// passenger. Eligibility runs through the same review gate as every review.
func (handler *BookingHTTPHandler) handleRatePassenger(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	bookingID := strings.TrimSpace(r.PathValue("booking_id"))
	if bookingID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", errors.New("missing booking_id"))
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)

	var req ratePassengerRequest
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

	// the reviewee is the booking's passenger
	b, err := handler.svc.Get(ctxWithTimeout, bookingID)
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	res, err := handler.reviewSvc.Submit(ctxWithTimeout, ports.SubmitReviewInput{
		BookingID:  bookingID,
		ReviewerID: claims.Subject,
		RevieweeID: b.PassengerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
