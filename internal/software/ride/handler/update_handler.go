package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"campuspool/internal/domain/ride"
	"campuspool/internal/general/jwt"
	"campuspool/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type updateRideRequest struct {
	Status string `json:"status"` // cancelled | completed
}

// ----- Handler: PATCH /rides/{ride_id} -----

func (handler *RideHTTPHandler) handleUpdateRideStatus(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	// limit the body size
	r.Body = http.MaxBytesReader(w, r.Body, 256<<10) // 256 KiB
	defer r.Body.Close()

	// fetch and check the ride id
	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", errors.New("missing ride_id"))
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	// decode strictly
	var req updateRideRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	target, err := ride.ParseStatus(req.Status)
	if err != nil || target == ride.StatusUpcoming {
		handler.httpError(ctx, w, http.StatusBadRequest, "status must be cancelled or completed", errors.New("invalid target status"))
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

	var res ports.RideView
	switch target {
	case ride.StatusCancelled:
		res, err = handler.svc.Cancel(ctxWithTimeout, rideID, claims.Subject)
	case ride.StatusCompleted:
		res, err = handler.svc.MarkCompleted(ctxWithTimeout, rideID, claims.Subject)
	}
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
