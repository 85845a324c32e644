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

type createRideRequest struct {
	VehicleID      string           `json:"vehicle_id"`
	Origin         string           `json:"origin"`
	Destination    string           `json:"destination"`
	OriginLat      *float64         `json:"origin_lat,omitempty"`
	OriginLng      *float64         `json:"origin_lng,omitempty"`
	DestinationLat *float64         `json:"destination_lat,omitempty"`
	DestinationLng *float64         `json:"destination_lng,omitempty"`
	DepartureAt    time.Time        `json:"departure_at"`
	PricePerSeat   float64          `json:"price_per_seat"`
	SeatsTotal     int              `json:"seats_total"`
	Preferences    ride.Preferences `json:"preferences"`
}

// ----- Handler: POST /rides -----

func (handler *RideHTTPHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	// limit body size
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// decode strictly
	var req createRideRequest
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

	// the driver is always the token subject
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	in := ports.CreateRideInput{
		DriverID:  strings.TrimSpace(claims.Subject),
		VehicleID: strings.TrimSpace(req.VehicleID),
		Route: ride.Route{
			Origin:         strings.TrimSpace(req.Origin),
			Destination:    strings.TrimSpace(req.Destination),
			OriginLat:      req.OriginLat,
			OriginLng:      req.OriginLng,
			DestinationLat: req.DestinationLat,
			DestinationLng: req.DestinationLng,
		},
		DepartureAt:  req.DepartureAt,
		PricePerSeat: req.PricePerSeat,
		SeatsTotal:   req.SeatsTotal,
		Preferences:  req.Preferences,
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.Create(ctxWithTimeout, in)
	if err != nil {
		handler.faultError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithRideID(ctxWithTimeout, res.RideID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}
