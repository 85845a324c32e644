package postgres

import (
	"context"

	"campuspool/internal/domain/fault"
	"campuspool/internal/ports"
)

// VehicleRepo answers the ownership question the ride lifecycle needs.
// Vehicle CRUD lives outside the engine.
type VehicleRepo struct{}

// NewVehicleRepo constructs a new VehicleRepo.
func NewVehicleRepo() ports.VehicleRepository {
	return &VehicleRepo{}
}

// OwnedBy reports whether the vehicle exists and belongs to the given owner.
func (repo *VehicleRepo) OwnedBy(ctx context.Context, vehicleID, ownerID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var owned bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vehicles
			WHERE id = $1 AND owner_id = $2
		)
	`, vehicleID, ownerID).Scan(&owned)
	if err != nil {
		return false, fault.Wrap(fault.KindStore, "check vehicle ownership", err)
	}

	return owned, nil
}
