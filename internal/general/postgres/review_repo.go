package postgres

import (
	"context"
	"errors"

	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/review"
	"campuspool/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueReviewConstraint is the unique index on (booking_id, reviewer_id,
// reviewee_id); reviews are write-once per direction.
const uniqueReviewConstraint = "reviews_one_per_direction"

// ReviewRepo persists reviews using pgx and plain SQL.
type ReviewRepo struct{}

// NewReviewRepo constructs a new ReviewRepo.
func NewReviewRepo() ports.ReviewRepository {
	return &ReviewRepo{}
}

// Create inserts a review row. A duplicate (booking, reviewer, reviewee)
// triple surfaces as NotEligible: the direction has already been reviewed.
func (repo *ReviewRepo) Create(ctx context.Context, r *review.Review) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (booking_id, reviewer_id, reviewee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		r.BookingID, r.ReviewerID, r.RevieweeID, r.Rating, r.Comment,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == uniqueReviewConstraint {
			return fault.New(fault.KindNotEligible, "this direction has already been reviewed")
		}
		return fault.Wrap(fault.KindStore, "insert review", err)
	}

	return nil
}

// Exists reports whether a review already exists for the exact triple.
func (repo *ReviewRepo) Exists(ctx context.Context, bookingID, reviewerID, revieweeID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE booking_id = $1
			  AND reviewer_id = $2
			  AND reviewee_id = $3
		)
	`, bookingID, reviewerID, revieweeID).Scan(&exists)
	if err != nil {
		return false, fault.Wrap(fault.KindStore, "check review existence", err)
	}

	return exists, nil
}
