package review

import (
	"errors"
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is directional feedback attached to a completed booking,
// corresponding to the `reviews` table. At most one review exists per
// (booking, reviewer, reviewee) triple; reviews are immutable once created.
type Review struct {
	ID         string
	CreatedAt  time.Time
	BookingID  string
	ReviewerID string
	RevieweeID string
	Rating     int
	Comment    string
}

const maxCommentLength = 2000

var (
	ErrBookingRequired  = errors.New("booking id is required")
	ErrReviewerRequired = errors.New("reviewer id is required")
	ErrRevieweeRequired = errors.New("reviewee id is required")
	ErrSelfReview       = errors.New("reviewer and reviewee cannot be the same user")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong   = errors.New("comment is too long")
)

// NewReview validates and constructs a review.
func NewReview(bookingID, reviewerID, revieweeID string, rating int, comment string, now time.Time) (*Review, error) {
	if bookingID = strings.TrimSpace(bookingID); bookingID == "" {
		return nil, ErrBookingRequired
	}
	if reviewerID = strings.TrimSpace(reviewerID); reviewerID == "" {
		return nil, ErrReviewerRequired
	}
	if revieweeID = strings.TrimSpace(revieweeID); revieweeID == "" {
		return nil, ErrRevieweeRequired
	}
	if reviewerID == revieweeID {
		return nil, ErrSelfReview
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrRatingOutOfRange
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	return &Review{
		CreatedAt:  now.UTC(),
		BookingID:  bookingID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    comment,
	}, nil
}
