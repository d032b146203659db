package services

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

// ErrReviewNotAllowed rejects reviews from passengers who never completed a
// trip on the schedule they are reviewing.
var ErrReviewNotAllowed = errors.New("only completed trips can be reviewed")

type ReviewService struct {
	store repository.Store
}

func NewReviewService(store repository.Store) *ReviewService {
	return &ReviewService{store: store}
}

func (s *ReviewService) CreateReview(ctx context.Context, actor users.Identity, review fleet.Review) (*fleet.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if _, err := s.store.Bus(ctx, review.BusID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown bus %d", ErrValidation, review.BusID)
		}
		return nil, err
	}
	if _, err := s.store.Schedule(ctx, review.ScheduleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown schedule %d", ErrValidation, review.ScheduleID)
		}
		return nil, err
	}

	mine, err := s.store.BookingsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	completed := false
	for _, b := range mine {
		if b.Booking.ScheduleID == review.ScheduleID && b.Status == bookings.StatusCompleted {
			completed = true
			break
		}
	}
	if !completed {
		return nil, ErrReviewNotAllowed
	}

	review.UserID = actor.UserID
	return s.store.CreateReview(ctx, review)
}

// ReviewsForBus lists a bus's reviews with the reviewers' display names.
func (s *ReviewService) ReviewsForBus(ctx context.Context, busID int64) ([]fleet.ReviewWithAuthor, error) {
	reviews, err := s.store.ReviewsByBus(ctx, busID)
	if err != nil {
		return nil, err
	}

	out := make([]fleet.ReviewWithAuthor, 0, len(reviews))
	for _, r := range reviews {
		author := "Anonymous"
		if user, err := s.store.User(ctx, r.UserID); err == nil {
			author = user.Name
		}
		out = append(out, fleet.ReviewWithAuthor{Review: r, Username: author})
	}
	return out, nil
}
