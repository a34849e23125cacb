package services

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// CreateReviewInput carries a new review. Rating, when set, is 1-5.
type CreateReviewInput struct {
	RunID  string  `json:"run_id"`
	Rating *int    `json:"rating,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// ReviewService owns the append-only review log.
type ReviewService struct {
	reviews repositories.ReviewRepository
	runs    repositories.RunRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviews repositories.ReviewRepository, runs repositories.RunRepository) *ReviewService {
	return &ReviewService{reviews: reviews, runs: runs}
}

// Create appends a review for an existing run.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.RunID == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "run_id is required")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, apperrors.Validation(apperrors.CodeBadRequest,
			fmt.Sprintf("rating must be between 1 and 5, got %d", *in.Rating))
	}
	if _, err := s.runs.GetRun(ctx, in.RunID); err != nil {
		return nil, err
	}

	rev := &models.Review{RunID: in.RunID, Rating: in.Rating, Notes: in.Notes}
	if err := s.reviews.Insert(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// ListByRun returns a run's reviews, newest first.
func (s *ReviewService) ListByRun(ctx context.Context, runID string) ([]models.Review, error) {
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.reviews.ListByRun(ctx, runID)
}
