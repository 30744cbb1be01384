package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

const duplicateReviewMessage = "You have already reviewed this title."

type ReviewService interface {
	List(ctx context.Context, titleID int64, page repository.Page) (*dto.PaginatedResponse[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, p *permission.Principal, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, p *permission.Principal, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, p *permission.Principal, titleID, reviewID int64) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  *repository.TitleRepo
	ratings    RatingService
	logger     *slog.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo *repository.TitleRepo,
	ratings RatingService,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		ratings:    ratings,
		logger:     logger,
	}
}

func checkScore(score int) error {
	if score < models.MinScore || score > models.MaxScore {
		return NewFieldError("score", fmt.Sprintf("Score must be between %d and %d.", models.MinScore, models.MaxScore))
	}
	return nil
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTitleNotFound
	}
	return nil
}

// List returns the reviews of a title, newest first
func (s *reviewService) List(ctx context.Context, titleID int64, page repository.Page) (*dto.PaginatedResponse[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	reviews, total, err := s.reviewRepo.GetByTitle(ctx, titleID, page)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, *dto.FromModelToReviewResponse(&reviews[i]))
	}
	return dto.NewPaginatedResponse(out, total, page.Number, page.Size), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return dto.FromModelToReviewResponse(review), nil
}

// Create adds the caller's review; one review per author and title
func (s *reviewService) Create(ctx context.Context, p *permission.Principal, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if err := authorizeWrite(p, http.MethodPost, ""); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := checkScore(req.Score); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsForAuthor(ctx, titleID, p.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewFieldError(NonFieldErrors, duplicateReviewMessage)
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: p.UserID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// lost the race against a concurrent create
		if repository.IsDuplicateKey(err) {
			return nil, NewFieldError(NonFieldErrors, duplicateReviewMessage)
		}
		return nil, err
	}
	s.ratings.Invalidate(ctx, titleID)
	s.logger.InfoContext(ctx, "review_created", "title_id", titleID, "review_id", review.ID, "author", p.Username)

	return s.Get(ctx, titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, p *permission.Principal, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	if err := authorizeWrite(p, http.MethodPatch, review.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		if err := checkScore(*req.Score); err != nil {
			return nil, err
		}
		review.Score = *req.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	s.ratings.Invalidate(ctx, titleID)

	return s.Get(ctx, titleID, reviewID)
}

func (s *reviewService) Delete(ctx context.Context, p *permission.Principal, titleID, reviewID int64) error {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return notFound(err, ErrReviewNotFound)
	}
	if err := authorizeWrite(p, http.MethodDelete, review.AuthorID); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, titleID, reviewID); err != nil {
		return notFound(err, ErrReviewNotFound)
	}
	s.ratings.Invalidate(ctx, titleID)
	s.logger.InfoContext(ctx, "review_deleted", "title_id", titleID, "review_id", reviewID, "by", p.Username)
	return nil
}
