package service

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// UserService backs the admin user management endpoints and /users/me.
type UserService interface {
	List(ctx context.Context, p *permission.Principal, search string, page repository.Page) (*dto.PaginatedResponse[dto.UserResponse], error)
	Create(ctx context.Context, p *permission.Principal, req dto.CreateUserDTO) (*dto.UserResponse, error)
	Get(ctx context.Context, p *permission.Principal, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, p *permission.Principal, username string, req dto.UpdateUserDTO) (*dto.UserResponse, error)
	Delete(ctx context.Context, p *permission.Principal, username string) error
	Me(ctx context.Context, p *permission.Principal) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, p *permission.Principal, req dto.UpdateUserDTO) (*dto.UserResponse, error)
}

type userService struct {
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	ratings    RatingService
	logger     *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
	ratings RatingService,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:   userRepo,
		reviewRepo: reviewRepo,
		ratings:    ratings,
		logger:     logger,
	}
}

func (s *userService) List(ctx context.Context, p *permission.Principal, search string, page repository.Page) (*dto.PaginatedResponse[dto.UserResponse], error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	users, total, err := s.userRepo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.FromModelToUserResponse(&users[i]))
	}
	return dto.NewPaginatedResponse(out, total, page.Number, page.Size), nil
}

func (s *userService) Create(ctx context.Context, p *permission.Principal, req dto.CreateUserDTO) (*dto.UserResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.checkUnique(ctx, user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewFieldError(NonFieldErrors, "A user with that username or email already exists.")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "user_created", "username", user.Username, "role", user.Role, "by", p.Username)
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, p *permission.Principal, username string) (*dto.UserResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, p *permission.Principal, username string, req dto.UpdateUserDTO) (*dto.UserResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	return s.update(ctx, username, req, true)
}

func (s *userService) Delete(ctx context.Context, p *permission.Principal, username string) error {
	if err := authorizeAdmin(p); err != nil {
		return err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	// the user's reviews cascade, so their titles' ratings change
	titleIDs, err := s.reviewRepo.TitleIDsByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	for _, id := range titleIDs {
		s.ratings.Invalidate(ctx, id)
	}
	s.logger.InfoContext(ctx, "user_deleted", "username", username, "reviews", len(titleIDs), "by", p.Username)
	return nil
}

func (s *userService) Me(ctx context.Context, p *permission.Principal) (*dto.UserResponse, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// UpdateMe edits the caller's own profile; role stays read-only here.
func (s *userService) UpdateMe(ctx context.Context, p *permission.Principal, req dto.UpdateUserDTO) (*dto.UserResponse, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return s.update(ctx, p.Username, req, false)
}

func (s *userService) update(ctx context.Context, username string, req dto.UpdateUserDTO, allowRole bool) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	req.ApplyTo(user, allowRole)
	if user.Username == models.ReservedUsername {
		return nil, NewFieldError("username", "Username \"me\" is reserved.")
	}
	if err := s.checkUnique(ctx, user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewFieldError(NonFieldErrors, "A user with that username or email already exists.")
		}
		return nil, err
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// checkUnique reports username/email clashes with users other than u.
func (s *userService) checkUnique(ctx context.Context, u *models.User) error {
	verr := &ValidationError{}
	if other, err := s.userRepo.FindByUsername(ctx, u.Username); err == nil && other.ID != u.ID {
		verr.Add("username", "A user with that username already exists.")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if other, err := s.userRepo.FindByEmail(ctx, u.Email); err == nil && other.ID != u.ID {
		verr.Add("email", "A user with that email already exists.")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return verr.OrNil()
}
