package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/mail"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
)

const confirmationSubject = "YaMDb confirmation code"

// Claims are the access token claims.
type Claims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SignUp(ctx context.Context, username, email string) (*models.User, error)
	ObtainToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	Authenticate(ctx context.Context, tokenString string) (*models.User, error)
}

type authService struct {
	userRepo       repository.UserRepository
	mailer         mail.Mailer
	mailFrom       string
	jwtSecret      string
	accessTokenTTL time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		mailer:         mailer,
		mailFrom:       cfg.MailFrom,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// SignUp registers a new (username, email) pair or, if that exact pair is
// already registered, issues a fresh code. Either way the code is mailed.
func (s *authService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	if username == models.ReservedUsername {
		return nil, NewFieldError("username", fmt.Sprintf("Username %q is reserved.", models.ReservedUsername))
	}

	byName, err := s.findOptional(ctx, s.userRepo.FindByUsername, username)
	if err != nil {
		return nil, err
	}
	byEmail, err := s.findOptional(ctx, s.userRepo.FindByEmail, email)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if byName != nil && (byEmail == nil || byEmail.ID != byName.ID) {
		verr.Add("username", "A user with that username already exists.")
	}
	if byEmail != nil && (byName == nil || byEmail.ID != byName.ID) {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	code := auth.NewConfirmationCode()
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}

	user := byName
	if user == nil {
		user = &models.User{
			Username:         username,
			Email:            email,
			Role:             models.RoleUser,
			ConfirmationCode: &hash,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if repository.IsDuplicateKey(err) {
				return nil, NewFieldError(NonFieldErrors, "A user with that username or email already exists.")
			}
			return nil, err
		}
	} else {
		if err := s.userRepo.SetConfirmationCode(ctx, user.ID, &hash); err != nil {
			return nil, err
		}
		user.ConfirmationCode = &hash
	}

	body := fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n", user.Username, code)
	if err := s.mailer.Send(ctx, confirmationSubject, body, s.mailFrom, []string{user.Email}); err != nil {
		s.logger.ErrorContext(ctx, "signup_mail_failed", "username", user.Username, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	s.logger.InfoContext(ctx, "signup_code_sent", "username", user.Username)
	return user, nil
}

// ObtainToken exchanges a confirmation code for an access token. A code is
// redeemable once.
func (s *authService) ObtainToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if user.ConfirmationCode == nil {
		return "", ErrInvalidConfirmationCode
	}
	if err := auth.VerifyCode(*user.ConfirmationCode, code); err != nil {
		s.logger.WarnContext(ctx, "token_code_mismatch", "username", username)
		return "", ErrInvalidConfirmationCode
	}

	consumed, err := s.userRepo.ConsumeConfirmationCode(ctx, user.ID, *user.ConfirmationCode)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrInvalidConfirmationCode
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	s.logger.InfoContext(ctx, "token_issued", "username", user.Username)
	return token, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates the token and loads its user, so role changes
// and deletions take effect before the token expires.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) findOptional(
	ctx context.Context,
	find func(context.Context, string) (*models.User, error),
	key string,
) (*models.User, error) {
	user, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}
