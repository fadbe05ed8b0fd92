package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for password hashes
	BcryptCost = 10

	// DefaultAccessTokenExpiration applies when no expiry is configured
	DefaultAccessTokenExpiration = 12 * time.Hour
)

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Message: "invalid token"}
)

// RegisterInput describes a new shop account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserService handles shop accounts and access tokens
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken string, user *domain.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	EnsureAdmin(ctx context.Context, input RegisterInput) (created bool, err error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
	logger      *zap.Logger
}

// NewUserService creates a new instance of UserService. A non-positive
// tokenExpiry falls back to DefaultAccessTokenExpiration.
func NewUserService(
	userRepo repository.UserRepository,
	jwtSecret string,
	tokenExpiry time.Duration,
	logger *zap.Logger,
) UserService {
	if tokenExpiry <= 0 {
		tokenExpiry = DefaultAccessTokenExpiration
	}
	return &userService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// Register creates a new account with a hashed password. Role defaults to
// staff.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := input.Role
	if role == "" {
		role = domain.RoleStaff
	}
	if role != domain.RoleAdmin && role != domain.RoleStaff {
		return nil, validation("unknown role %q", role)
	}

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, &Error{Kind: KindConflict, Message: "user with this email already exists"}
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, internal("failed to check existing user", err)
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, &Error{Kind: KindConflict, Message: "user with this email already exists", Err: err}
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, internal("failed to create user", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return user, nil
}

// Login authenticates a user and returns a signed access token
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, internal("failed to find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, internal("failed to generate access token", err)
	}

	return accessToken, user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid token", Err: err}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("user not found")
		}
		return nil, internal("failed to get user", err)
	}
	return user, nil
}

// EnsureAdmin creates the owner account unless an account with that email
// already exists. The existing account is left untouched.
func (s *userService) EnsureAdmin(ctx context.Context, input RegisterInput) (bool, error) {
	input.Role = domain.RoleAdmin
	_, err := s.Register(ctx, input)
	if err == nil {
		return true, nil
	}

	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind == KindConflict {
		return false, nil
	}
	return false, err
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
