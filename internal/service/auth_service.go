package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// TokenType distinguishes the instructor session token from the
// attempt-scoped second-camera token.
type TokenType string

const (
	TokenTypeInstructor TokenType = "instructor"
	TokenTypeSecondCam  TokenType = "second_cam"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	Email     string    `json:"email,omitempty"`
}

// InstructorID parses the subject of an instructor token.
func (c *Claims) InstructorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// AuthService handles password hashing and token issuance.
type AuthService struct {
	cfg         *config.Config
	instructors InstructorStore
	now         func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, instructors InstructorStore) *AuthService {
	return &AuthService{cfg: cfg, instructors: instructors, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an instructor account and signs them in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.LoginResponse, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	in := &model.Instructor{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.instructors.Create(ctx, in); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create instructor: %w", err)
	}

	return s.issueLogin(in)
}

// Login verifies credentials and returns a signed instructor token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	in, err := s.instructors.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get instructor: %w", err)
	}
	if err := s.CheckPassword(in.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.issueLogin(in)
}

// Me returns the instructor behind a token.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*model.Instructor, error) {
	in, err := s.instructors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get instructor: %w", err)
	}
	return in, nil
}

func (s *AuthService) issueLogin(in *model.Instructor) (*model.LoginResponse, error) {
	token, err := s.GenerateInstructorToken(in.ID, in.Email)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Instructor: *in}, nil
}

// GenerateInstructorToken creates a JWT for an instructor session.
func (s *AuthService) GenerateInstructorToken(id uuid.UUID, email string) (string, error) {
	return s.sign(TokenTypeInstructor, id.String(), email, s.cfg.JWTExpiry)
}

// IssueSecondCamToken creates the companion-device credential for one attempt.
func (s *AuthService) IssueSecondCamToken(attemptID uuid.UUID) (string, error) {
	return s.sign(TokenTypeSecondCam, attemptID.String(), "", s.cfg.SecondCamExpiry)
}

// VerifySecondCamToken checks that token is a live second-camera credential
// whose subject is exactly attemptID.
func (s *AuthService) VerifySecondCamToken(token string, attemptID uuid.UUID) error {
	if token == "" {
		return ErrSecondCamToken
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return ErrSecondCamToken
	}
	if claims.TokenType != TokenTypeSecondCam || claims.Subject != attemptID.String() {
		return ErrSecondCamToken
	}
	return nil
}

func (s *AuthService) sign(typ TokenType, subject, email string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
		Email:     email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
