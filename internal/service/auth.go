package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

var ( // Define custom errors
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Secret key for JWT signing (for demonstration purposes only, use a strong, secure key in production)
var jwtSecret = []byte("supersecretjwtkey")

// GetJWTSecret returns the JWT secret key.
func GetJWTSecret() []byte {
	return jwtSecret
}

const tokenLifetime = 24 * time.Hour

// TokenStore is where revoked tokens live until they expire. Satisfied by
// the Redis-backed cache in repository/redisrepo.
type TokenStore interface {
	Blacklist(token string, ttl time.Duration) error
	IsBlacklisted(token string) (bool, error)
}

type AuthService interface {
	Register(user *models.User, password string) (*models.User, error)
	Login(email, password string) (string, time.Time, error) // Returns JWT token, expiration time, and error
	Logout(tokenString string) error
}

type authService struct {
	repo   repository.UserRepository
	tokens TokenStore
	logger *zap.Logger
}

func NewAuthService(repo repository.UserRepository, tokens TokenStore, logger *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

func (s *authService) Register(user *models.User, password string) (*models.User, error) {
	existing, err := s.repo.GetByEmail(user.Email)
	if err != nil {
		s.logger.Error("Failed to check existing user", zap.Error(err))
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = passwordHash

	if err := s.repo.Create(user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(email, password string) (string, time.Time, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		s.logger.Error("Failed to get user by email", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return "", time.Time{}, ErrUserNotFound
	}

	if !verifyPassword(user.PasswordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(tokenLifetime)
	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in successfully.", zap.String("email", user.Email))

	return tokenString, expirationTime, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
// Tokens without an exp claim are rejected outright: there is nothing
// bounding how long they would sit in the blacklist.
func (s *authService) Logout(tokenString string) error {
	claims := &models.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.tokens.Blacklist(tokenString, ttl); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("User logged out successfully.", zap.String("email", claims.Email))
	return nil
}

// hashPassword uses Argon2 to hash the password.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, uint8(4), 32)

	// Store salt and hash together, e.g., $argon2id$v=19$m=65536,t=1,p=4$BASE64_SALT$BASE64_HASH
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, 64*1024, 1, 4, encodedSalt, encodedHash), nil
}

// verifyPassword compares a plaintext password with a hashed password.
func verifyPassword(hashedPassword, password string) bool {
	// Expected format: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	sections := strings.Split(strings.TrimPrefix(hashedPassword, "$"), "$")
	if len(sections) != 5 {
		return false
	}

	var version int
	fmt.Sscanf(sections[1], "v=%d", &version)

	var m, t, p uint32
	fmt.Sscanf(sections[2], "m=%d,t=%d,p=%d", &m, &t, &p)

	decodedSalt, err := base64.RawStdEncoding.DecodeString(sections[3])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false
	}

	comparisonHash := argon2.IDKey([]byte(password), decodedSalt, t, m, uint8(p), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(comparisonHash, decodedHash) == 1
}
