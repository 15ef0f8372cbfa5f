package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/config"
	"github.com/mrlokans/rustypages/internal/database/users"
	"github.com/mrlokans/rustypages/internal/entities"
)

// Validation patterns
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{3,64}$`)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("username already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrAuthRequired     = errors.New("authentication required")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters of letters, digits and _.@-")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	CreateUser(username, passwordHash string) (*entities.User, error)
	GetUserByID(id uint) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	RecordFailedLogin(user *entities.User, lockedUntil *time.Time) error
	RecordSuccessfulLogin(user *entities.User, at time.Time) error
}

// Service handles authentication and user management.
type Service struct {
	users  UserRepository
	tokens TokenIssuer
	config config.Auth
	log    *zap.Logger
}

// NewService creates a new authentication service. An empty JWT secret in cfg
// is replaced by a random one, which invalidates tokens on restart.
func NewService(repo UserRepository, cfg config.Auth, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = generated
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive restarts")
	}
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 30 * 24 * time.Hour
	}

	return &Service{
		users:  repo,
		tokens: TokenIssuer{Secret: []byte(secret), TTL: cfg.TokenExpiry},
		config: cfg,
		log:    log,
	}, nil
}

// Register creates a new user with password authentication.
func (s *Service) Register(username, password string) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	// Check if user already exists
	_, err := s.users.GetUserByUsername(username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// Login validates credentials and issues a token.
func (s *Service) Login(username, password string) (string, *entities.User, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return "", nil, err
	}

	token, _, err := s.tokens.NewToken(user.ID, user.Username, time.Now().UTC())
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Check if account is locked
	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user)
		return nil, err
	}

	if err := s.users.RecordSuccessfulLogin(user, time.Now()); err != nil {
		s.log.Warn("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	var lockedUntil *time.Time
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		until := time.Now().Add(lockoutDuration)
		lockedUntil = &until
		s.log.Warn("account locked", zap.Uint("user_id", user.ID), zap.Time("locked_until", until))
	}

	if err := s.users.RecordFailedLogin(user, lockedUntil); err != nil {
		s.log.Warn("failed to record failed login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// ValidateToken checks a token and returns the user id it was issued for.
func (s *Service) ValidateToken(token string) (uint, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// IssueToken signs a token for an existing user.
func (s *Service) IssueToken(user *entities.User) (string, error) {
	token, _, err := s.tokens.NewToken(user.ID, user.Username, time.Now().UTC())
	return token, err
}
