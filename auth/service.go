package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"property-recommender/models"
	"property-recommender/utils"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrUserExists         = errors.New("auth: username already taken")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidInput       = errors.New("auth: invalid input")
)

// UserRepository stores accounts. GetByUsername returns ErrUserNotFound for
// unknown names and Create returns ErrUserExists for taken ones.
type UserRepository interface {
	Create(ctx context.Context, username string, passwordHash []byte) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Credentials is the signup/login payload.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service registers users and verifies their passwords. Passwords are only
// ever stored as bcrypt hashes.
type Service struct {
	repo     UserRepository
	tokens   *TokenManager
	validate *validator.Validate
	logger   *utils.Logger
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService builds the authentication service.
func NewService(repo UserRepository, tokens *TokenManager, logger *utils.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Tokens returns the token manager sessions are issued with.
func (s *Service) Tokens() *TokenManager { return s.tokens }

func (s *Service) check(c Credentials) (Credentials, error) {
	c.Username = strings.TrimSpace(c.Username)
	if err := s.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return c, fmt.Errorf("%w: %s failed %q", ErrInvalidInput, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return c, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return c, nil
}

// Register creates an account for c.
func (s *Service) Register(ctx context.Context, c Credentials) (*models.User, error) {
	c, err := s.check(c)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, c.Username, hash)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[auth] Registered user %q (id %d)", user.Username, user.ID)
	return user, nil
}

// Login checks c and issues a session for the matching user.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, c Credentials) (*Session, error) {
	c, err := s.check(c)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, c.Username)
	if errors.Is(err, ErrUserNotFound) {
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(c.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(c.Password)); err != nil {
		s.logger.Debug("[auth] Failed login for %q", c.Username)
		return nil, ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}

// Logout revokes the session until it would have expired anyway.
func (s *Service) Logout(sess *Session) {
	s.tokens.Revoke(sess)
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
