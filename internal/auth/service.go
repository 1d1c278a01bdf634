package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"smartsave/internal/core"
	"smartsave/internal/log"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidWhatsApp    = errors.New("invalid WhatsApp number format")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	UpdateWhatsAppNumber(ctx context.Context, userID, number string) error
}

// Service handles signup, login and session lookups.
type Service struct {
	users    UserStore
	sessions *Sessions
	logger   *log.Logger
}

func NewService(users UserStore, sessions *Sessions, logger *log.Logger) *Service {
	return &Service{users: users, sessions: sessions, logger: logger.WithComponent(log.ComponentAuth)}
}

// Sessions returns the session manager used to sign tokens.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Signup validates the input and creates a user with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, email, password, name string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return core.User{}, ErrMissingCredentials
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return core.User{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return core.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
	})
	if errors.Is(err, core.ErrAlreadyExists) {
		return core.User{}, ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User signed up", log.FieldUserID, user.ID)
	return user, nil
}

// Login checks credentials and returns the user with a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return core.User{}, "", ErrMissingCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Failed login", log.FieldUserID, user.ID)
		return core.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.sessions.Issue(user.ID)
	if err != nil {
		return core.User{}, "", err
	}
	s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, user.ID)
	return user, token, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	userID, err := s.sessions.Validate(token)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, ErrInvalidSession
	}
	return user, err
}

// UpdateWhatsApp stores a validated WhatsApp number. An empty number unlinks it.
func (s *Service) UpdateWhatsApp(ctx context.Context, userID, number string) error {
	number = strings.TrimSpace(number)
	if number != "" && !core.ValidWhatsAppNumber(number) {
		return ErrInvalidWhatsApp
	}
	if err := s.users.UpdateWhatsAppNumber(ctx, userID, number); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "WhatsApp number updated", log.FieldUserID, userID, "linked", number != "")
	return nil
}
