package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spenny/internal/auth"
	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// Token is the result of a successful register or login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserService registers users, signs them in and reads profiles.
type UserService struct {
	users     store.UserStore
	tokens    *auth.Tokens
	passwords auth.Passwords
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserService(users store.UserStore, tokens *auth.Tokens, passwords auth.Passwords, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger.With(spennylog.FieldComponent, spennylog.ComponentAuth),
		now:       time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, in core.Registration) (Token, error) {
	if err := in.Validate(); err != nil {
		return Token{}, invalid(err)
	}
	email := core.NormalizeEmail(in.Email)

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return Token{}, core.Rejected("Email already registered")
	case !errors.Is(err, store.ErrNotFound):
		return Token{}, store.Classify(err, core.ResourceUser)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return Token{}, core.Internal(err)
	}
	u, err := s.users.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, store.ErrConflict) {
		return Token{}, core.Rejected("Email already registered")
	}
	if err != nil {
		return Token{}, store.Classify(err, core.ResourceUser)
	}

	s.logger.InfoContext(ctx, "User registered", spennylog.FieldUserID, u.ID, spennylog.FieldOperation, spennylog.OpRegister)
	return s.issue(u.ID)
}

// Login never says which of email or password was wrong.
func (s *UserService) Login(ctx context.Context, in core.Credentials) (Token, error) {
	failed := core.Unauthenticated("Incorrect email or password")
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return Token{}, failed
	}
	u, err := s.users.GetUserByEmail(ctx, core.NormalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return Token{}, failed
	}
	if err != nil {
		return Token{}, store.Classify(err, core.ResourceUser)
	}
	if !s.passwords.Matches(u.PasswordHash, in.Password) {
		s.logger.WarnContext(ctx, "Login failed", spennylog.FieldUserID, u.ID, spennylog.FieldOperation, spennylog.OpLogin)
		return Token{}, failed
	}
	return s.issue(u.ID)
}

// Get returns a profile. Only the caller's own profile is visible.
func (s *UserService) Get(ctx context.Context, callerID, id string) (core.User, error) {
	if id != callerID {
		return core.User{}, core.NotFound(core.ResourceUser)
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return core.User{}, store.Classify(err, core.ResourceUser)
	}
	return u, nil
}

func (s *UserService) issue(userID string) (Token, error) {
	raw, err := s.tokens.Issue(userID)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: raw, TokenType: auth.TokenType}, nil
}
