// Package accounts registers users, checks their passwords and issues the
// bearer tokens the HTTP layer authenticates with.
package accounts

import (
	"auction-house/internal/biddingerrors"
	"auction-house/internal/models"
	"auction-house/utils"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 150
	minPasswordLen = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input
	maxPasswordLen = 72
)

// UserStore is the part of the repository accounts need
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID   string
	Username string
}

// Registration holds the sign-up form
type Registration struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}

// Service handles registration, login and token validation
type Service struct {
	users      UserStore
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithClock overrides the clock used to stamp tokens
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(users UserStore, jwtSecret string, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		secret:     []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user. Usernames are unique regardless of case.
func (s *Service) Register(ctx context.Context, reg Registration) (models.User, error) {
	username := strings.TrimSpace(reg.Username)
	email := strings.TrimSpace(strings.ToLower(reg.Email))

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return models.User{}, biddingerrors.ErrInvalidUsername
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return models.User{}, fmt.Errorf("%w: invalid email", biddingerrors.ErrInvalidRequest)
		}
	}
	if reg.Password != reg.Confirmation {
		return models.User{}, biddingerrors.ErrPasswordMismatch
	}
	if len(reg.Password) < minPasswordLen {
		return models.User{}, biddingerrors.ErrWeakPassword
	}
	if len(reg.Password) > maxPasswordLen {
		return models.User{}, biddingerrors.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("accounts: create user %q: %w", username, err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.UserID, "username": username})
	return user, nil
}

// Login checks the credentials and returns a signed access token
func (s *Service) Login(ctx context.Context, username, password string) (string, models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, biddingerrors.ErrUserNotFound) {
			return "", models.User{}, biddingerrors.ErrInvalidCredentials
		}
		return "", models.User{}, fmt.Errorf("accounts: lookup %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, biddingerrors.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 access token for the user
func (s *Service) IssueToken(user models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.UserID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("accounts: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses an access token and returns its principal
func (s *Service) ValidateToken(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, biddingerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, biddingerrors.ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	if !utils.IsID(userID) {
		return Principal{}, biddingerrors.ErrInvalidToken
	}
	return Principal{UserID: userID, Username: username}, nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the principal
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}
