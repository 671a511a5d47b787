package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskmind/internal/models"
)

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Event describes an auth-state change delivered to subscribers: the user
// that signed in, or the user whose session ended.
type Event struct {
	User     models.User
	SignedIn bool
}

// Claims are the JWT payload for a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens and notifies subscribers about
// sign-in and sign-out transitions.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[int]func(Event)
	nextSubID   int
}

// New builds the auth service. The secret signs session tokens; ttl bounds
// their lifetime.
func New(secret string, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		secret:      []byte(secret),
		ttl:         ttl,
		logger:      logger,
		subscribers: make(map[int]func(Event)),
	}
}

// Login signs the user in and returns the user plus a session token. The
// user id is derived deterministically from the email so the same account
// always maps to the same owner id.
func (s *Service) Login(email string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, "", fmt.Errorf("invalid email address")
	}

	user := models.User{
		ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(email)).String(),
		Email: email,
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.User{}, "", fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("user signed in", slog.String("user", user.ID))
	s.notify(Event{User: user, SignedIn: true})
	return user, token, nil
}

// Verify parses a session token and returns the user it belongs to.
func (s *Service) Verify(token string) (models.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.User{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return models.User{}, ErrInvalidToken
	}
	return models.User{ID: claims.Subject, Email: claims.Email}, nil
}

// Logout ends the user's session and notifies subscribers.
func (s *Service) Logout(user models.User) {
	s.logger.Info("user signed out", slog.String("user", user.ID))
	s.notify(Event{User: user, SignedIn: false})
}

// Subscribe registers a callback for auth-state changes and returns the
// function that removes it again.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
