package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kanbanlab/kanban-app/database"
)

// ErrInvalidCredentials is returned for both an unknown email and a
// wrong password, so callers cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService registers and authenticates users and manages their
// sessions. Session ids are opaque random tokens held server-side; on
// the wire they travel inside a signed JWT cookie.
type AuthService struct {
	store      database.Store
	jwtSecret  []byte
	cookieName string
	sessionTTL time.Duration
	bcryptCost int

	// now is swappable for expiry tests.
	now func() time.Time
}

type AuthConfig struct {
	JWTSecret  string
	CookieName string
	SessionTTL time.Duration
	BcryptCost int
}

func NewAuthService(store database.Store, cfg AuthConfig) *AuthService {
	if cfg.CookieName == "" {
		cfg.CookieName = "kanban_session"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(cfg.JWTSecret),
		cookieName: cfg.CookieName,
		sessionTTL: cfg.SessionTTL,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a user. The raw password is hashed before it ever
// reaches the store and is never logged.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (database.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return database.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, database.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		return database.User{}, err
	}
	return user, nil
}

// Login checks the credentials and opens a new session with a fixed TTL.
// Unknown email and wrong password produce the identical error.
func (s *AuthService) Login(ctx context.Context, email, password string) (database.User, database.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.User{}, database.Session{}, ErrInvalidCredentials
		}
		return database.User{}, database.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return database.User{}, database.Session{}, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return database.User{}, database.Session{}, err
	}
	return user, session, nil
}

// OpenSession issues a session directly, used right after registration
// so the new user is logged in without a second round trip.
func (s *AuthService) OpenSession(ctx context.Context, userID string) (database.Session, error) {
	return s.openSession(ctx, userID)
}

func (s *AuthService) openSession(ctx context.Context, userID string) (database.Session, error) {
	id, err := generateSecureToken(32)
	if err != nil {
		return database.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := database.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.sessionTTL).UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return database.Session{}, err
	}
	return session, nil
}

// UserBySession resolves a session id to its user. An expired session
// is deleted on sight (lazy eviction) and reported as not found.
func (s *AuthService) UserBySession(ctx context.Context, sessionID string) (database.User, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return database.User{}, err
	}

	if session.ExpiresAt.Before(s.now()) {
		if err := s.store.DeleteSession(ctx, sessionID); err != nil {
			return database.User{}, err
		}
		return database.User{}, database.ErrNotFound
	}

	return s.store.GetUser(ctx, session.UserID)
}

// Logout deletes the session; a missing id is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch database.UserPatch) (database.User, error) {
	return s.store.UpdateUser(ctx, userID, patch)
}

// SweepExpiredSessions removes every expired session. Lazy eviction
// already keeps lookups correct; this is periodic hygiene.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) error {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

// IssueCookie wraps the session id in a signed JWT cookie.
func (s *AuthService) IssueCookie(session database.Session) (*http.Cookie, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": session.ID,
		"exp": session.ExpiresAt.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie returns an expired cookie that removes the session cookie
// from the client.
func (s *AuthService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionIDFromRequest verifies the signed cookie and extracts the
// session id. It does not consult the store; callers still resolve the
// id through UserBySession.
func (s *AuthService) SessionIDFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	sid, ok := claims["sid"].(string)
	if !ok || strings.TrimSpace(sid) == "" {
		return "", ErrInvalidCredentials
	}
	return sid, nil
}

// Helper to generate a secure random token.
func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
