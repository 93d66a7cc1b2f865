// internal/auth/auth.go
//
// Accounts and authentication.
// Responsibilities:
//   - Signup/login against the users table with bcrypt password hashes.
//   - HS256 JWTs carried in an HttpOnly cookie or an Authorization: Bearer header.
//   - Middleware: Optional (decorates the request when a valid token is present)
//     and Required (401 otherwise).
//   - Anonymous player IDs for guests, kept in a long-lived cookie.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

const anonCookieName = "wordsearch_anon"

// Config controls token lifetime and cookie attributes.
type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool // production: Secure + SameSite=None
}

// User is a row of the users table.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	PuzzlesSolved int       `json:"puzzlesSolved"`
}

// Service implements accounts on top of a migrated database.
type Service struct {
	db  *sql.DB
	cfg Config
}

// NewService applies defaults to cfg and returns a Service.
func NewService(db *sql.DB, cfg Config) *Service {
	if cfg.Secret == "" {
		cfg.Secret = "dev_secret_change_me"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "wordsearch_token"
	}
	return &Service{db: db, cfg: cfg}
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// CreateUser validates input, checks uniqueness and inserts a new user.
func (s *Service) CreateUser(ctx context.Context, username, pw string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	if _, err := s.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, puzzles_solved
		 FROM users WHERE lower(username)=lower(?)`, username))
}

func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, puzzles_solved
		 FROM users WHERE id=?`, id))
}

// RecordSolve bumps the user's solved counter.
func (s *Service) RecordSolve(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET puzzles_solved = puzzles_solved + 1 WHERE id=?`, userID)
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.PuzzlesSolved); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// ------------------------------ tokens -------------------------------------

// SignToken creates a JWT for the user and returns it with its expiry.
func (s *Service) SignToken(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.Secret))
	return ss, exp, err
}

// ParseToken validates a token and returns the user ID it names.
func (s *Service) ParseToken(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: token has no id", ErrUnauthorized)
	}
	return id, nil
}

// ------------------------------ cookies ------------------------------------

func (s *Service) sameSite() http.SameSite {
	if s.cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// TokenFromRequest extracts a bearer token or the auth cookie value.
func (s *Service) TokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// AnonID returns the anonymous ID the request carries, or "".
func AnonID(r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil {
		return c.Value
	}
	return ""
}

// EnsureAnonID returns the guest's anonymous ID, issuing a cookie if needed.
func (s *Service) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id := AnonID(r); id != "" {
		return id
	}
	id := "anon-" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
