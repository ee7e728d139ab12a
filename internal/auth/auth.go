package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// SessionTTL bounds how long a login token stays valid.
const SessionTTL = 24 * time.Hour

type Claims struct {
	Subject string
	IsAdmin bool
}

const claimsContextKey = "auth_claims"

// Querier is the slice of pgxpool.Pool the authenticator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Authenticator struct {
	db     Querier
	apiKey string
	now    func() time.Time
}

func NewAuthenticator(db Querier, apiKey string) *Authenticator {
	return &Authenticator{
		db:     db,
		apiKey: apiKey,
		now:    time.Now,
	}
}

func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing API key")
		}

		claims, err := a.Authenticate(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid API key")
		}
		c.Set(claimsContextKey, claims)

		return next(c)
	}
}

// Authenticate accepts either the configured backend API key or a session
// token issued by Login. The API key comparison is constant time.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Claims, error) {
	if a.apiKey != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(a.apiKey)) == 1 {
		return Claims{Subject: "backend", IsAdmin: true}, nil
	}

	var email string
	var expiresAt time.Time
	err := a.db.QueryRow(ctx, `
		SELECT user_email, expires_at
		FROM session_tokens
		WHERE token_hash = $1
	`, hashToken(token)).Scan(&email, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claims{}, ErrInvalidToken
		}
		return Claims{}, err
	}
	if a.now().After(expiresAt) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{Subject: email}, nil
}

// Login checks the password against the stored bcrypt hash and issues an
// opaque session token. Only the token's sha256 hash is stored.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	var passwordHash string
	err := a.db.QueryRow(ctx, `
		SELECT password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(&passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	_, err = a.db.Exec(ctx, `
		INSERT INTO session_tokens (token_hash, user_email, expires_at)
		VALUES ($1, $2, $3)
	`, hashToken(token), email, a.now().Add(SessionTTL))
	if err != nil {
		return "", err
	}

	return token, nil
}

func GetClaims(c echo.Context) (Claims, bool) {
	raw := c.Get(claimsContextKey)
	if raw == nil {
		return Claims{}, false
	}
	claims, ok := raw.(Claims)
	return claims, ok
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func extractToken(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("x-api-key")); key != "" {
		return key
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
