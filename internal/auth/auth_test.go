package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch out := d.(type) {
		case *string:
			*out = r.values[i].(string)
		case *time.Time:
			*out = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

// fakeQuerier answers session and user lookups from in-memory maps and
// records inserted session rows.
type fakeQuerier struct {
	users    map[string]string // email -> bcrypt hash
	sessions map[string]fakeSession
	inserted []string
}

type fakeSession struct {
	email     string
	expiresAt time.Time
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "FROM users") {
		hash, ok := f.users[args[0].(string)]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{hash}}
	}
	sess, ok := f.sessions[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: []any{sess.email, sess.expiresAt}}
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "INSERT INTO session_tokens") {
		if f.sessions == nil {
			f.sessions = map[string]fakeSession{}
		}
		f.sessions[args[0].(string)] = fakeSession{
			email:     args[1].(string),
			expiresAt: args[2].(time.Time),
		}
		f.inserted = append(f.inserted, args[0].(string))
	}
	return pgconn.CommandTag{}, nil
}

func TestExtractToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"api key header", map[string]string{"x-api-key": "  key-123  "}, "key-123"},
		{"bearer", map[string]string{"Authorization": "Bearer tok-1"}, "tok-1"},
		{"lowercase bearer", map[string]string{"Authorization": "bearer tok-2"}, "tok-2"},
		{"api key wins over bearer", map[string]string{"x-api-key": "key", "Authorization": "Bearer tok"}, "key"},
		{"basic auth ignored", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, ""},
		{"no headers", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := http.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := extractToken(r); got != tt.want {
				t.Fatalf("extractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthenticate_APIKey(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(&fakeQuerier{}, "backend-key")
	claims, err := a.Authenticate(context.Background(), "backend-key")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if claims.Subject != "backend" || !claims.IsAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(&fakeQuerier{}, "backend-key")
	if _, err := a.Authenticate(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticate_SessionToken(t *testing.T) {
	t.Parallel()

	db := &fakeQuerier{sessions: map[string]fakeSession{
		hashToken("live-token"): {email: "artist@example.com", expiresAt: time.Now().Add(time.Hour)},
	}}
	a := NewAuthenticator(db, "backend-key")

	claims, err := a.Authenticate(context.Background(), "live-token")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if claims.Subject != "artist@example.com" || claims.IsAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	t.Parallel()

	db := &fakeQuerier{sessions: map[string]fakeSession{
		hashToken("stale-token"): {email: "artist@example.com", expiresAt: time.Now().Add(-time.Minute)},
	}}
	a := NewAuthenticator(db, "backend-key")

	if _, err := a.Authenticate(context.Background(), "stale-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestMiddleware_ClaimsReachTheHandler(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(&fakeQuerier{}, "backend-key")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/upload", nil)
	req.Header.Set("x-api-key", "backend-key")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Claims
	var ok bool
	next := func(c echo.Context) error {
		got, ok = GetClaims(c)
		return nil
	}
	if err := a.Middleware(next)(c); err != nil {
		t.Fatalf("Middleware() error = %v", err)
	}
	if !ok {
		t.Fatal("GetClaims must find the claims set by the middleware")
	}
	if got.Subject != "backend" || !got.IsAdmin {
		t.Fatalf("claims = %+v", got)
	}
}

func TestMiddleware_RejectsMissingKey(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(&fakeQuerier{}, "backend-key")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/upload", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := a.Middleware(func(c echo.Context) error { return nil })(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if _, ok := GetClaims(c); ok {
		t.Fatal("no claims may be set for a rejected request")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	db := &fakeQuerier{users: map[string]string{"artist@example.com": string(hash)}}
	a := NewAuthenticator(db, "backend-key")

	token, err := a.Login(context.Background(), "  Artist@Example.com ", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}
	if len(db.inserted) != 1 || db.inserted[0] != hashToken(token) {
		t.Fatal("the session row must store the token hash, not the token")
	}

	// The freshly issued token authenticates.
	claims, err := a.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if claims.Subject != "artist@example.com" {
		t.Fatalf("Subject = %q", claims.Subject)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	db := &fakeQuerier{users: map[string]string{"artist@example.com": string(hash)}}
	a := NewAuthenticator(db, "backend-key")

	if _, err := a.Login(context.Background(), "artist@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(&fakeQuerier{}, "backend-key")
	if _, err := a.Login(context.Background(), "ghost@example.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
