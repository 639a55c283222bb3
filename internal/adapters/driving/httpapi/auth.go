package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// DemoSubject is the subject of tokens issued without an explicit one.
const DemoSubject = "demo-user"

type principalKey struct{}

// Authenticator issues and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an authenticator from server settings.
// An empty secret disables it: every verification fails with domain.ErrAuthRequired.
func NewAuthenticator(settings domain.ServerSettings) *Authenticator {
	ttl := settings.TokenTTL
	if ttl <= 0 {
		ttl = domain.DefaultAppSettings().Server.TokenTTL
	}
	return &Authenticator{
		secret: []byte(settings.JWTSecret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled returns true if a signing secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Issue signs a token for subject. It returns the token and its expiry.
func (a *Authenticator) Issue(subject string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, fmt.Errorf("%w: no signing secret configured", domain.ErrAuthRequired)
	}
	if strings.TrimSpace(subject) == "" {
		subject = DemoSubject
	}

	now := a.now()
	expires := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	if !a.Enabled() {
		return "", domain.ErrAuthRequired
	}
	if tokenString == "" {
		return "", domain.ErrAuthRequired
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrAuthInvalid)
	}
	return subject, nil
}

// Middleware rejects requests without a valid bearer token and attaches the
// principal to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := a.Verify(bearerToken(r))
		if err != nil {
			logger.Debug("Rejected %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="docqa"`)
			msg := "Invalid or expired token"
			if errors.Is(err, domain.ErrAuthRequired) {
				msg = "Authentication required"
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), subject)))
	})
}

// WithPrincipal attaches an authenticated subject to ctx.
func WithPrincipal(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, principalKey{}, subject)
}

// PrincipalFromContext returns the authenticated subject, if any.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(principalKey{}).(string)
	return subject, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
