package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const participantKey contextKey = "participantID"

// Claims are the bearer-token claims the core understands: the subject is the
// participant id, Admin gates the observer/review surface. Token issuance
// belongs to the registration subsystem; here we only verify.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// SignToken mints a token for a participant; used by tests and ops tooling.
func SignToken(secret, participantID string, admin bool, ttl time.Duration) (string, error) {
	claims := &Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (a *Authenticator) parse(r *http.Request) (*Claims, error) {
	raw := ""
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimPrefix(header, "Bearer ")
	} else if token := r.URL.Query().Get("token"); token != "" {
		// Websocket clients cannot set headers from the browser API.
		raw = token
	}
	if raw == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireParticipant authenticates the request and rejects admin tokens:
// mutating session calls must come from the owning participant.
func (a *Authenticator) RequireParticipant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if claims.Admin {
			writeJSONError(w, http.StatusForbidden, "participant token required")
			return
		}
		ctx := context.WithValue(r.Context(), participantKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin authenticates the request and enforces the admin claim.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !claims.Admin {
			writeJSONError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func participantFrom(ctx context.Context) string {
	id, _ := ctx.Value(participantKey).(string)
	return id
}
