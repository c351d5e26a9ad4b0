package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// Admin endpoints reject requests that carry no token
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			middleware := AuthMiddleware("test-secret", zap.NewNop())

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(method, "/api/orders/"+pathSuffix, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "PUT"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(userID string) bool {
			secret := "test-secret"
			middleware := AuthMiddleware(secret, zap.NewNop())

			tokenString := signToken(t, secret, jwt.MapClaims{
				"user_id": userID,
				"role":    RoleAdmin,
				"exp":     time.Now().Add(-1 * time.Hour).Unix(),
			})

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidTokensExposePrincipal(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens put the caller into the request context", prop.ForAll(
		func(seed int64) bool {
			secret := "test-secret"
			middleware := AuthMiddleware(secret, zap.NewNop())
			userID := uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(seed)}).String()

			tokenString := signToken(t, secret, jwt.MapClaims{
				"user_id": userID,
				"role":    RoleAdmin,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})

			var seen Principal
			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := GetPrincipal(r.Context())
				if !ok {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				seen = p
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusOK && seen.UserID == userID && seen.Role == RoleAdmin
		},
		gen.Int64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsWrongSecretAndMissingClaims(t *testing.T) {
	middleware := AuthMiddleware("right-secret", zap.NewNop())
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := map[string]string{
		"wrong secret": signToken(t, "wrong-secret", jwt.MapClaims{"user_id": "a", "role": RoleAdmin}),
		"no role":      signToken(t, "right-secret", jwt.MapClaims{"user_id": "a"}),
		"no user":      signToken(t, "right-secret", jwt.MapClaims{"role": RoleAdmin}),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestProperty_MissingBearerPrefixRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tokens without Bearer prefix are rejected", prop.ForAll(
		func(token string) bool {
			middleware := AuthMiddleware("test-secret", zap.NewNop())

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/orders", nil)
			req.Header.Set("Authorization", token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRequireAdmin(t *testing.T) {
	guard := RequireAdmin(zap.NewNop())
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		ctx      func(r *http.Request) *http.Request
		expected int
	}{
		{"no principal", func(r *http.Request) *http.Request { return r }, http.StatusForbidden},
		{"shopper role", func(r *http.Request) *http.Request {
			return r.WithContext(WithPrincipal(r.Context(), Principal{UserID: "u", Role: "customer"}))
		}, http.StatusForbidden},
		{"admin role", func(r *http.Request) *http.Request {
			return r.WithContext(WithPrincipal(r.Context(), Principal{UserID: "u", Role: RoleAdmin}))
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.ctx(httptest.NewRequest("GET", "/api/orders", nil))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, w.Code)
			}
		})
	}
}
