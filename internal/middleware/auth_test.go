package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func signedToken(t *testing.T, secret, charity string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"charity": charity,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")

	var gotCharity any
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCharity = r.Context().Value(CharityKey)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token passes charity through", func(t *testing.T) {
		gotCharity = nil
		r := httptest.NewRequest("POST", "/api/v1/payout/MEDA", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", "MEDA"))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MEDA", gotCharity)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/payout/MEDA", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/payout/MEDA", nil)
		r.Header.Set("Authorization", "token abc")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/payout/MEDA", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", "MEDA"))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
