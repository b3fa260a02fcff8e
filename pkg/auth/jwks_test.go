package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JSONWebKey{{
			Kid: kid,
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	}))
}

func TestProvider_KeyFunc(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits int32
	srv := jwksServer(t, "kid-1", &priv.PublicKey, &hits)
	defer srv.Close()

	p := NewProvider(srv.URL)

	sign := func(kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"sub":   "user-1",
			"email": "asha@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(priv)
		require.NoError(t, err)
		return s
	}

	t.Run("valid token verifies", func(t *testing.T) {
		parsed, err := jwt.Parse(sign("kid-1"), p.KeyFunc)
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
	})

	t.Run("keys are cached", func(t *testing.T) {
		_, err := jwt.Parse(sign("kid-1"), p.KeyFunc)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("unknown kid fails", func(t *testing.T) {
		_, err := jwt.Parse(sign("kid-unknown"), p.KeyFunc)
		assert.Error(t, err)
	})

	t.Run("hmac token is rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
		s, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = jwt.Parse(s, p.KeyFunc)
		assert.Error(t, err)
	})
}
