// Пакет jwksmock — JWKS endpoint для тестов шлюза.
// Генерирует RSA ключевую пару, отдаёт JWKS по GET /jwks через
// httptest.Server и подписывает JWT с claims шлюза (scope, scopes, role).
package jwksmock

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// KeyID — kid единственного ключа в наборе.
const KeyID = "jwksmock-key-1"

// Server — запущенный JWKS endpoint.
type Server struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	jwks     []byte
	requests atomic.Int64
}

// TokenOptions — содержимое выдаваемого токена.
type TokenOptions struct {
	Subject string
	// Scopes пишутся в claim "scope" через пробел
	Scopes []string
	Role   string
	// TTL — время жизни; отрицательное значение выдаёт просроченный токен
	TTL time.Duration
}

// New запускает JWKS endpoint; сервер закрывается по завершении теста.
func New(t testing.TB) *Server {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("ошибка генерации RSA ключа: %v", err)
	}

	jwks, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": KeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	if err != nil {
		t.Fatalf("ошибка сериализации JWKS: %v", err)
	}

	s := &Server{key: key, jwks: jwks}

	router := chi.NewRouter()
	router.Get("/jwks", func(w http.ResponseWriter, _ *http.Request) {
		s.requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.jwks)
	})
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.srv = httptest.NewServer(router)
	t.Cleanup(s.srv.Close)

	return s
}

// URL возвращает адрес JWKS (…/jwks).
func (s *Server) URL() string {
	return s.srv.URL + "/jwks"
}

// Requests — количество обращений к /jwks.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Token подписывает JWT (RS256, kid=KeyID).
func (s *Server) Token(t testing.TB, opts TokenOptions) string {
	t.Helper()

	ttl := opts.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()

	claims := jwt.MapClaims{
		"sub": opts.Subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"iss": "jwksmock",
	}
	if len(opts.Scopes) > 0 {
		claims["scope"] = strings.Join(opts.Scopes, " ")
	}
	if opts.Role != "" {
		claims["role"] = opts.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = KeyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		t.Fatalf("ошибка подписи JWT: %v", err)
	}
	return signed
}
