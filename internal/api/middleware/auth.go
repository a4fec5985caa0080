// auth.go — проверка Bearer-токенов клиентов шлюза.
//
// Шлюз не выпускает токены. Он принимает RS256-токены внешнего
// сервиса авторизации и решает одно: может ли клиент загружать PDF.
// Право даёт scope pdf:upload (в claim "scope" или "scopes") либо роль admin.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/Hootone-health/Hootone-RAG/internal/api/errors"
)

const (
	// ScopeUpload — право на POST /upload/pdf и GET /rate-limit.
	ScopeUpload = "pdf:upload"
	// RoleAdmin получает ScopeUpload без явного scope в токене.
	RoleAdmin = "admin"
)

type principalKey struct{}

// authError — отказ, текст которого можно вернуть клиенту как есть.
type authError string

func (e authError) Error() string { return string(e) }

const (
	errNoAuthHeader   authError = "Отсутствует заголовок Authorization"
	errNotBearer      authError = "Неверный формат Authorization: ожидается Bearer <token>"
	errEmptyToken     authError = "Пустой Bearer token"
	errMissingSubject authError = "Отсутствует sub в токене"
)

// Claims — полезная нагрузка токена клиента шлюза.
// Сервисы авторизации пишут права по-разному: строкой OAuth2
// ("scope": "a b"), массивом ("scopes": [...]) или ролью.
type Claims struct {
	jwt.RegisteredClaims
	ScopeString string   `json:"scope,omitempty"`
	ScopeArray  []string `json:"scopes,omitempty"`
	Role        string   `json:"role,omitempty"`
}

// Principal — проверенный клиент, помещаемый в контекст запроса.
type Principal struct {
	Subject string
	Role    string
	scopes  map[string]struct{}
}

// Has сообщает, есть ли у клиента право scope.
func (p *Principal) Has(scope string) bool {
	if p == nil {
		return false
	}
	if scope == ScopeUpload && strings.EqualFold(p.Role, RoleAdmin) {
		return true
	}
	_, ok := p.scopes[scope]
	return ok
}

// Scopes возвращает явно выданные scope без повторов.
func (p *Principal) Scopes() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.scopes))
	for s := range p.scopes {
		out = append(out, s)
	}
	return out
}

// principal собирает Principal из claims; повторы и пустые элементы отбрасываются.
func (c *Claims) principal() (*Principal, error) {
	sub, err := c.GetSubject()
	if err != nil || sub == "" {
		return nil, errMissingSubject
	}

	p := &Principal{
		Subject: sub,
		Role:    c.Role,
		scopes:  make(map[string]struct{}, len(c.ScopeArray)+1),
	}
	for _, s := range strings.Fields(c.ScopeString) {
		p.scopes[s] = struct{}{}
	}
	for _, s := range c.ScopeArray {
		if s = strings.TrimSpace(s); s != "" {
			p.scopes[s] = struct{}{}
		}
	}
	return p, nil
}

// JWTAuth проверяет токены по ключам JWKS.
type JWTAuth struct {
	keys   keyfunc.Keyfunc
	parser *jwt.Parser
	logger *slog.Logger
}

// NewJWTAuthWithKeyfunc создаёт JWTAuth поверх готового источника ключей.
func NewJWTAuthWithKeyfunc(kf keyfunc.Keyfunc, leeway time.Duration, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		keys: kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
		logger: logger.With(slog.String("component", "jwt_auth")),
	}
}

// Authenticate проверяет заголовок Authorization и возвращает клиента.
func (j *JWTAuth) Authenticate(r *http.Request) (*Principal, error) {
	raw, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	if _, err := j.parser.ParseWithClaims(raw, claims, j.keys.KeyfuncCtx(r.Context())); err != nil {
		return nil, err
	}
	return claims.principal()
}

// bearerToken извлекает токен из значения заголовка Authorization.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// Middleware отвечает 401 на любой непрошедший проверку токен.
// Текст ошибки подписи наружу не отдаётся, только в debug-лог.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := j.Authenticate(r)
			var reason authError
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			case errors.As(err, &reason):
				apierrors.Unauthorized(w, string(reason))
			default:
				j.logger.Debug("Токен отклонён",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
			}
		})
	}
}

// RequireScope пропускает только клиентов с правом scope, иначе 403.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !PrincipalFromContext(r.Context()).Has(scope) {
				apierrors.Forbidden(w, "Недостаточно прав: требуется scope "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal кладёт клиента в контекст.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext — nil, если запрос не аутентифицирован.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// SubjectFromContext возвращает sub клиента или пустую строку.
func SubjectFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Subject
	}
	return ""
}
