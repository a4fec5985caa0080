package middleware

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
)

// JWTAuthConfig — источник ключей подписи.
type JWTAuthConfig struct {
	JWKSURL string
	// CACertPath — PEM с CA, которому доверяет клиент JWKS (опционально)
	CACertPath    string
	TLSSkipVerify bool
	ClientTimeout time.Duration
	// RefreshInterval — период перечитывания JWKS
	RefreshInterval time.Duration
	JWTLeeway       time.Duration
}

// NewJWTAuth создаёт JWTAuth с ключами, периодически загружаемыми с JWKSURL.
// Недоступный при старте JWKS не ошибка: токены отклоняются до первого
// успешного обновления.
func NewJWTAuth(cfg JWTAuthConfig, logger *slog.Logger) (*JWTAuth, error) {
	client, err := jwksClient(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CACertPath != "" {
		logger.Info("JWKS: используется CA-сертификат", slog.String("ca_cert", cfg.CACertPath))
	}

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    client,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("JWKS: ошибка обновления ключей",
				slog.String("url", cfg.JWKSURL),
				slog.String("error", err.Error()),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("JWKS storage %s: %w", cfg.JWKSURL, err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("JWKS keyfunc: %w", err)
	}
	return NewJWTAuthWithKeyfunc(kf, cfg.JWTLeeway, logger), nil
}

// jwksClient — HTTP-клиент JWKS на базе транспорта по умолчанию
// (прокси из окружения сохраняются) с собственными настройками TLS.
func jwksClient(cfg JWTAuthConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // IG_TLS_SKIP_VERIFY
	}

	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("чтение CA-сертификата %s: %w", cfg.CACertPath, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA-сертификат %s: нет PEM-блоков", cfg.CACertPath)
		}
		transport.TLSClientConfig.RootCAs = pool
	}

	return &http.Client{Timeout: cfg.ClientTimeout, Transport: transport}, nil
}
