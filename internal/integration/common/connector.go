package common

import (
	"github.com/futig/docgen-gateway/internal/config"
	pkgHTTP "github.com/futig/docgen-gateway/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "docgen-gateway/1.0"

// NewServiceConnector builds the outbound connector of one upstream service.
// The connector logger is named after the service so transport lines can be told apart.
func NewServiceConnector(service string, cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithUserAgent(userAgent),
		pkgHTTP.WithRequestLogging(),
	}
	if cfg.Token != "" {
		opts = append(opts, pkgHTTP.WithAuthToken(cfg.Token))
	}

	return pkgHTTP.NewConnector(&pkgHTTP.ConnectorConfig{
		Logger:  logger.Named(service),
		BaseURL: cfg.Url,
	}, opts...)
}
