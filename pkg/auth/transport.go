package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DebugRoundTripper logs every outbound request and its outcome at debug
// level. Credential headers are redacted before they reach the logger.
type DebugRoundTripper struct {
	base      http.RoundTripper
	logger    *zap.Logger
	sensitive []string
}

// NewDebugRoundTripper wraps base. A nil base uses http.DefaultTransport.
func NewDebugRoundTripper(base http.RoundTripper, logger *zap.Logger, sensitive []string) *DebugRoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebugRoundTripper{
		base:      base,
		logger:    logger.With(zap.String("component", "upstream")),
		sensitive: sensitive,
	}
}

// RoundTrip executes a single HTTP transaction
func (t *DebugRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if ce := t.logger.Check(zap.DebugLevel, "sending request"); ce != nil {
		ce.Write(
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Any("headers", RedactHeaders(req.Header, t.sensitive)),
		)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return nil, err
	}

	t.logger.Debug("response received",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
